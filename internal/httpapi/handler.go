package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slackmgr/todos"
	"github.com/slackmgr/todos/internal/auth"
)

// Service is the subset of [todos.Service] the handlers call.
type Service interface {
	List(ctx context.Context, ownerID string) ([]todos.Item, error)
	Create(ctx context.Context, ownerID string, req todos.CreateRequest) (*todos.Item, error)
	Update(ctx context.Context, ownerID, itemID string, req todos.UpdateRequest) (*todos.Item, error)
	Delete(ctx context.Context, ownerID, itemID string) error
	AttachImage(ctx context.Context, ownerID, itemID string) (string, error)
}

var _ Service = (*todos.Service)(nil)

// Handler serves the /todos endpoints.
type Handler struct {
	svc    Service
	logger *slog.Logger
}

// NewHandler creates a Handler backed by svc.
func NewHandler(svc Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger.With("handler", "todos"),
	}
}

// Register mounts the item routes on group. The group must already carry the
// authentication middleware.
func (h *Handler) Register(group gin.IRoutes) {
	group.GET("/todos", h.List)
	group.POST("/todos", h.Create)
	group.PATCH("/todos/:todoId", h.Update)
	group.DELETE("/todos/:todoId", h.Delete)
	group.POST("/todos/:todoId/attachment", h.AttachImage)
}

func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), auth.OwnerID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Create(c *gin.Context) {
	var req todos.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondMalformed(c, err)
		return
	}

	item, err := h.svc.Create(c.Request.Context(), auth.OwnerID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"item": item})
}

func (h *Handler) Update(c *gin.Context) {
	var req todos.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondMalformed(c, err)
		return
	}

	item, err := h.svc.Update(c.Request.Context(), auth.OwnerID(c), c.Param("todoId"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.OwnerID(c), c.Param("todoId")); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) AttachImage(c *gin.Context) {
	uploadURL, err := h.svc.AttachImage(c.Request.Context(), auth.OwnerID(c), c.Param("todoId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"uploadUrl": uploadURL})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := MapHTTPStatus(err)

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "status", status, "error", err)
	} else {
		h.logger.Debug("Request rejected", "method", c.Request.Method, "path", c.FullPath(), "status", status, "error", err)
	}

	c.JSON(status, gin.H{"error": publicMessage(status, err)})
}

func (h *Handler) respondMalformed(c *gin.Context, err error) {
	h.logger.Debug("Malformed request body", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusBadRequest, gin.H{"error": errMalformedBody.Error()})
}
