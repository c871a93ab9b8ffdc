package todos

import "time"

// TimestampLayout is the layout of [Item.CreatedAt]: ISO-8601 in UTC with
// millisecond precision, e.g. 2024-01-15T12:00:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Item is a to-do item owned by a single user.
type Item struct {
	OwnerID             string `json:"ownerId"`
	ItemID              string `json:"itemId"`
	Name                string `json:"name"`
	DueDate             string `json:"dueDate"`
	Done                bool   `json:"done"`
	CreatedAt           string `json:"createdAt"`
	AttachmentReference string `json:"attachmentReference,omitempty"`
}

// CreateRequest is the caller-supplied payload for a new item. It has no
// owner field; ownership is always taken from the authenticated identity.
type CreateRequest struct {
	Name    string `json:"name"`
	DueDate string `json:"dueDate"`
	Done    bool   `json:"done"`
}

// UpdateRequest replaces the mutable fields of an item. All three fields are
// written on every update.
type UpdateRequest struct {
	Name    string `json:"name"`
	DueDate string `json:"dueDate"`
	Done    bool   `json:"done"`
}

// Draft is an item that has not been persisted yet. It carries no item ID or
// creation time; both are assigned by the [Store]. A Draft can only be built
// with [NewDraft].
type Draft struct {
	ownerID string
	request CreateRequest
}

// NewDraft binds a create payload to its owner.
func NewDraft(ownerID string, req CreateRequest) Draft {
	return Draft{ownerID: ownerID, request: req}
}

// OwnerID returns the owner the draft was created for.
func (d Draft) OwnerID() string {
	return d.ownerID
}

// Request returns the caller-supplied payload.
func (d Draft) Request() CreateRequest {
	return d.request
}

// Item materializes the draft with the store-assigned ID and creation time.
func (d Draft) Item(itemID string, createdAt time.Time) *Item {
	return &Item{
		OwnerID:   d.ownerID,
		ItemID:    itemID,
		Name:      d.request.Name,
		DueDate:   d.request.DueDate,
		Done:      d.request.Done,
		CreatedAt: FormatTimestamp(createdAt),
	}
}

// FormatTimestamp renders t in [TimestampLayout] after converting it to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
