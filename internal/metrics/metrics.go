// Package metrics exports Prometheus metrics for item store calls and HTTP
// requests.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/slackmgr/todos"
)

const namespace = "todos"

// Metrics holds the registered collectors.
type Metrics struct {
	storeDuration *prometheus.HistogramVec
	storeErrors   *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg, which defaults to
// [prometheus.DefaultRegisterer]. Collectors that are already registered are
// reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of item store operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_errors_total",
			Help:      "Count of failed item store operations by error kind.",
		}, []string{"operation", "kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Count of HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	var err error

	if m.storeDuration, err = register(reg, m.storeDuration); err != nil {
		return nil, err
	}

	if m.storeErrors, err = register(reg, m.storeErrors); err != nil {
		return nil, err
	}

	if m.httpRequests, err = register(reg, m.httpRequests); err != nil {
		return nil, err
	}

	if m.httpDuration, err = register(reg, m.httpDuration); err != nil {
		return nil, err
	}

	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}

		return c, fmt.Errorf("failed to register metric: %w", err)
	}

	return c, nil
}

// Middleware records request count and latency per matched route. Requests
// that match no route are recorded with the route "unmatched".
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// InstrumentStore wraps store so that every call is timed and every failure
// is counted by its [todos.Kind].
func (m *Metrics) InstrumentStore(store todos.Store) todos.Store {
	return &instrumentedStore{next: store, m: m}
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	m.storeDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		kind := "unknown"
		if k := todos.KindOf(err); k != 0 {
			kind = k.String()
		}

		m.storeErrors.WithLabelValues(op, kind).Inc()
	}
}

type instrumentedStore struct {
	next todos.Store
	m    *Metrics
}

var _ todos.Store = (*instrumentedStore)(nil)

func (s *instrumentedStore) List(ctx context.Context, ownerID string) ([]todos.Item, error) {
	start := time.Now()
	items, err := s.next.List(ctx, ownerID)
	s.m.observe("list", start, err)

	return items, err
}

func (s *instrumentedStore) Create(ctx context.Context, draft todos.Draft) (*todos.Item, error) {
	start := time.Now()
	item, err := s.next.Create(ctx, draft)
	s.m.observe("create", start, err)

	return item, err
}

func (s *instrumentedStore) Update(ctx context.Context, ownerID, itemID string, req todos.UpdateRequest) (*todos.Item, error) {
	start := time.Now()
	item, err := s.next.Update(ctx, ownerID, itemID, req)
	s.m.observe("update", start, err)

	return item, err
}

func (s *instrumentedStore) Delete(ctx context.Context, ownerID, itemID string) error {
	start := time.Now()
	err := s.next.Delete(ctx, ownerID, itemID)
	s.m.observe("delete", start, err)

	return err
}

func (s *instrumentedStore) SetAttachmentReference(ctx context.Context, ownerID, itemID, url string) error {
	start := time.Now()
	err := s.next.SetAttachmentReference(ctx, ownerID, itemID, url)
	s.m.observe("set_attachment_reference", start, err)

	return err
}
