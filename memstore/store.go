// Package memstore provides an in-memory implementation of [todos.Store].
//
// It follows the same semantics as the DynamoDB and Postgres stores and is
// intended for tests and local development. Data is lost when the process
// exits.
package memstore

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/slackmgr/todos"
)

// Option is a functional option for configuring a [Store].
type Option func(*options)

type options struct {
	clock       func() time.Time
	idGenerator func() string
}

// WithClock sets the clock used to stamp creation times. A nil clock is
// ignored.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithIDGenerator sets the function used to generate item IDs. A nil
// generator is ignored.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.idGenerator = gen
		}
	}
}

// Store keeps items in memory, partitioned by owner ID. It is safe for
// concurrent use.
type Store struct {
	mu    sync.RWMutex
	items map[string]map[string]todos.Item
	opts  *options
}

var _ todos.Store = (*Store)(nil)

// New creates an empty Store.
func New(opts ...Option) *Store {
	o := &options{
		clock:       time.Now,
		idGenerator: uuid.NewString,
	}

	for _, opt := range opts {
		opt(o)
	}

	return &Store{
		items: make(map[string]map[string]todos.Item),
		opts:  o,
	}
}

// List returns the owner's items ordered by item ID.
func (s *Store) List(_ context.Context, ownerID string) ([]todos.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]todos.Item, 0, len(s.items[ownerID]))

	for _, item := range s.items[ownerID] {
		items = append(items, item)
	}

	slices.SortFunc(items, func(a, b todos.Item) int {
		return strings.Compare(a.ItemID, b.ItemID)
	})

	return items, nil
}

func (s *Store) Create(_ context.Context, draft todos.Draft) (*todos.Item, error) {
	item := draft.Item(s.opts.idGenerator(), s.opts.clock())

	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.items[item.OwnerID]
	if !ok {
		partition = make(map[string]todos.Item)
		s.items[item.OwnerID] = partition
	}

	partition[item.ItemID] = *item

	return item, nil
}

func (s *Store) Update(_ context.Context, ownerID, itemID string, req todos.UpdateRequest) (*todos.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[ownerID][itemID]
	if !ok {
		return nil, todos.ItemNotFound("update item", ownerID, itemID)
	}

	item.Name = req.Name
	item.DueDate = req.DueDate
	item.Done = req.Done

	s.items[ownerID][itemID] = item

	return &item, nil
}

func (s *Store) Delete(_ context.Context, ownerID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.items[ownerID]
	if !ok {
		return nil
	}

	delete(partition, itemID)

	if len(partition) == 0 {
		delete(s.items, ownerID)
	}

	return nil
}

func (s *Store) SetAttachmentReference(_ context.Context, ownerID, itemID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[ownerID][itemID]
	if !ok {
		return todos.ItemNotFound("set attachment reference", ownerID, itemID)
	}

	item.AttachmentReference = url
	s.items[ownerID][itemID] = item

	return nil
}

// Get returns a copy of a single item, or false if it does not exist.
func (s *Store) Get(ownerID, itemID string) (todos.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[ownerID][itemID]

	return item, ok
}

// Len returns the total number of stored items across all owners.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, partition := range s.items {
		n += len(partition)
	}

	return n
}
