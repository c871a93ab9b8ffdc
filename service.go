package todos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// MaxUploadURLTTL is the longest lifetime a presigned upload URL may have.
const MaxUploadURLTTL = 7 * 24 * time.Hour

// ServiceOption is a functional option for configuring a [Service].
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	uploadURLTTL time.Duration
	publisher    Publisher
	logger       *slog.Logger
	clock        func() time.Time
}

func newServiceOptions() *serviceOptions {
	return &serviceOptions{
		uploadURLTTL: 300 * time.Second,
		logger:       slog.New(slog.DiscardHandler),
		clock:        time.Now,
	}
}

func (o *serviceOptions) validate() error {
	if o.uploadURLTTL <= 0 || o.uploadURLTTL > MaxUploadURLTTL {
		return fmt.Errorf("upload URL TTL must be between 1s and %s, got %s", MaxUploadURLTTL, o.uploadURLTTL)
	}

	if o.logger == nil {
		return errors.New("logger cannot be nil")
	}

	return nil
}

// WithUploadURLTTL sets how long issued upload URLs stay valid. The default
// is 300 seconds. The duration must be greater than zero and at most
// [MaxUploadURLTTL].
func WithUploadURLTTL(d time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.uploadURLTTL = d
	}
}

// WithPublisher sets a [Publisher] that receives an [Event] after every
// successful write.
func WithPublisher(p Publisher) ServiceOption {
	return func(o *serviceOptions) {
		o.publisher = p
	}
}

// WithServiceLogger sets the logger. By default nothing is logged.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithServiceClock sets the clock used to timestamp events.
func WithServiceClock(clock func() time.Time) ServiceOption {
	return func(o *serviceOptions) {
		o.clock = clock
	}
}

// Service implements the to-do business operations on behalf of an
// authenticated owner. It holds no mutable state and is safe for concurrent
// use.
type Service struct {
	store  Store
	issuer UploadIssuer
	bucket string
	opts   *serviceOptions
	logger *slog.Logger
}

// NewService creates a Service that persists items in store and issues
// attachment upload URLs for objects in bucket through issuer.
func NewService(store Store, issuer UploadIssuer, bucket string, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}

	if issuer == nil {
		return nil, errors.New("upload issuer cannot be nil")
	}

	if bucket == "" {
		return nil, errors.New("attachment bucket cannot be empty")
	}

	options := newServiceOptions()

	for _, o := range opts {
		o(options)
	}

	if err := options.validate(); err != nil {
		return nil, fmt.Errorf("invalid service options: %w", err)
	}

	return &Service{
		store:  store,
		issuer: issuer,
		bucket: bucket,
		opts:   options,
		logger: options.logger.With("component", "todos"),
	}, nil
}

// Bucket returns the attachment bucket.
func (s *Service) Bucket() string {
	return s.bucket
}

// List returns all items owned by ownerID.
func (s *Service) List(ctx context.Context, ownerID string) ([]Item, error) {
	if ownerID == "" {
		return nil, InvalidRequest("list", "owner ID cannot be empty")
	}

	s.logger.Debug("Listing items", "owner_id", ownerID)

	return s.store.List(ctx, ownerID)
}

// Create persists a new item for ownerID. Ownership always comes from
// ownerID, never from the payload.
func (s *Service) Create(ctx context.Context, ownerID string, req CreateRequest) (*Item, error) {
	if ownerID == "" {
		return nil, InvalidRequest("create", "owner ID cannot be empty")
	}

	item, err := s.store.Create(ctx, NewDraft(ownerID, req))
	if err != nil {
		return nil, err
	}

	s.logger.Info("Item created", "owner_id", ownerID, "item_id", item.ItemID)
	s.publish(ctx, newEvent(EventItemCreated, ownerID, item.ItemID, s.opts.clock(), item))

	return item, nil
}

// Update replaces name, due date and done state of an item owned by ownerID.
func (s *Service) Update(ctx context.Context, ownerID, itemID string, req UpdateRequest) (*Item, error) {
	if err := checkKey("update", ownerID, itemID); err != nil {
		return nil, err
	}

	item, err := s.store.Update(ctx, ownerID, itemID, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Item updated", "owner_id", ownerID, "item_id", itemID)
	s.publish(ctx, newEvent(EventItemUpdated, ownerID, itemID, s.opts.clock(), item))

	return item, nil
}

// Delete removes an item owned by ownerID. Deleting a missing item succeeds.
func (s *Service) Delete(ctx context.Context, ownerID, itemID string) error {
	if err := checkKey("delete", ownerID, itemID); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, ownerID, itemID); err != nil {
		return err
	}

	s.logger.Info("Item deleted", "owner_id", ownerID, "item_id", itemID)
	s.publish(ctx, newEvent(EventItemDeleted, ownerID, itemID, s.opts.clock(), nil))

	return nil
}

// AttachImage issues a presigned upload URL for the object keyed by itemID
// and then records the object's public URL as the item's attachment
// reference. It returns the upload URL.
//
// The steps run in that order and are not transactional. If the item does
// not exist the upload URL has already been issued but is not returned, and
// the error is of kind [KindItemNotFound].
func (s *Service) AttachImage(ctx context.Context, ownerID, itemID string) (string, error) {
	if err := checkKey("attach image", ownerID, itemID); err != nil {
		return "", err
	}

	uploadURL, err := s.issuer.IssueUploadURL(ctx, s.bucket, itemID, s.opts.uploadURLTTL)
	if err != nil {
		if KindOf(err) == 0 {
			err = UploadAuthorizationFailure("issue upload URL", err)
		}
		return "", err
	}

	s.logger.Debug("Upload URL issued", "owner_id", ownerID, "item_id", itemID, "bucket", s.bucket)

	reference := AttachmentURL(s.bucket, itemID)

	if err := s.store.SetAttachmentReference(ctx, ownerID, itemID, reference); err != nil {
		return "", err
	}

	s.logger.Info("Attachment reference recorded", "owner_id", ownerID, "item_id", itemID, "attachment_reference", reference)
	s.publish(ctx, newEvent(EventAttachmentAuthorized, ownerID, itemID, s.opts.clock(), nil))

	return uploadURL, nil
}

func (s *Service) publish(ctx context.Context, event Event) {
	if s.opts.publisher == nil {
		return
	}

	if err := s.opts.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish item event", "type", event.Type, "owner_id", event.OwnerID, "item_id", event.ItemID, "error", err)
	}
}

func checkKey(op, ownerID, itemID string) error {
	if ownerID == "" {
		return InvalidRequest(op, "owner ID cannot be empty")
	}

	if itemID == "" {
		return InvalidRequest(op, "item ID cannot be empty")
	}

	return nil
}
