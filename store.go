package todos

import (
	"context"
	"time"
)

// Store persists items in a table partitioned by owner ID. Implementations
// must translate every backend failure into an [*Error]: [KindItemNotFound]
// when an existence precondition fails and [KindStoreUnavailable] otherwise.
type Store interface {
	// List returns all items of the owner, or an empty slice if there are none.
	List(ctx context.Context, ownerID string) ([]Item, error)

	// Create assigns an item ID and creation time to the draft and inserts it
	// unconditionally.
	Create(ctx context.Context, draft Draft) (*Item, error)

	// Update overwrites name, due date and done state of an existing item and
	// returns the resulting item. Other fields are left untouched.
	Update(ctx context.Context, ownerID, itemID string, req UpdateRequest) (*Item, error)

	// Delete removes the item. Deleting an item that does not exist is not an
	// error.
	Delete(ctx context.Context, ownerID, itemID string) error

	// SetAttachmentReference records url on an existing item. It never creates
	// a record.
	SetAttachmentReference(ctx context.Context, ownerID, itemID, url string) error
}

// UploadIssuer issues write-scoped, time-limited URLs for a single object
// upload.
type UploadIssuer interface {
	IssueUploadURL(ctx context.Context, bucket, objectKey string, ttl time.Duration) (string, error)
}

// Publisher receives item lifecycle events after the corresponding write has
// been committed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
