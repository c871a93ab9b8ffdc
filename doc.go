// Package todos is the persistence and orchestration core of the to-do item
// backend.
//
// # Overview
//
// Every [Item] belongs to exactly one owner. Items are stored in a
// partitioned key-value table where the owner ID is the partition key and the
// item ID is the sort key, so every operation is scoped to a single owner and
// cross-owner access is structurally impossible.
//
// [Service] is the entry point other layers call. It injects the
// authenticated owner ID, delegates persistence to a [Store] and coordinates
// image attachments with an [UploadIssuer]:
//
//	store := dynamodb.New(&awsCfg, "todos")
//	issuer := s3.New(&awsCfg)
//
//	svc, err := todos.NewService(store, issuer, "my-attachments-bucket",
//	    todos.WithUploadURLTTL(5*time.Minute),
//	)
//
// # Attachments
//
// [Service.AttachImage] first issues a presigned upload URL for the object key
// equal to the item ID, then records [AttachmentURL] for the same bucket and
// key on the item. The two steps are not transactional: a failure after the
// first step leaves a valid upload URL with no recorded reference.
//
// # Errors
//
// All failures returned by the core are [*Error] values with one of a closed
// set of kinds. Use [errors.Is] with [ErrStoreUnavailable], [ErrItemNotFound],
// [ErrUploadAuthorization] or [ErrInvalidRequest] to branch on them.
package todos
