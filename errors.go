package todos

import (
	"errors"
	"fmt"
)

// Kind classifies a failure returned by the core.
type Kind int

const (
	// KindStoreUnavailable covers any I/O or transport failure talking to the
	// item store. It is never retried by the core.
	KindStoreUnavailable Kind = iota + 1

	// KindItemNotFound is returned when an existence precondition fails, e.g.
	// when attaching an image to an item that does not exist.
	KindItemNotFound

	// KindUploadAuthorizationFailure is returned when a presigned upload URL
	// could not be issued.
	KindUploadAuthorizationFailure

	// KindInvalidRequest is returned for requests that cannot address an item,
	// such as an empty owner or item ID.
	KindInvalidRequest
)

func (k Kind) String() string {
	switch k {
	case KindStoreUnavailable:
		return "store unavailable"
	case KindItemNotFound:
		return "item not found"
	case KindUploadAuthorizationFailure:
		return "upload authorization failure"
	case KindInvalidRequest:
		return "invalid request"
	default:
		return fmt.Sprintf("unknown kind %d", int(k))
	}
}

// Sentinels for use with errors.Is.
var (
	ErrStoreUnavailable    = &Error{Kind: KindStoreUnavailable}
	ErrItemNotFound        = &Error{Kind: KindItemNotFound}
	ErrUploadAuthorization = &Error{Kind: KindUploadAuthorizationFailure}
	ErrInvalidRequest      = &Error{Kind: KindInvalidRequest}
)

// Error is the failure type returned by [Service], [Store] implementations and
// [UploadIssuer] implementations. Op names the operation that failed and Err
// carries the underlying cause, if any.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()

	if e.Op != "" {
		msg = e.Op + ": " + msg
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. This lets the
// package sentinels match any error of their kind regardless of Op and Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind
}

// StoreUnavailable wraps an item store failure.
func StoreUnavailable(op string, err error) error {
	return &Error{Kind: KindStoreUnavailable, Op: op, Err: err}
}

// ItemNotFound reports that the item identified by ownerID and itemID does not
// exist.
func ItemNotFound(op, ownerID, itemID string) error {
	return &Error{Kind: KindItemNotFound, Op: op, Err: fmt.Errorf("item %s for owner %s does not exist", itemID, ownerID)}
}

// UploadAuthorizationFailure wraps a failure to issue an upload URL.
func UploadAuthorizationFailure(op string, err error) error {
	return &Error{Kind: KindUploadAuthorizationFailure, Op: op, Err: err}
}

// InvalidRequest reports a request that cannot be served.
func InvalidRequest(op, reason string) error {
	return &Error{Kind: KindInvalidRequest, Op: op, Err: errors.New(reason)}
}

// KindOf returns the kind of the first *Error in err's chain, or 0 if there is
// none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return 0
}
