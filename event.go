package todos

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies an item lifecycle event.
type EventType string

const (
	EventItemCreated          EventType = "item.created"
	EventItemUpdated          EventType = "item.updated"
	EventItemDeleted          EventType = "item.deleted"
	EventAttachmentAuthorized EventType = "item.attachment_authorized"
)

// Event describes a committed change to an item. Item is nil for deletions.
// ID is unique per event, so two changes within the same millisecond stay
// distinguishable.
type Event struct {
	ID        string    `json:"eventId"`
	Type      EventType `json:"type"`
	OwnerID   string    `json:"ownerId"`
	ItemID    string    `json:"itemId"`
	Timestamp string    `json:"timestamp"`
	Item      *Item     `json:"item,omitempty"`
}

func newEvent(t EventType, ownerID, itemID string, now time.Time, item *Item) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		OwnerID:   ownerID,
		ItemID:    itemID,
		Timestamp: FormatTimestamp(now),
		Item:      item,
	}
}
