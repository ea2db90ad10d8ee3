package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	HistoryTableName  = "booking_history"
	HistoryEntityName = "booking history"

	HistoryFieldID        = "id"
	HistoryFieldBookingID = "booking_id"
	HistoryFieldSeq       = "seq"
)

type Action string

const (
	ActionCreated        Action = "created"
	ActionDeleted        Action = "deleted"
	ActionRestored       Action = "restored"
	ActionStatusChanged  Action = "status_changed"
	ActionPaymentUpdated Action = "payment_updated"
)

// HistoryEntry is append only. The seq column is assigned by the database and only used for ordering.
type HistoryEntry struct {
	ID        string    `db:"id"`
	BookingID string    `db:"booking_id"`
	Action    Action    `db:"action"`
	OldValues Snapshot  `db:"old_values"`
	NewValues Snapshot  `db:"new_values"`
	ActorID   string    `db:"actor_id"`
	Reason    *string   `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

func NewHistoryEntry(bookingID string, action Action, oldValues, newValues Snapshot, actorID string, reason *string, at time.Time) HistoryEntry {
	return HistoryEntry{
		ID:        uuid.NewString(),
		BookingID: bookingID,
		Action:    action,
		OldValues: oldValues,
		NewValues: newValues,
		ActorID:   actorID,
		Reason:    reason,
		CreatedAt: at,
	}
}
