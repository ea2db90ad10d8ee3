package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	TableName  = "notification_outbox"
	EntityName = "notification outbox"

	FieldID           = "id"
	FieldAttempts     = "attempts"
	FieldLastError    = "last_error"
	FieldDispatchedAt = "dispatched_at"
	FieldCreatedAt    = "created_at"
)

type EventType string

const (
	EventBookingCreated       EventType = "booking_created"
	EventBookingStatusChanged EventType = "booking_status_changed"
	EventPaymentStatusChanged EventType = "payment_status_changed"
)

type Audience string

const (
	AudienceCustomer Audience = "customer"
	AudienceOwner    Audience = "owner"
)

var errUnsupportedPayload = errors.New("unsupported payload type")

// Event is what subscribers receive for one audience.
type Event struct {
	Type          EventType `json:"type"`
	Audience      Audience  `json:"audience"`
	RecipientID   string    `json:"recipient_id"`
	BookingID     string    `json:"booking_id"`
	BoatID        string    `json:"boat_id"`
	BoatName      string    `json:"boat_name"`
	OwnerID       string    `json:"owner_id"`
	CustomerID    string    `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	BookingDate   string    `json:"booking_date"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	TotalPrice    string    `json:"total_price"`
	Message       string    `json:"message"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Value stores the event as jsonb.
func (e Event) Value() (driver.Value, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	return string(raw), nil
}

func (e *Event) Scan(src any) error {
	var raw []byte

	switch value := src.(type) {
	case []byte:
		raw = value
	case string:
		raw = []byte(value)
	default:
		return fmt.Errorf("%w: %T", errUnsupportedPayload, src)
	}

	if err := json.Unmarshal(raw, e); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}

	return nil
}

// OutboxEntry is a pending or delivered event. Entries are written in the transaction of the booking change.
type OutboxEntry struct {
	ID           string     `db:"id"`
	BookingID    string     `db:"booking_id"`
	EventType    EventType  `db:"event_type"`
	Audience     Audience   `db:"audience"`
	Payload      Event      `db:"payload"`
	Attempts     int        `db:"attempts"`
	LastError    *string    `db:"last_error"`
	DispatchedAt *time.Time `db:"dispatched_at"`
	CreatedAt    time.Time  `db:"created_at"`
}
