package model

import (
	"marina/shared/model"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID             = "id"
	FieldCustomerID     = "customer_id"
	FieldBoatID         = "boat_id"
	FieldBookingDate    = "booking_date"
	FieldBookingTime    = "booking_time"
	FieldLocation       = "location"
	FieldDurationOption = "duration_option"
	FieldStatus         = "status"
	FieldPaymentMethod  = "payment_method"
	FieldPaymentStatus  = "payment_status"
	FieldTotalPrice     = "total_price"
	FieldPaymentProof   = "payment_proof"
	FieldIsDeleted      = "is_deleted"
	FieldDeletedAt      = "deleted_at"
	FieldDeletedBy      = "deleted_by"
	FieldDeletionReason = "deletion_reason"
	FieldCreatedAt      = "created_at"
	FieldModifiedAt     = "modified_at"
)

const (
	// ActiveBookingIndex is the partial unique index over (boat_id, booking_date) for blocking bookings.
	ActiveBookingIndex   = "bookings_active_boat_date_key"
	DefaultPaymentMethod = "transfer"
)

type Booking struct {
	ID             string          `db:"id"`
	CustomerID     string          `db:"customer_id"`
	BoatID         string          `db:"boat_id"`
	BookingDate    time.Time       `db:"booking_date"`
	BookingTime    string          `db:"booking_time"`
	Location       string          `db:"location"`
	DurationOption string          `db:"duration_option"`
	Status         Status          `db:"status"`
	PaymentMethod  string          `db:"payment_method"`
	PaymentStatus  PaymentStatus   `db:"payment_status"`
	TotalPrice     decimal.Decimal `db:"total_price"`
	PaymentProof   *string         `db:"payment_proof"`
	IsDeleted      bool            `db:"is_deleted"`
	DeletedAt      *time.Time      `db:"deleted_at"`
	DeletedBy      *string         `db:"deleted_by"`
	DeletionReason *string         `db:"deletion_reason"`
	model.Metadata
}

// Blocks reports whether the booking holds its boat for its date.
func (b Booking) Blocks() bool {
	return !b.IsDeleted && b.Status.Blocking()
}

// Snapshot captures every non-deletion attribute of the booking for the history log.
func (b Booking) Snapshot() Snapshot {
	snapshot := Snapshot{
		FieldID:             b.ID,
		FieldCustomerID:     b.CustomerID,
		FieldBoatID:         b.BoatID,
		FieldBookingDate:    b.BookingDate.Format(time.DateOnly),
		FieldBookingTime:    b.BookingTime,
		FieldLocation:       b.Location,
		FieldDurationOption: b.DurationOption,
		FieldStatus:         string(b.Status),
		FieldPaymentMethod:  b.PaymentMethod,
		FieldPaymentStatus:  string(b.PaymentStatus),
		FieldTotalPrice:     b.TotalPrice.StringFixed(2),
		FieldPaymentProof:   nil,
		FieldIsDeleted:      b.IsDeleted,
	}

	if b.PaymentProof != nil {
		snapshot[FieldPaymentProof] = *b.PaymentProof
	}

	return snapshot
}

// DeletionSnapshot captures the four deletion fields.
func (b Booking) DeletionSnapshot() Snapshot {
	snapshot := Snapshot{
		FieldIsDeleted:      b.IsDeleted,
		FieldDeletedAt:      nil,
		FieldDeletedBy:      nil,
		FieldDeletionReason: nil,
	}

	if b.DeletedAt != nil {
		snapshot[FieldDeletedAt] = b.DeletedAt.Format(time.RFC3339)
	}

	if b.DeletedBy != nil {
		snapshot[FieldDeletedBy] = *b.DeletedBy
	}

	if b.DeletionReason != nil {
		snapshot[FieldDeletionReason] = *b.DeletionReason
	}

	return snapshot
}
