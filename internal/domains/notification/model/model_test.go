package model_test

import (
	"marina/internal/domains/notification/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompose(t *testing.T) {
	facts := model.Facts{
		BookingID:     "booking-1",
		BoatID:        "boat-1",
		BoatName:      "Sea Breeze",
		OwnerID:       "owner-1",
		CustomerID:    "customer-1",
		CustomerName:  "Dewi",
		BookingDate:   "2025-09-01",
		Status:        "Confirmed",
		PaymentStatus: "Paid",
		TotalPrice:    "150.00",
	}

	tests := []struct {
		name      string
		eventType model.EventType
		customer  string
		owner     string
	}{
		{
			name:      "created",
			eventType: model.EventBookingCreated,
			customer:  "Your booking of Sea Breeze for 2025-09-01 was received and is Confirmed.",
			owner:     "Dewi booked Sea Breeze for 2025-09-01.",
		},
		{
			name:      "status changed",
			eventType: model.EventBookingStatusChanged,
			customer:  "Your booking of Sea Breeze for 2025-09-01 is now Confirmed.",
			owner:     "The booking of Sea Breeze by Dewi for 2025-09-01 is now Confirmed.",
		},
		{
			name:      "payment changed",
			eventType: model.EventPaymentStatusChanged,
			customer:  "Payment for your booking of Sea Breeze on 2025-09-01 is Paid.",
			owner:     "Payment from Dewi for Sea Breeze on 2025-09-01 is Paid.",
		},
	}

	now := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := model.Compose(tt.eventType, facts, now)

			assert.Len(t, entries, 2)
			assert.Equal(t, model.AudienceCustomer, entries[0].Audience)
			assert.Equal(t, "customer-1", entries[0].Payload.RecipientID)
			assert.Equal(t, tt.customer, entries[0].Payload.Message)
			assert.Equal(t, model.AudienceOwner, entries[1].Audience)
			assert.Equal(t, "owner-1", entries[1].Payload.RecipientID)
			assert.Equal(t, tt.owner, entries[1].Payload.Message)
			assert.NotEqual(t, entries[0].ID, entries[1].ID)

			for _, entry := range entries {
				assert.Equal(t, tt.eventType, entry.EventType)
				assert.Equal(t, "booking-1", entry.BookingID)
				assert.Equal(t, now, entry.CreatedAt)
			}
		})
	}
}

func TestEventValueScan(t *testing.T) {
	event := model.Event{
		Type:      model.EventBookingCreated,
		Audience:  model.AudienceOwner,
		BookingID: "booking-1",
		Message:   "hello",
	}

	value, err := event.Value()
	assert.NoError(t, err)

	var fromString model.Event
	assert.NoError(t, fromString.Scan(value))
	assert.Equal(t, event.BookingID, fromString.BookingID)
	assert.Equal(t, event.Message, fromString.Message)

	var fromBytes model.Event
	raw, _ := value.(string)
	assert.NoError(t, fromBytes.Scan([]byte(raw)))
	assert.Equal(t, event.Audience, fromBytes.Audience)

	var invalid model.Event
	assert.Error(t, invalid.Scan(42))
}
