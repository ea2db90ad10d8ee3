package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Facts is the booking state an event describes.
type Facts struct {
	BookingID     string
	BoatID        string
	BoatName      string
	OwnerID       string
	CustomerID    string
	CustomerName  string
	BookingDate   string
	Status        string
	PaymentStatus string
	TotalPrice    string
}

// Compose builds the customer and owner entries of one event.
func Compose(eventType EventType, facts Facts, now time.Time) []OutboxEntry {
	audiences := []struct {
		audience  Audience
		recipient string
	}{
		{AudienceCustomer, facts.CustomerID},
		{AudienceOwner, facts.OwnerID},
	}

	entries := make([]OutboxEntry, 0, len(audiences))

	for _, target := range audiences {
		event := Event{
			Type:          eventType,
			Audience:      target.audience,
			RecipientID:   target.recipient,
			BookingID:     facts.BookingID,
			BoatID:        facts.BoatID,
			BoatName:      facts.BoatName,
			OwnerID:       facts.OwnerID,
			CustomerID:    facts.CustomerID,
			CustomerName:  facts.CustomerName,
			BookingDate:   facts.BookingDate,
			Status:        facts.Status,
			PaymentStatus: facts.PaymentStatus,
			TotalPrice:    facts.TotalPrice,
			Message:       message(eventType, target.audience, facts),
			OccurredAt:    now,
		}

		entries = append(entries, OutboxEntry{
			ID:        uuid.NewString(),
			BookingID: facts.BookingID,
			EventType: eventType,
			Audience:  target.audience,
			Payload:   event,
			CreatedAt: now,
		})
	}

	return entries
}

func message(eventType EventType, audience Audience, facts Facts) string {
	customer := facts.CustomerName
	if customer == "" {
		customer = "A customer"
	}

	switch eventType {
	case EventBookingCreated:
		if audience == AudienceOwner {
			return fmt.Sprintf("%s booked %s for %s.", customer, facts.BoatName, facts.BookingDate)
		}

		return fmt.Sprintf("Your booking of %s for %s was received and is %s.", facts.BoatName, facts.BookingDate, facts.Status)
	case EventBookingStatusChanged:
		if audience == AudienceOwner {
			return fmt.Sprintf("The booking of %s by %s for %s is now %s.", facts.BoatName, customer, facts.BookingDate, facts.Status)
		}

		return fmt.Sprintf("Your booking of %s for %s is now %s.", facts.BoatName, facts.BookingDate, facts.Status)
	case EventPaymentStatusChanged:
		if audience == AudienceOwner {
			return fmt.Sprintf("Payment from %s for %s on %s is %s.", customer, facts.BoatName, facts.BookingDate, facts.PaymentStatus)
		}

		return fmt.Sprintf("Payment for your booking of %s on %s is %s.", facts.BoatName, facts.BookingDate, facts.PaymentStatus)
	default:
		return ""
	}
}
