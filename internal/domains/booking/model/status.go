package model

import (
	"fmt"
	boatModel "marina/internal/domains/boat/model"
	"slices"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// BlockingStatuses hold a boat for their date.
var BlockingStatuses = []Status{StatusPending, StatusConfirmed, StatusCompleted}

func ParseStatus(value string) (Status, error) {
	status := Status(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %q", value)
	}

	return status, nil
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]

	return ok
}

func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(transitions[s], target)
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) Blocking() bool {
	return slices.Contains(BlockingStatuses, s)
}

// BoatStatus is the boat status a transition into s leaves behind. Other bookings of the
// boat are not consulted, so the last transition wins.
func (s Status) BoatStatus() boatModel.Status {
	if s == StatusConfirmed {
		return boatModel.StatusRented
	}

	return boatModel.StatusAvailable
}

func (s Status) String() string {
	return string(s)
}

type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "Paid"
	PaymentStatusUnpaid PaymentStatus = "Unpaid"
)

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	switch status := PaymentStatus(value); status {
	case PaymentStatusPaid, PaymentStatusUnpaid:
		return status, nil
	default:
		return "", fmt.Errorf("invalid payment status: %q", value)
	}
}

func (p PaymentStatus) String() string {
	return string(p)
}
