package model_test

import (
	boatModel "marina/internal/domains/boat/model"
	"marina/internal/domains/booking/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     model.Status
		to       model.Status
		expected bool
	}{
		{from: model.StatusPending, to: model.StatusConfirmed, expected: true},
		{from: model.StatusPending, to: model.StatusCancelled, expected: true},
		{from: model.StatusPending, to: model.StatusCompleted, expected: false},
		{from: model.StatusConfirmed, to: model.StatusCompleted, expected: true},
		{from: model.StatusConfirmed, to: model.StatusCancelled, expected: true},
		{from: model.StatusConfirmed, to: model.StatusPending, expected: false},
		{from: model.StatusCompleted, to: model.StatusPending, expected: false},
		{from: model.StatusCompleted, to: model.StatusCancelled, expected: false},
		{from: model.StatusCancelled, to: model.StatusPending, expected: false},
		{from: model.StatusCancelled, to: model.StatusConfirmed, expected: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, model.StatusPending.IsTerminal())
	assert.False(t, model.StatusConfirmed.IsTerminal())
	assert.True(t, model.StatusCompleted.IsTerminal())
	assert.True(t, model.StatusCancelled.IsTerminal())
}

func TestStatus_Blocking(t *testing.T) {
	assert.True(t, model.StatusPending.Blocking())
	assert.True(t, model.StatusConfirmed.Blocking())
	assert.True(t, model.StatusCompleted.Blocking())
	assert.False(t, model.StatusCancelled.Blocking())
}

func TestStatus_BoatStatus(t *testing.T) {
	tests := []struct {
		status   model.Status
		expected boatModel.Status
	}{
		{status: model.StatusConfirmed, expected: boatModel.StatusRented},
		{status: model.StatusCompleted, expected: boatModel.StatusAvailable},
		{status: model.StatusCancelled, expected: boatModel.StatusAvailable},
		{status: model.StatusPending, expected: boatModel.StatusAvailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.BoatStatus())
		})
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    model.Status
		wantErr bool
	}{
		{input: "Pending", want: model.StatusPending},
		{input: "Confirmed", want: model.StatusConfirmed},
		{input: "Completed", want: model.StatusCompleted},
		{input: "Cancelled", want: model.StatusCancelled},
		{input: "pending", wantErr: true},
		{input: "Refunded", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := model.ParseStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePaymentStatus(t *testing.T) {
	paid, err := model.ParsePaymentStatus("Paid")
	assert.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, paid)

	unpaid, err := model.ParsePaymentStatus("Unpaid")
	assert.NoError(t, err)
	assert.Equal(t, model.PaymentStatusUnpaid, unpaid)

	_, err = model.ParsePaymentStatus("Refunded")
	assert.Error(t, err)
}
