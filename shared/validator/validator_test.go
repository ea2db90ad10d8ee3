package validator_test

import (
	"marina/shared/failure"
	"marina/shared/validator"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const pngPixel = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

type bookingRequest struct {
	BoatID      string          `json:"boat_id"      validate:"required,uuid"`
	BookingDate string          `json:"booking_date" validate:"required,datetime=2006-01-02"`
	Status      string          `json:"status"       validate:"omitempty,oneof=Pending Confirmed"`
	TotalPrice  decimal.Decimal `json:"total_price"  validate:"gte=0"`
}

type proofRequest struct {
	File string `json:"file" validate:"required,mimetypes=image/png image/jpeg,maxfilesize=1"`
}

func validBooking() *bookingRequest {
	return &bookingRequest{
		BoatID:      "8f14e45f-ceea-4e7a-9d2f-6b4c1f0d2a11",
		BookingDate: "2025-09-01",
		Status:      "Pending",
		TotalPrice:  decimal.RequireFromString("150.00"),
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(req *bookingRequest)
		contains string
	}{
		{
			name:   "valid request",
			mutate: func(_ *bookingRequest) {},
		},
		{
			name:     "missing boat",
			mutate:   func(req *bookingRequest) { req.BoatID = "" },
			contains: "boat_id is required",
		},
		{
			name:     "boat is not a uuid",
			mutate:   func(req *bookingRequest) { req.BoatID = "boat-1" },
			contains: "boat_id must be a valid UUID",
		},
		{
			name:     "date in wrong format",
			mutate:   func(req *bookingRequest) { req.BookingDate = "01/09/2025" },
			contains: "booking_date must match the format 2006-01-02",
		},
		{
			name:     "unknown status",
			mutate:   func(req *bookingRequest) { req.Status = "Refunded" },
			contains: "status must be one of",
		},
		{
			name:     "negative price",
			mutate:   func(req *bookingRequest) { req.TotalPrice = decimal.RequireFromString("-1") },
			contains: "total_price must be greater than or equal to 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validBooking()
			tt.mutate(req)

			err := validator.ValidateStruct(req)
			if tt.contains == "" {
				assert.NoError(t, err)

				return
			}

			assert.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestValidateStruct_DataURI(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		expectError bool
	}{
		{name: "png within size", file: pngPixel},
		{name: "pdf not allowed", file: "data:application/pdf;base64,JVBERi0xLjQK", expectError: true},
		{name: "plain url", file: "https://cdn.example.com/receipt.png", expectError: true},
		{name: "too large", file: "data:image/png;base64," + strings.Repeat("A", 2*1024*1024), expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateStruct(&proofRequest{File: tt.file})

			assert.Equal(t, tt.expectError, err != nil, "unexpected result: %v", err)
		})
	}
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, validator.ValidateVar("2025-09-01", "datetime=2006-01-02"))
	assert.Error(t, validator.ValidateVar("2025-13-01", "datetime=2006-01-02"))
	assert.NoError(t, validator.ValidateVar("Cancelled", "oneof=Pending Confirmed Completed Cancelled"))
	assert.Error(t, validator.ValidateVar("", "required"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		expectError bool
	}{
		{
			name: "valid body",
			body: `{"boat_id":"8f14e45f-ceea-4e7a-9d2f-6b4c1f0d2a11","booking_date":"2025-09-01","total_price":"99.50"}`,
		},
		{
			name:        "numeric price",
			body:        `{"boat_id":"8f14e45f-ceea-4e7a-9d2f-6b4c1f0d2a11","booking_date":"2025-09-01","total_price":99.5}`,
			expectError: false,
		},
		{
			name:        "malformed json",
			body:        `{"boat_id":}`,
			expectError: true,
		},
		{
			name:        "empty object",
			body:        `{}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req bookingRequest

			err := validator.Validate(strings.NewReader(tt.body), &req)

			assert.Equal(t, tt.expectError, err != nil, "unexpected result: %v", err)
		})
	}
}
