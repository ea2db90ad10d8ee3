package shared_test

import (
	"context"
	"errors"
	"fmt"
	"marina/shared"
	"marina/shared/constant"
	"marina/shared/dto"
	"testing"

	"github.com/lib/pq"
)

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		limit    int
		expected int
	}{
		{
			name:     "zero total returns 1",
			total:    0,
			limit:    10,
			expected: 1,
		},
		{
			name:     "zero limit returns 1",
			total:    100,
			limit:    0,
			expected: 1,
		},
		{
			name:     "negative limit returns 1",
			total:    100,
			limit:    -5,
			expected: 1,
		},
		{
			name:     "exact division",
			total:    100,
			limit:    10,
			expected: 10,
		},
		{
			name:     "division with remainder",
			total:    101,
			limit:    10,
			expected: 11,
		},
		{
			name:     "limit greater than total",
			total:    5,
			limit:    10,
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shared.CalculateTotalPage(tt.total, tt.limit)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestFilterByID(t *testing.T) {
	result := shared.FilterByID("booking-1", "id", "bookings")

	if len(result.Filters) != 1 {
		t.Fatalf("expected 1 filter, got %d", len(result.Filters))
	}

	filter, ok := result.Filters[0].(dto.Filter)
	if !ok {
		t.Fatal("expected filter to be of type dto.Filter")
	}

	if filter.Field != "id" || filter.Value != "booking-1" || filter.Table != "bookings" {
		t.Errorf("unexpected filter %+v", filter)
	}

	if filter.Operator != dto.FilterOperatorEq {
		t.Errorf("expected operator to be %s, got %s", dto.FilterOperatorEq, filter.Operator)
	}
}

func TestBuildCacheKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		parts    []string
		expected string
	}{
		{
			name:     "prefix only",
			prefix:   "booking:get",
			expected: "booking:get",
		},
		{
			name:     "prefix with parts",
			prefix:   "booking:unavailable",
			parts:    []string{"boat-1"},
			expected: "booking:unavailable:boat-1",
		},
		{
			name:     "lock key",
			prefix:   "booking:lock",
			parts:    []string{"boat-1", "2025-09-01"},
			expected: "booking:lock:boat-1:2025-09-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shared.BuildCacheKey(tt.prefix, tt.parts...); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestBuildCacheKeyWithQuery(t *testing.T) {
	params := dto.QueryParams{Page: 1, Limit: 10, SortBy: "created_at", SortDir: "DESC"}
	filter := dto.FilterGroup{
		Operator: dto.FilterGroupOperatorAnd,
		Filters: []any{
			dto.Filter{Field: "boat_id", Value: "boat-1", Operator: dto.FilterOperatorEq},
			dto.Filter{Field: "status", Value: "Pending", Operator: dto.FilterOperatorEq},
		},
	}

	first := shared.BuildCacheKeyWithQuery("booking:gets", params, filter)
	second := shared.BuildCacheKeyWithQuery("booking:gets", params, filter)

	if first != second {
		t.Errorf("expected stable key, got %s and %s", first, second)
	}

	params.Page = 2
	if third := shared.BuildCacheKeyWithQuery("booking:gets", params, filter); third == first {
		t.Error("expected different page to produce a different key")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "unique violation",
			err:      &pq.Error{Code: constant.PqErrorCodeUniqueViolation},
			expected: true,
		},
		{
			name:     "wrapped unique violation",
			err:      fmt.Errorf("failed to insert data (booking): %w", &pq.Error{Code: constant.PqErrorCodeUniqueViolation}),
			expected: true,
		},
		{
			name:     "foreign key violation",
			err:      &pq.Error{Code: constant.PqErrorCodeFkViolation},
			expected: false,
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shared.IsUniqueViolation(tt.err); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestActorFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "customer-1")
	ctx = context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleCustomer)

	actor := shared.ActorFromContext(ctx)

	if actor.ID != "customer-1" {
		t.Errorf("expected id customer-1, got %s", actor.ID)
	}

	if !actor.IsCustomer() || actor.IsOwner() || actor.IsStaff() {
		t.Errorf("unexpected role checks for %+v", actor)
	}

	empty := shared.ActorFromContext(context.Background())
	if empty.ID != "" || empty.Role != "" {
		t.Errorf("expected empty actor, got %+v", empty)
	}
}
