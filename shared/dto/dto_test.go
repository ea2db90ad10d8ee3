package dto_test

import (
	"marina/shared/constant"
	"marina/shared/dto"
	"marina/shared/model"
	"marina/shared/timezone"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewMetadata(t *testing.T) {
	createdAt := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

	metadata := dto.NewMetadata(model.Metadata{
		CreatedAt:  createdAt,
		CreatedBy:  "cust-1",
		ModifiedBy: "owner-1",
	})

	assert.Equal(t, timezone.Format(createdAt, constant.DateFormat), metadata.CreatedAt)
	assert.Empty(t, metadata.ModifiedAt)
	assert.Equal(t, "cust-1", metadata.CreatedBy)
	assert.Equal(t, "owner-1", metadata.ModifiedBy)
}

func TestQueryParams_FromRequest(t *testing.T) {
	defaults := dto.QueryParams{Page: constant.DefaultValuePage, Limit: constant.DefaultValueLimit}

	tests := []struct {
		name         string
		query        string
		withDefaults bool
		want         dto.QueryParams
	}{
		{
			name:  "every parameter",
			query: "page=2&limit=20&sort_by=booking_date&sort_dir=ASC",
			want:  dto.QueryParams{Page: 2, Limit: 20, SortBy: "booking_date", SortDir: dto.SortDirAsc},
		},
		{
			name:  "lower case direction",
			query: "sort_dir=desc",
			want:  dto.QueryParams{SortDir: dto.SortDirDesc},
		},
		{
			name:  "unknown direction is ignored",
			query: "sort_dir=sideways",
		},
		{
			name:         "defaults when empty",
			withDefaults: true,
			want:         defaults,
		},
		{
			name: "no defaults when disabled",
		},
		{
			name:         "malformed page",
			query:        "page=first",
			withDefaults: true,
			want:         defaults,
		},
		{
			name:         "zero page and negative limit",
			query:        "page=0&limit=-10",
			withDefaults: true,
			want:         defaults,
		},
		{
			name:  "limit is capped",
			query: "limit=5000",
			want:  dto.QueryParams{Limit: dto.MaxLimit},
		},
		{
			name:         "partial with defaults",
			query:        "page=3&sort_by=created_at",
			withDefaults: true,
			want:         dto.QueryParams{Page: 3, Limit: constant.DefaultValueLimit, SortBy: "created_at"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var params dto.QueryParams

			params.FromRequest(httptest.NewRequest("GET", "/v1/bookings?"+tt.query, nil), tt.withDefaults)

			assert.Equal(t, tt.want, params)
		})
	}
}

func TestQueryParams_RestrictSortBy(t *testing.T) {
	tests := []struct {
		name    string
		params  dto.QueryParams
		allowed []string
		want    dto.QueryParams
	}{
		{
			name:    "allowed column keeps direction",
			params:  dto.QueryParams{SortBy: "booking_date", SortDir: dto.SortDirAsc},
			allowed: []string{"booking_date", "created_at"},
			want:    dto.QueryParams{SortBy: "booking_date", SortDir: dto.SortDirAsc},
		},
		{
			name:    "allowed column without direction defaults to DESC",
			params:  dto.QueryParams{SortBy: "created_at"},
			allowed: []string{"booking_date", "created_at"},
			want:    dto.QueryParams{SortBy: "created_at", SortDir: dto.SortDirDesc},
		},
		{
			name:    "unknown column is dropped",
			params:  dto.QueryParams{SortBy: "id; DROP TABLE bookings", SortDir: dto.SortDirAsc},
			allowed: []string{"booking_date"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.params.RestrictSortBy(tt.allowed...)

			assert.Equal(t, tt.want, tt.params)
		})
	}
}

func TestFilter_GetWhereClause(t *testing.T) {
	tests := []struct {
		name      string
		filter    dto.Filter
		wantWhere string
		wantArgs  map[string]any
	}{
		{
			name:      "greater or equal with arg name",
			filter:    dto.Filter{Field: "booking_date", ArgName: "date_from", Value: "2025-09-01", Operator: dto.FilterOperatorGreaterEq, Table: "bookings"},
			wantWhere: "bookings.booking_date >= :date_from",
			wantArgs:  map[string]any{"date_from": "2025-09-01"},
		},
		{
			name:      "like is case insensitive",
			filter:    dto.Filter{Field: "location", Value: "Labuan", Operator: dto.FilterOperatorLike},
			wantWhere: "LOWER(location) LIKE LOWER(:location)",
			wantArgs:  map[string]any{"location": "%Labuan%"},
		},
		{
			name:      "in with empty list matches nothing",
			filter:    dto.Filter{Field: "status", Value: []string{}, Operator: dto.FilterOperatorIn, Table: "bookings"},
			wantWhere: "FALSE",
			wantArgs:  map[string]any{},
		},
		{
			name:      "in with a single value",
			filter:    dto.Filter{Field: "status", Value: "Pending", Operator: dto.FilterOperatorIn},
			wantWhere: "status IN (:status_0)",
			wantArgs:  map[string]any{"status_0": "Pending"},
		},
		{
			name: "in select binds the inner value",
			filter: dto.Filter{
				Field:    "boat_id",
				Table:    "bookings",
				Operator: dto.FilterOperatorInSelect,
				Value: dto.SubQuery{
					Column: "id",
					Table:  "boats",
					Where:  dto.Filter{Field: "owner_id", ArgName: "owner", Value: "owner-1", Operator: dto.FilterOperatorEq, Table: "boats"},
				},
			},
			wantWhere: "bookings.boat_id IN (SELECT boats.id FROM boats WHERE boats.owner_id = :owner)",
			wantArgs:  map[string]any{"owner": "owner-1"},
		},
		{
			name:      "is null",
			filter:    dto.Filter{Field: "dispatched_at", Operator: dto.FilterIsNull},
			wantWhere: "dispatched_at IS NULL",
			wantArgs:  map[string]any{},
		},
		{
			name:      "is not null",
			filter:    dto.Filter{Field: "deleted_at", Operator: dto.FilterIsNotNull, Table: "bookings"},
			wantWhere: "bookings.deleted_at IS NOT NULL",
			wantArgs:  map[string]any{},
		},
		{
			name:      "unknown operator renders nothing",
			filter:    dto.Filter{Field: "status", Operator: "between"},
			wantWhere: "",
			wantArgs:  map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.GetWhereClause()

			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestFilterGroup_GetWhereClause(t *testing.T) {
	group := dto.FilterGroup{
		Filters: []any{
			dto.Filter{Field: "boat_id", Value: "boat-1", Operator: dto.FilterOperatorEq, Table: "bookings"},
			dto.Filter{Field: "is_deleted", Value: false, Operator: dto.FilterOperatorEq, Table: "bookings"},
			dto.Filter{Field: "status", Operator: "between"},
			dto.FilterGroup{
				Operator: dto.FilterGroupOperatorOr,
				Filters: []any{
					dto.Filter{Field: "status", Value: []string{"Pending", "Confirmed"}, Operator: dto.FilterOperatorIn, Table: "bookings"},
					dto.Filter{Field: "payment_status", Value: "Paid", Operator: dto.FilterOperatorEq, Table: "bookings"},
				},
			},
			"not a filter",
		},
	}

	where, args := group.GetWhereClause()

	assert.Equal(t,
		"(bookings.boat_id = :boat_id AND bookings.is_deleted = :is_deleted AND "+
			"(bookings.status IN (:status_0, :status_1) OR bookings.payment_status = :payment_status))",
		where,
	)
	assert.Equal(t, map[string]any{
		"boat_id":        "boat-1",
		"is_deleted":     false,
		"status_0":       "Pending",
		"status_1":       "Confirmed",
		"payment_status": "Paid",
	}, args)
}

func TestFilterGroup_Empty(t *testing.T) {
	where, args := (&dto.FilterGroup{}).GetWhereClause()

	assert.Empty(t, where)
	assert.Empty(t, args)
}
