package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"marina/config"
	otelMocks "marina/infras/otel/mocks"
	"marina/infras/postgres"
	postgresMocks "marina/infras/postgres/mocks"
	s3Mocks "marina/infras/s3/mocks"
	boatMocks "marina/internal/domains/boat/mocks"
	boatModel "marina/internal/domains/boat/model"
	bookingMocks "marina/internal/domains/booking/mocks"
	"marina/internal/domains/booking/model"
	"marina/internal/domains/booking/model/dto"
	"marina/internal/domains/booking/service"
	notificationMocks "marina/internal/domains/notification/mocks"
	userMocks "marina/internal/domains/user/mocks"
	userModel "marina/internal/domains/user/model"
	"marina/shared/cache"
	cacheMocks "marina/shared/cache/mocks"
	"marina/shared/constant"
	gDto "marina/shared/dto"
	"marina/shared/failure"
)

const (
	bookingID  = "0b6f1f5e-3c1a-4d8e-9a57-6a1f0d2e7c11"
	boatID     = "5a1d7a3e-2b4c-4f6d-8e9f-0a1b2c3d4e5f"
	ownerID    = "9c8b7a6d-5e4f-4a3b-2c1d-0e9f8a7b6c5d"
	customerID = "1f2e3d4c-5b6a-4798-8a6b-5c4d3e2f1a0b"
	otherID    = "2a3b4c5d-6e7f-4081-9a2b-3c4d5e6f7a8b"
	adminID    = "3b4c5d6e-7f80-4192-a3b4-c5d6e7f8a9b0"
)

var errDatabase = errors.New("database error")

type fixture struct {
	repo      *bookingMocks.MockBooking
	lineItems *bookingMocks.MockLineItem
	history   *bookingMocks.MockHistory
	boats     *boatMocks.MockBoat
	users     *userMocks.MockUser
	outbox    *notificationMocks.MockOutbox
	storage   *s3Mocks.MockStorage
	cache     *cacheMocks.MockRedisCache
	memory    *memoryCache
	svc       service.Booking
}

// memoryCache answers the cache calls a test does not stub itself.
type memoryCache struct {
	mu      sync.Mutex
	values  map[string][]byte
	failGet error
}

func (m *memoryCache) save(_ context.Context, key string, value any, _ int) error {
	payload, ok := value.(string)
	if !ok {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}

		payload = string(raw)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = []byte(payload)

	return nil
}

func (m *memoryCache) get(_ context.Context, key string, value any) error {
	m.mu.Lock()
	raw, ok := m.values[key]
	failGet := m.failGet
	m.mu.Unlock()

	if failGet != nil {
		return fmt.Errorf("failed to get cache value: %w", failGet)
	}

	if !ok {
		return fmt.Errorf("failed to get cache value: %w", cache.Nil)
	}

	if target, ok := value.(*string); ok {
		*target = string(raw)

		return nil
	}

	return json.Unmarshal(raw, value)
}

func (m *memoryCache) lookup(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok := m.values[key]

	return string(raw), ok
}

func newFixture(t *testing.T, transactor postgres.Transactor) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	if transactor == nil {
		transactor = postgresMocks.NewTransactor()
	}

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Booking.LockTTLSeconds = 5
	cfg.Booking.PaymentProofDir = "payment-proofs"

	f := &fixture{
		repo:      bookingMocks.NewMockBooking(ctrl),
		lineItems: bookingMocks.NewMockLineItem(ctrl),
		history:   bookingMocks.NewMockHistory(ctrl),
		boats:     boatMocks.NewMockBoat(ctrl),
		users:     userMocks.NewMockUser(ctrl),
		outbox:    notificationMocks.NewMockOutbox(ctrl),
		storage:   s3Mocks.NewMockStorage(ctrl),
		cache:     cacheMocks.NewMockRedisCache(ctrl),
		memory:    &memoryCache{values: map[string][]byte{}},
	}

	// read model saves run in goroutines
	f.cache.EXPECT().Get(gomock.Any(), "booking:version", gomock.Any()).DoAndReturn(f.memory.get).AnyTimes()
	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(f.memory.save).AnyTimes()
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.storage.EXPECT().ObjectKeyFromURL(gomock.Any()).Return("payment-proofs/old.png").AnyTimes()
	f.storage.EXPECT().DeleteFile(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	f.svc = service.New(
		f.repo,
		f.lineItems,
		f.history,
		f.boats,
		f.users,
		f.outbox,
		transactor,
		f.storage,
		cfg,
		f.cache,
		otelMocks.NewOtel(),
	)

	return f
}

func actorContext(id, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, id)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func sampleBooking(status model.Status, payment model.PaymentStatus) model.Booking {
	return model.Booking{
		ID:             bookingID,
		CustomerID:     customerID,
		BoatID:         boatID,
		BookingDate:    time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		BookingTime:    "09:00",
		Location:       "Pier 4",
		DurationOption: "half_day",
		Status:         status,
		PaymentMethod:  model.DefaultPaymentMethod,
		PaymentStatus:  payment,
		TotalPrice:     decimal.RequireFromString("150.50"),
	}
}

func sampleBoat(status boatModel.Status) boatModel.Boat {
	return boatModel.Boat{ID: boatID, OwnerID: ownerID, Name: "Sea Breeze", Status: status}
}

// expectNotification covers the customer lookup and the two queued outbox entries.
func (f *fixture) expectNotification() {
	f.users.EXPECT().FindByID(gomock.Any(), customerID).Return(userModel.User{ID: customerID, Name: "Dewi"}, nil)
	f.outbox.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Len(2)).Return(nil)
}

func assertFailureCode(t *testing.T, err error, code int) {
	t.Helper()

	assert.Error(t, err)
	assert.True(t, failure.IsFailure(err), "expected a failure, got %v", err)
	assert.Equal(t, code, failure.GetCode(err))
}

func TestBookingService_Get(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		id        string
		setupMock func(f *fixture)
		wantCode  int
		wantErr   bool
	}{
		{
			name: "owner reads a booking of their boat with line items",
			ctx:  actorContext(ownerID, constant.RoleOwner),
			id:   bookingID,
			setupMock: func(f *fixture) {
				f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(sampleBooking(model.StatusPending, model.PaymentStatusUnpaid), nil)
				f.boats.EXPECT().Get(gomock.Any(), gomock.Any()).Return(sampleBoat(boatModel.StatusAvailable), nil)
				f.lineItems.EXPECT().Get(gomock.Any(), bookingID).Return(model.LineItems{
					AddOns:  []model.AddOnLine{{AddOnID: addOnID, Quantity: 2}},
					Islands: []model.IslandLine{{IslandID: islandID}},
				}, nil)
			},
		},
		{
			name: "soft deleted booking is hidden",
			ctx:  actorContext(adminID, constant.RoleAdmin),
			id:   bookingID,
			setupMock: func(f *fixture) {
				deleted := sampleBooking(model.StatusPending, model.PaymentStatusUnpaid)
				deleted.IsDeleted = true

				f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(deleted, nil)
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "another customer is restricted",
			ctx:  actorContext(otherID, constant.RoleCustomer),
			id:   bookingID,
			setupMock: func(f *fixture) {
				f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(sampleBooking(model.StatusPending, model.PaymentStatusUnpaid), nil)
			},
			wantCode: http.StatusForbidden,
		},
		{
			name:      "malformed id is not found",
			ctx:       actorContext(adminID, constant.RoleAdmin),
			id:        "101",
			setupMock: func(_ *fixture) {},
			wantCode:  http.StatusNotFound,
		},
		{
			name: "repository error",
			ctx:  actorContext(adminID, constant.RoleAdmin),
			id:   bookingID,
			setupMock: func(f *fixture) {
				f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
				f.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, errDatabase)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			tt.setupMock(f)

			res, err := f.svc.Get(tt.ctx, tt.id)

			switch {
			case tt.wantCode != 0:
				assertFailureCode(t, err, tt.wantCode)
			case tt.wantErr:
				assert.Error(t, err)
				assert.False(t, failure.IsFailure(err))
			default:
				assert.NoError(t, err)
				assert.Equal(t, bookingID, res.ID)
				assert.Equal(t, "2025-09-01", res.BookingDate)
				assert.Equal(t, []dto.LineItemResponse{{ID: addOnID, Quantity: 2}}, res.AddOns)
				assert.Equal(t, []string{islandID}, res.Islands)
			}
		})
	}
}

func TestBookingService_GetAllScopesToActor(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		wantWhere string
		wantCode  int
	}{
		{
			name:      "customer sees own bookings",
			ctx:       actorContext(customerID, constant.RoleCustomer),
			wantWhere: "bookings.customer_id = :scope_customer_id",
		},
		{
			name:      "owner sees bookings of own boats",
			ctx:       actorContext(ownerID, constant.RoleOwner),
			wantWhere: "bookings.boat_id IN (SELECT boats.id FROM boats WHERE boats.owner_id = :scope_owner_id)",
		},
		{
			name:      "admin sees everything",
			ctx:       actorContext(adminID, constant.RoleAdmin),
			wantWhere: "(bookings.is_deleted = :is_deleted)",
		},
		{
			name:     "unknown role is forbidden",
			ctx:      actorContext(otherID, "guest"),
			wantCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			params := gDto.QueryParams{Page: 1, Limit: 10}

			if tt.wantCode == 0 {
				f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss")).Times(2)
				f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (int, error) {
						where, _ := filter.GetWhereClause()
						assert.True(t, strings.Contains(where, tt.wantWhere), where)

						return 1, nil
					})
				f.repo.EXPECT().GetAll(gomock.Any(), params, gomock.Any()).
					Return([]model.Booking{sampleBooking(model.StatusPending, model.PaymentStatusUnpaid)}, nil)
			}

			res, err := f.svc.GetAll(tt.ctx, params, dto.ListFilter{})

			if tt.wantCode != 0 {
				assertFailureCode(t, err, tt.wantCode)

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, 1, res.TotalData)
			assert.Len(t, res.Bookings, 1)
		})
	}
}

func TestBookingService_GetDeleted(t *testing.T) {
	f := newFixture(t, nil)
	params := gDto.QueryParams{Page: 1, Limit: 10}

	deleted := sampleBooking(model.StatusConfirmed, model.PaymentStatusPaid)
	deleted.IsDeleted = true

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss")).Times(2)
	f.repo.EXPECT().Count(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (int, error) {
			_, args := filter.GetWhereClause()
			assert.Equal(t, true, args[model.FieldIsDeleted])

			return 1, nil
		})
	f.repo.EXPECT().GetAll(gomock.Any(), params, gomock.Any()).Return([]model.Booking{deleted}, nil)

	res, err := f.svc.GetDeleted(actorContext(adminID, constant.RoleAdmin), params, dto.ListFilter{})

	assert.NoError(t, err)
	assert.True(t, res.Bookings[0].IsDeleted)
}

func TestBookingService_IsAvailable(t *testing.T) {
	tests := []struct {
		name      string
		boatID    string
		date      string
		setupMock func(f *fixture)
		want      bool
		wantCode  int
		wantErr   bool
	}{
		{
			name:   "free date",
			boatID: boatID,
			date:   "2025-09-01",
			setupMock: func(f *fixture) {
				f.repo.EXPECT().ExistWrite(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (bool, error) {
						where, args := filter.GetWhereClause()
						assert.Contains(t, where, "bookings.status IN")
						assert.Equal(t, false, args[model.FieldIsDeleted])
						assert.Equal(t, "2025-09-01", args[model.FieldBookingDate])

						return false, nil
					})
			},
			want: true,
		},
		{
			name:   "blocked date",
			boatID: boatID,
			date:   "2025-09-01",
			setupMock: func(f *fixture) {
				f.repo.EXPECT().ExistWrite(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			want: false,
		},
		{
			name:      "malformed date",
			boatID:    boatID,
			date:      "01/09/2025",
			setupMock: func(_ *fixture) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "malformed boat id",
			boatID:    "B1",
			date:      "2025-09-01",
			setupMock: func(_ *fixture) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:   "storage unavailable",
			boatID: boatID,
			date:   "2025-09-01",
			setupMock: func(f *fixture) {
				f.repo.EXPECT().ExistWrite(gomock.Any(), gomock.Any()).Return(false, errDatabase)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			tt.setupMock(f)

			available, err := f.svc.IsAvailable(context.Background(), tt.boatID, tt.date)

			switch {
			case tt.wantCode != 0:
				assertFailureCode(t, err, tt.wantCode)
			case tt.wantErr:
				assert.Error(t, err)
				assert.False(t, failure.IsFailure(err))
			default:
				assert.NoError(t, err)
				assert.Equal(t, tt.want, available)
			}
		})
	}
}

func TestBookingService_UnavailableDates(t *testing.T) {
	t.Run("cache hit skips the ledger", func(t *testing.T) {
		f := newFixture(t, nil)

		f.cache.EXPECT().Get(gomock.Any(), "booking:unavailable:initial:"+boatID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, value any) error {
				*(value.(*[]string)) = []string{"2025-09-01"}

				return nil
			})

		dates, err := f.svc.UnavailableDates(context.Background(), boatID)

		assert.NoError(t, err)
		assert.Equal(t, []string{"2025-09-01"}, dates)
	})

	t.Run("cache miss reads the ledger", func(t *testing.T) {
		f := newFixture(t, nil)

		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		f.repo.EXPECT().UnavailableDates(gomock.Any(), boatID).Return([]string{"2025-09-01", "2025-09-03"}, nil)

		dates, err := f.svc.UnavailableDates(context.Background(), boatID)

		assert.NoError(t, err)
		assert.Equal(t, []string{"2025-09-01", "2025-09-03"}, dates)
	})

	t.Run("unreadable cache version reads the ledger and saves nothing", func(t *testing.T) {
		f := newFixture(t, nil)
		f.memory.failGet = errors.New("connection refused")

		f.repo.EXPECT().UnavailableDates(gomock.Any(), boatID).Return([]string{"2025-09-01"}, nil)

		dates, err := f.svc.UnavailableDates(context.Background(), boatID)

		assert.NoError(t, err)
		assert.Equal(t, []string{"2025-09-01"}, dates)

		f.memory.mu.Lock()
		assert.Empty(t, f.memory.values)
		f.memory.mu.Unlock()
	})

	t.Run("storage error", func(t *testing.T) {
		f := newFixture(t, nil)

		f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		f.repo.EXPECT().UnavailableDates(gomock.Any(), boatID).Return(nil, errDatabase)

		_, err := f.svc.UnavailableDates(context.Background(), boatID)

		assert.ErrorIs(t, err, errDatabase)
	})
}

// A read that loaded its dates before a create may save them after the create returns. The
// create retires the version those dates were keyed under, so the next read goes to the ledger.
func TestBookingService_UnavailableDatesAfterCreate(t *testing.T) {
	f := newFixture(t, nil)
	customer := actorContext(customerID, constant.RoleCustomer)

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(f.memory.get).AnyTimes()
	gomock.InOrder(
		f.repo.EXPECT().UnavailableDates(gomock.Any(), boatID).Return([]string{}, nil),
		f.repo.EXPECT().UnavailableDates(gomock.Any(), boatID).Return([]string{"2025-09-01"}, nil),
	)

	before, err := f.svc.UnavailableDates(customer, boatID)
	require.NoError(t, err)
	assert.Empty(t, before)

	f.boats.EXPECT().Get(gomock.Any(), gomock.Any()).Return(sampleBoat(boatModel.StatusAvailable), nil)
	f.repo.EXPECT().ExistWrite(gomock.Any(), gomock.Any()).Return(false, nil)
	f.cache.EXPECT().AcquireLock(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	f.cache.EXPECT().ReleaseLock(gomock.Any(), gomock.Any()).Return(nil)
	f.expectInsert(t, func(model.Booking) {})

	_, err = f.svc.Create(customer, createRequest())
	require.NoError(t, err)

	version, rotated := f.memory.lookup("booking:version")
	require.True(t, rotated, "create must retire cached views before it returns")
	assert.NotEqual(t, "initial", version)

	stale := "booking:unavailable:initial:" + boatID
	require.NoError(t, f.memory.save(context.Background(), stale, []string{}, 3600))

	after, err := f.svc.UnavailableDates(customer, boatID)

	assert.NoError(t, err)
	assert.Equal(t, []string{"2025-09-01"}, after)
}
