package service

import (
	"context"
	"fmt"
	boatModel "marina/internal/domains/boat/model"
	"marina/internal/domains/booking/model"
	"marina/internal/domains/booking/model/dto"
	"marina/internal/domains/booking/repository"
	notificationModel "marina/internal/domains/notification/model"
	"marina/shared"
	"marina/shared/constant"
	"marina/shared/failure"
	"marina/shared/timezone"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const defaultLockTTLSeconds = 10

// Create writes the booking, its line items, the created history entry and the queued notifications in one transaction.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (id string, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	actor := shared.ActorFromContext(ctx)

	customerID, err := s.resolveCustomer(ctx, actor, req.CustomerID)
	if err != nil {
		return constant.Empty, err
	}

	if actor.IsCustomer() && !req.RequestsInitialStatus() {
		return constant.Empty, failure.ForbiddenError
	}

	booking, items, err := req.ToModel(customerID, actor.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to parse booking request")

		return constant.Empty, failure.BadRequestFromString(fmt.Sprintf("invalid booking request: %v", err)) // nolint:wrapcheck
	}

	if booking.TotalPrice.IsNegative() {
		return constant.Empty, failure.BadRequestFromString("total_price must not be negative") // nolint:wrapcheck
	}

	boat, err := s.boatRepo.Get(ctx, shared.FilterByID(booking.BoatID, boatModel.FieldID, boatModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get boat")

		return constant.Empty, fmt.Errorf("failed to get boat: %w", err)
	}

	if boat.ID == constant.Empty {
		return constant.Empty, failure.BadRequestFromString(msgBoatNotExist) // nolint:wrapcheck
	}

	if actor.IsOwner() && boat.OwnerID != actor.ID {
		return constant.Empty, failure.ResourceRestrictedError
	}

	day := timezone.FormatDay(booking.BookingDate)

	if booking.Blocks() {
		available, err := s.IsAvailable(ctx, booking.BoatID, day)
		if err != nil {
			return constant.Empty, err
		}

		if !available {
			return constant.Empty, failure.Conflict(msgBoatUnavailable) // nolint:wrapcheck
		}

		release, err := s.acquireDayLock(ctx, booking.BoatID, day)
		if err != nil {
			return constant.Empty, err
		}
		defer release()
	}

	err = s.transactor.WithTransaction(ctx, func(sqltx *sqlx.Tx) error {
		return s.insertBooking(ctx, sqltx, booking, items, actor.ID)
	})
	if err = txError(err, "create booking"); err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		return constant.Empty, err
	}

	s.invalidate(ctx)

	return booking.ID, nil
}

func (s *serviceImpl) insertBooking(ctx context.Context, sqltx *sqlx.Tx, booking model.Booking, items model.LineItems, actorID string) error {
	boat, err := s.boatRepo.GetForUpdateTx(ctx, sqltx, shared.FilterByID(booking.BoatID, boatModel.FieldID, boatModel.TableName))
	if err != nil {
		return fmt.Errorf("failed to lock boat: %w", err)
	}

	if booking.Blocks() {
		taken, err := s.repo.ExistTx(ctx, sqltx, repository.BlockingFilter(booking.BoatID, timezone.FormatDay(booking.BookingDate)))
		if err != nil {
			return fmt.Errorf("failed to check boat availability: %w", err)
		}

		if taken {
			return failure.Conflict(msgBoatUnavailable) // nolint:wrapcheck
		}
	}

	if err = s.repo.InsertTx(ctx, sqltx, booking); err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err = s.lineItems.InsertTx(ctx, sqltx, items); err != nil {
		return fmt.Errorf("failed to insert booking line items: %w", err)
	}

	entry := model.NewHistoryEntry(booking.ID, model.ActionCreated, nil, booking.Snapshot(), actorID, nil, booking.CreatedAt)
	if err = s.history.InsertTx(ctx, sqltx, entry); err != nil {
		return fmt.Errorf("failed to append booking history: %w", err)
	}

	if booking.Status != model.StatusPending {
		if boat, err = s.cascadeBoat(ctx, sqltx, boat, booking.Status, actorID); err != nil {
			return err
		}
	}

	return s.notify(ctx, sqltx, notificationModel.EventBookingCreated, booking, boat)
}

// resolveCustomer picks the customer a booking is made for. Customers always book for themselves.
func (s *serviceImpl) resolveCustomer(ctx context.Context, actor shared.Actor, requested string) (string, error) {
	switch {
	case actor.IsCustomer():
		return actor.ID, nil
	case actor.IsOwner() || actor.IsStaff():
		if requested == constant.Empty {
			return constant.Empty, failure.BadRequestFromString("customer_id is required") // nolint:wrapcheck
		}
	default:
		return constant.Empty, failure.ForbiddenError
	}

	isCustomer, err := s.userRepo.IsCustomer(ctx, requested)
	if err != nil {
		log.Error().Err(err).Msg("failed to check customer")

		return constant.Empty, fmt.Errorf("failed to check customer: %w", err)
	}

	if !isCustomer {
		return constant.Empty, failure.BadRequestFromString(msgCustomerNotExist) // nolint:wrapcheck
	}

	return requested, nil
}

// acquireDayLock serializes creation per boat and day. When redis is unreachable the
// unique index on active bookings still rejects the second writer.
func (s *serviceImpl) acquireDayLock(ctx context.Context, boatID, day string) (func(), error) {
	ttl := s.cfg.Booking.LockTTLSeconds
	if ttl <= 0 {
		ttl = defaultLockTTLSeconds
	}

	key := shared.BuildCacheKey(cacheLock, boatID, day)

	acquired, err := s.cache.AcquireLock(ctx, key, ttl)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to acquire booking lock, relying on unique index")

		return func() {}, nil
	}

	if !acquired {
		return nil, failure.Conflict(msgBoatUnavailable) // nolint:wrapcheck
	}

	return func() {
		if err := s.cache.ReleaseLock(context.WithoutCancel(ctx), key); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to release booking lock")
		}
	}, nil
}
