package service

import (
	"context"
	"fmt"
	"marina/internal/domains/booking/model"
	"marina/internal/domains/booking/model/dto"
	"marina/internal/domains/booking/repository"
	"marina/shared"
	"marina/shared/constant"
	"marina/shared/failure"
	"marina/shared/timezone"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// SoftDelete only touches the four deletion fields. Deleting twice is a NotFound.
func (s *serviceImpl) SoftDelete(ctx context.Context, id string, req dto.DeleteBookingRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SoftDelete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	actor := shared.ActorFromContext(ctx)

	if !actor.IsOwner() && !actor.IsStaff() {
		return failure.ForbiddenError
	}

	if uuid.Validate(id) != nil {
		return failure.NotFound(msgBookingNotFound) // nolint:wrapcheck
	}

	err = s.transactor.WithTransaction(ctx, func(sqltx *sqlx.Tx) error {
		var applyErr error

		_, applyErr = s.applyDelete(ctx, sqltx, id, req.Reason)

		return applyErr
	})
	if err = txError(err, "delete booking"); err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to delete booking")

		return err
	}

	s.invalidate(ctx)

	return nil
}

func (s *serviceImpl) applyDelete(ctx context.Context, sqltx *sqlx.Tx, id string, reason *string) (model.Booking, error) {
	actor := shared.ActorFromContext(ctx)

	booking, boat, err := s.lockBooking(ctx, sqltx, id, false)
	if err != nil {
		return booking, err
	}

	if err = canManage(actor, booking, boat); err != nil {
		return booking, err
	}

	before := booking.Snapshot()
	now := timezone.Now()

	booking.IsDeleted = true
	booking.DeletedAt = &now
	booking.DeletedBy = &actor.ID
	booking.DeletionReason = reason

	req := map[string]any{
		model.FieldIsDeleted:      true,
		model.FieldDeletedAt:      now,
		model.FieldDeletedBy:      actor.ID,
		model.FieldDeletionReason: reason,
	}

	if err = s.repo.UpdateTx(ctx, sqltx, req, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); err != nil {
		return booking, fmt.Errorf("failed to soft delete booking: %w", err)
	}

	entry := model.NewHistoryEntry(booking.ID, model.ActionDeleted, before, booking.DeletionSnapshot(), actor.ID, reason, now)
	if err = s.history.InsertTx(ctx, sqltx, entry); err != nil {
		return booking, fmt.Errorf("failed to append booking history: %w", err)
	}

	return booking, nil
}

// Restore clears the deletion fields. A booking whose day was taken while it was deleted cannot come back.
func (s *serviceImpl) Restore(ctx context.Context, id string, req dto.RestoreBookingRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Restore")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	actor := shared.ActorFromContext(ctx)

	if !actor.IsOwner() && !actor.IsStaff() {
		return failure.ForbiddenError
	}

	if uuid.Validate(id) != nil {
		return failure.NotFound(msgBookingNotFound) // nolint:wrapcheck
	}

	err = s.transactor.WithTransaction(ctx, func(sqltx *sqlx.Tx) error {
		var applyErr error

		_, applyErr = s.applyRestore(ctx, sqltx, id, req.Reason)

		return applyErr
	})
	if err = txError(err, "restore booking"); err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to restore booking")

		return err
	}

	s.invalidate(ctx)

	return nil
}

func (s *serviceImpl) applyRestore(ctx context.Context, sqltx *sqlx.Tx, id string, reason *string) (model.Booking, error) {
	actor := shared.ActorFromContext(ctx)

	booking, boat, err := s.lockBooking(ctx, sqltx, id, true)
	if err != nil {
		return booking, err
	}

	if err = canManage(actor, booking, boat); err != nil {
		return booking, err
	}

	if booking.Status.Blocking() {
		taken, err := s.repo.ExistTx(ctx, sqltx, repository.BlockingFilter(booking.BoatID, timezone.FormatDay(booking.BookingDate)))
		if err != nil {
			return booking, fmt.Errorf("failed to check boat availability: %w", err)
		}

		if taken {
			return booking, failure.Conflict(msgBoatUnavailable) // nolint:wrapcheck
		}
	}

	before := booking.DeletionSnapshot()

	booking.IsDeleted = false
	booking.DeletedAt = nil
	booking.DeletedBy = nil
	booking.DeletionReason = nil

	req := map[string]any{
		model.FieldIsDeleted:      false,
		model.FieldDeletedAt:      nil,
		model.FieldDeletedBy:      nil,
		model.FieldDeletionReason: nil,
	}

	if err = s.repo.UpdateTx(ctx, sqltx, req, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); err != nil {
		return booking, fmt.Errorf("failed to restore booking: %w", err)
	}

	entry := model.NewHistoryEntry(booking.ID, model.ActionRestored, before, booking.DeletionSnapshot(), actor.ID, reason, timezone.Now())
	if err = s.history.InsertTx(ctx, sqltx, entry); err != nil {
		return booking, fmt.Errorf("failed to append booking history: %w", err)
	}

	return booking, nil
}

// GetHistory works for live and deleted bookings, newest entry first.
func (s *serviceImpl) GetHistory(ctx context.Context, id string) (res dto.GetHistoryResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetHistory")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if uuid.Validate(id) != nil {
		return res, failure.NotFound(msgBookingNotFound) // nolint:wrapcheck
	}

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound(msgBookingNotFound) // nolint:wrapcheck
	}

	if err = s.canView(ctx, shared.ActorFromContext(ctx), booking.CustomerID, booking.BoatID); err != nil {
		return res, err
	}

	entries, err := s.history.GetAll(ctx, booking.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking history")

		return res, fmt.Errorf("failed to get booking history: %w", err)
	}

	res.FromModels(entries)

	return res, nil
}
