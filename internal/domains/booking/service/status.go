package service

import (
	"context"
	"fmt"
	boatModel "marina/internal/domains/boat/model"
	"marina/internal/domains/booking/model"
	"marina/internal/domains/booking/model/dto"
	notificationModel "marina/internal/domains/notification/model"
	"marina/shared"
	"marina/shared/constant"
	"marina/shared/failure"
	"marina/shared/timezone"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// SetStatus moves a live booking along the status machine and cascades the boat status.
// Requesting the current status only applies an explicit payment status that differs.
func (s *serviceImpl) SetStatus(ctx context.Context, id string, req dto.SetStatusRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SetStatus")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	actor := shared.ActorFromContext(ctx)

	status, err := model.ParseStatus(req.Status)
	if err != nil {
		return res, failure.BadRequest(err) // nolint:wrapcheck
	}

	if actor.IsCustomer() && (status != model.StatusCancelled || req.PaymentStatus != constant.Empty) {
		return res, failure.ForbiddenError
	}

	if !actor.IsCustomer() && !actor.IsOwner() && !actor.IsStaff() {
		return res, failure.ForbiddenError
	}

	var explicitPayment model.PaymentStatus
	if req.PaymentStatus != constant.Empty {
		if explicitPayment, err = model.ParsePaymentStatus(req.PaymentStatus); err != nil {
			return res, failure.BadRequest(err) // nolint:wrapcheck
		}
	}

	if uuid.Validate(id) != nil {
		return res, failure.NotFound(msgBookingNotFound) // nolint:wrapcheck
	}

	var (
		booking model.Booking
		changed bool
	)

	err = s.transactor.WithTransaction(ctx, func(sqltx *sqlx.Tx) error {
		var applyErr error

		booking, changed, applyErr = s.applyStatus(ctx, sqltx, id, status, explicitPayment, req.Reason)

		return applyErr
	})
	if err = txError(err, "set booking status"); err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to set booking status")

		return res, err
	}

	if changed {
		s.invalidate(ctx)
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) applyStatus(
	ctx context.Context,
	sqltx *sqlx.Tx,
	id string,
	status model.Status,
	explicitPayment model.PaymentStatus,
	reason *string,
) (model.Booking, bool, error) {
	actor := shared.ActorFromContext(ctx)

	booking, boat, err := s.lockBooking(ctx, sqltx, id, false)
	if err != nil {
		return booking, false, err
	}

	if err = canManage(actor, booking, boat); err != nil {
		return booking, false, err
	}

	if booking.Status == status {
		if explicitPayment == constant.Empty {
			return booking, false, nil
		}

		return s.writePayment(ctx, sqltx, booking, boat, explicitPayment)
	}

	if !booking.Status.CanTransitionTo(status) {
		return booking, false, failure.BadRequestFromString( // nolint:wrapcheck
			fmt.Sprintf("cannot change booking status from %s to %s", booking.Status, status),
		)
	}

	payment := booking.PaymentStatus
	switch {
	case explicitPayment != constant.Empty:
		payment = explicitPayment
	case status == model.StatusConfirmed:
		payment = model.PaymentStatusPaid
	}

	now := timezone.Now()
	req := map[string]any{
		model.FieldStatus:        status,
		model.FieldPaymentStatus: payment,
		constant.FieldModifiedAt: now,
		constant.FieldModifiedBy: actor.ID,
	}

	if err = s.repo.UpdateTx(ctx, sqltx, req, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); err != nil {
		return booking, false, fmt.Errorf("failed to update booking status: %w", err)
	}

	oldValues := model.Snapshot{model.FieldStatus: booking.Status.String(), model.FieldPaymentStatus: booking.PaymentStatus.String()}
	newValues := model.Snapshot{model.FieldStatus: status.String(), model.FieldPaymentStatus: payment.String()}

	entry := model.NewHistoryEntry(booking.ID, model.ActionStatusChanged, oldValues, newValues, actor.ID, reason, now)
	if err = s.history.InsertTx(ctx, sqltx, entry); err != nil {
		return booking, false, fmt.Errorf("failed to append booking history: %w", err)
	}

	booking.Status = status
	booking.PaymentStatus = payment
	booking.ModifiedAt = now
	booking.ModifiedBy = actor.ID

	if boat, err = s.cascadeBoat(ctx, sqltx, boat, status, actor.ID); err != nil {
		return booking, false, err
	}

	if err = s.notify(ctx, sqltx, notificationModel.EventBookingStatusChanged, booking, boat); err != nil {
		return booking, false, err
	}

	return booking, true, nil
}

// SetPaymentStatus is independent of the booking status. Setting the current value is a no-op.
func (s *serviceImpl) SetPaymentStatus(ctx context.Context, id string, req dto.SetPaymentStatusRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SetPaymentStatus")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	actor := shared.ActorFromContext(ctx)

	payment, err := model.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		return res, failure.BadRequest(err) // nolint:wrapcheck
	}

	if !actor.IsOwner() && !actor.IsStaff() {
		return res, failure.ForbiddenError
	}

	if uuid.Validate(id) != nil {
		return res, failure.NotFound(msgBookingNotFound) // nolint:wrapcheck
	}

	var (
		booking model.Booking
		changed bool
	)

	err = s.transactor.WithTransaction(ctx, func(sqltx *sqlx.Tx) error {
		var applyErr error

		booking, changed, applyErr = s.applyPayment(ctx, sqltx, id, payment)

		return applyErr
	})
	if err = txError(err, "set payment status"); err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to set payment status")

		return res, err
	}

	if changed {
		s.invalidate(ctx)
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) applyPayment(ctx context.Context, sqltx *sqlx.Tx, id string, payment model.PaymentStatus) (model.Booking, bool, error) {
	actor := shared.ActorFromContext(ctx)

	booking, boat, err := s.lockBooking(ctx, sqltx, id, false)
	if err != nil {
		return booking, false, err
	}

	if err = canManage(actor, booking, boat); err != nil {
		return booking, false, err
	}

	return s.writePayment(ctx, sqltx, booking, boat, payment)
}

// writePayment records a payment status change of a locked booking. Setting the current value
// changes nothing.
func (s *serviceImpl) writePayment(
	ctx context.Context,
	sqltx *sqlx.Tx,
	booking model.Booking,
	boat boatModel.Boat,
	payment model.PaymentStatus,
) (model.Booking, bool, error) {
	actor := shared.ActorFromContext(ctx)

	if booking.PaymentStatus == payment {
		return booking, false, nil
	}

	now := timezone.Now()
	req := map[string]any{
		model.FieldPaymentStatus: payment,
		constant.FieldModifiedAt: now,
		constant.FieldModifiedBy: actor.ID,
	}

	if err := s.repo.UpdateTx(ctx, sqltx, req, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); err != nil {
		return booking, false, fmt.Errorf("failed to update payment status: %w", err)
	}

	entry := model.NewHistoryEntry(
		booking.ID,
		model.ActionPaymentUpdated,
		model.Snapshot{model.FieldPaymentStatus: booking.PaymentStatus.String()},
		model.Snapshot{model.FieldPaymentStatus: payment.String()},
		actor.ID,
		nil,
		now,
	)
	if err := s.history.InsertTx(ctx, sqltx, entry); err != nil {
		return booking, false, fmt.Errorf("failed to append booking history: %w", err)
	}

	booking.PaymentStatus = payment
	booking.ModifiedAt = now
	booking.ModifiedBy = actor.ID

	if err := s.notify(ctx, sqltx, notificationModel.EventPaymentStatusChanged, booking, boat); err != nil {
		return booking, false, err
	}

	return booking, true, nil
}
