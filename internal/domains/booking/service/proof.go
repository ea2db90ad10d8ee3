package service

import (
	"context"
	"fmt"
	"marina/internal/domains/booking/model"
	"marina/internal/domains/booking/model/dto"
	"marina/shared"
	"marina/shared/base64"
	"marina/shared/constant"
	"marina/shared/failure"
	"marina/shared/timezone"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

var proofExtensions = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// UploadPaymentProof stores the file in object storage and points the booking at it.
// The previous proof object is removed once the new reference is committed.
func (s *serviceImpl) UploadPaymentProof(ctx context.Context, id string, req dto.UploadPaymentProofRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UploadPaymentProof")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	actor := shared.ActorFromContext(ctx)

	if uuid.Validate(id) != nil {
		return res, failure.NotFound(msgBookingNotFound) // nolint:wrapcheck
	}

	current, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if current.ID == constant.Empty || current.IsDeleted {
		return res, failure.NotFound(msgBookingNotFound) // nolint:wrapcheck
	}

	if err = s.canView(ctx, actor, current.CustomerID, current.BoatID); err != nil {
		return res, err
	}

	contentType, data, err := base64.Decode(req.File)
	if err != nil {
		return res, failure.BadRequest(err) // nolint:wrapcheck
	}

	extension, ok := proofExtensions[contentType]
	if !ok {
		return res, failure.BadRequestFromString(fmt.Sprintf("unsupported payment proof type %s", contentType)) // nolint:wrapcheck
	}

	fileName := fmt.Sprintf("%s-%s%s", id, uuid.NewString(), extension)

	url, err := s.storage.UploadFileBytes(ctx, s.cfg.Booking.PaymentProofDir, fileName, contentType, data)
	if err != nil {
		log.Error().Err(err).Msg("failed to upload payment proof")

		return res, fmt.Errorf("failed to upload payment proof: %w", err)
	}

	var (
		booking  model.Booking
		previous *string
	)

	err = s.transactor.WithTransaction(ctx, func(sqltx *sqlx.Tx) error {
		var applyErr error

		booking, previous, applyErr = s.applyProof(ctx, sqltx, id, url)

		return applyErr
	})
	if err = txError(err, "store payment proof"); err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to store payment proof")
		s.removeProof(ctx, url)

		return res, err
	}

	if previous != nil && *previous != url {
		s.removeProof(ctx, *previous)
	}

	s.invalidate(ctx)

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) applyProof(ctx context.Context, sqltx *sqlx.Tx, id, url string) (model.Booking, *string, error) {
	actor := shared.ActorFromContext(ctx)

	booking, err := s.repo.GetForUpdateTx(ctx, sqltx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		return booking, nil, fmt.Errorf("failed to lock booking: %w", err)
	}

	if booking.ID == constant.Empty || booking.IsDeleted {
		return booking, nil, failure.NotFound(msgBookingNotFound) // nolint:wrapcheck
	}

	now := timezone.Now()
	req := map[string]any{
		model.FieldPaymentProof:  url,
		constant.FieldModifiedAt: now,
		constant.FieldModifiedBy: actor.ID,
	}

	if err = s.repo.UpdateTx(ctx, sqltx, req, shared.FilterByID(booking.ID, model.FieldID, model.TableName)); err != nil {
		return booking, nil, fmt.Errorf("failed to update payment proof: %w", err)
	}

	oldValues := model.Snapshot{model.FieldPaymentProof: nil}
	if booking.PaymentProof != nil {
		oldValues[model.FieldPaymentProof] = *booking.PaymentProof
	}

	entry := model.NewHistoryEntry(
		booking.ID,
		model.ActionPaymentUpdated,
		oldValues,
		model.Snapshot{model.FieldPaymentProof: url},
		actor.ID,
		nil,
		now,
	)
	if err = s.history.InsertTx(ctx, sqltx, entry); err != nil {
		return booking, nil, fmt.Errorf("failed to append booking history: %w", err)
	}

	previous := booking.PaymentProof
	booking.PaymentProof = &url
	booking.ModifiedAt = now
	booking.ModifiedBy = actor.ID

	return booking, previous, nil
}

func (s *serviceImpl) removeProof(ctx context.Context, url string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.storage.DeleteFile(c, s.storage.ObjectKeyFromURL(url)); err != nil {
			log.Error().Err(err).Str("url", url).Msg("failed to delete payment proof")
		}
	}()
}
