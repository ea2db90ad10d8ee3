package service

import (
	"context"
	"fmt"
	"marina/internal/domains/booking/repository"
	"marina/shared"
	"marina/shared/constant"
	"marina/shared/failure"
	"marina/shared/timezone"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// IsAvailable reads the ledger on the write pool. Only the date is compared, booking time and duration are ignored.
func (s *serviceImpl) IsAvailable(ctx context.Context, boatID, date string) (available bool, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".IsAvailable")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if uuid.Validate(boatID) != nil {
		return false, failure.BadRequestFromString(msgInvalidBoatID) // nolint:wrapcheck
	}

	day, err := timezone.ParseDay(date)
	if err != nil {
		return false, failure.BadRequestFromString("date must use the YYYY-MM-DD format") // nolint:wrapcheck
	}

	blocked, err := s.repo.ExistWrite(ctx, repository.BlockingFilter(boatID, timezone.FormatDay(day)))
	if err != nil {
		log.Error().Err(err).Msg("failed to check boat availability")

		return false, fmt.Errorf("failed to check boat availability: %w", err)
	}

	return !blocked, nil
}

func (s *serviceImpl) UnavailableDates(ctx context.Context, boatID string) (res []string, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".UnavailableDates")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if uuid.Validate(boatID) != nil {
		return nil, failure.BadRequestFromString(msgInvalidBoatID) // nolint:wrapcheck
	}

	version, cached := s.viewVersion(ctx)
	cacheKey := shared.BuildCacheKey(cacheUnavailableDates, version, boatID)

	if cached {
		if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
			log.Info().Str("cacheKey", cacheKey).Msg("cache hit for unavailable dates")

			return res, nil
		}
	}

	res, err = s.repo.UnavailableDates(ctx, boatID)
	if err != nil {
		log.Error().Err(err).Msg("failed to get unavailable dates")

		return nil, fmt.Errorf("failed to get unavailable dates: %w", err)
	}

	if !cached {
		return res, nil
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save unavailable dates to cache")
		}
	}()

	return res, nil
}
