package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Booking=MockBookingService

import (
	"context"
	"errors"
	"fmt"
	"marina/config"
	"marina/infras/otel"
	"marina/infras/postgres"
	"marina/infras/s3"
	boatModel "marina/internal/domains/boat/model"
	boatRepo "marina/internal/domains/boat/repository"
	"marina/internal/domains/booking/model"
	"marina/internal/domains/booking/model/dto"
	"marina/internal/domains/booking/repository"
	notificationModel "marina/internal/domains/notification/model"
	notificationRepo "marina/internal/domains/notification/repository"
	userRepo "marina/internal/domains/user/repository"
	"marina/shared"
	"marina/shared/cache"
	"marina/shared/constant"
	gDto "marina/shared/dto"
	"marina/shared/failure"
	"marina/shared/timezone"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const (
	cacheGetBooking       = "booking:get"
	cacheGetAllBooking    = "booking:gets"
	cacheCountBooking     = "booking:count"
	cacheUnavailableDates = "booking:unavailable"
	cacheVersion          = "booking:version"
	cacheLock             = "booking:lock"

	initialCacheVersion = "initial"
)

const (
	msgBookingNotFound  = "booking not found"
	msgBoatUnavailable  = "boat not available on selected date"
	msgBoatNotExist     = "boat does not exist"
	msgCustomerNotExist = "customer does not exist"
	msgInvalidBoatID    = "invalid boat id"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (string, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter dto.ListFilter) (dto.GetBookingsResponse, error)
	GetDeleted(ctx context.Context, req gDto.QueryParams, filter dto.ListFilter) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)

	IsAvailable(ctx context.Context, boatID, date string) (bool, error)
	UnavailableDates(ctx context.Context, boatID string) ([]string, error)

	SetStatus(ctx context.Context, id string, req dto.SetStatusRequest) (dto.BookingResponse, error)
	SetPaymentStatus(ctx context.Context, id string, req dto.SetPaymentStatusRequest) (dto.BookingResponse, error)
	UploadPaymentProof(ctx context.Context, id string, req dto.UploadPaymentProofRequest) (dto.BookingResponse, error)

	SoftDelete(ctx context.Context, id string, req dto.DeleteBookingRequest) error
	Restore(ctx context.Context, id string, req dto.RestoreBookingRequest) error
	GetHistory(ctx context.Context, id string) (dto.GetHistoryResponse, error)
}

type serviceImpl struct {
	repo       repository.Booking
	lineItems  repository.LineItem
	history    repository.History
	boatRepo   boatRepo.Boat
	userRepo   userRepo.User
	outbox     notificationRepo.Outbox
	transactor postgres.Transactor
	storage    s3.Storage
	cfg        *config.Config
	cache      cache.RedisCache
	otel       otel.Otel
}

func New(
	repo repository.Booking,
	lineItems repository.LineItem,
	history repository.History,
	boatRepo boatRepo.Boat,
	userRepo userRepo.User,
	outbox notificationRepo.Outbox,
	transactor postgres.Transactor,
	storage s3.Storage,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:       repo,
		lineItems:  lineItems,
		history:    history,
		boatRepo:   boatRepo,
		userRepo:   userRepo,
		outbox:     outbox,
		transactor: transactor,
		storage:    storage,
		cfg:        cfg,
		cache:      cache,
		otel:       otel,
	}
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if uuid.Validate(id) != nil {
		return res, failure.NotFound(msgBookingNotFound) // nolint:wrapcheck
	}

	actor := shared.ActorFromContext(ctx)
	version, cached := s.viewVersion(ctx)
	cacheKey := shared.BuildCacheKey(cacheGetBooking, version, id)

	if cached {
		if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
			log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")

			return res, s.canView(ctx, actor, res.CustomerID, res.BoatID)
		}
	}

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty || booking.IsDeleted {
		return res, failure.NotFound(msgBookingNotFound) // nolint:wrapcheck
	}

	if err = s.canView(ctx, actor, booking.CustomerID, booking.BoatID); err != nil {
		return res, err
	}

	items, err := s.lineItems.Get(ctx, booking.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking line items")

		return res, fmt.Errorf("failed to get booking line items: %w", err)
	}

	res.FromModel(booking)
	res.WithLineItems(items)

	if !cached {
		return res, nil
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}()

	return res, nil
}

// GetAll lists live bookings visible to the caller.
func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter dto.ListFilter) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return s.list(ctx, req, filter.ToFilterGroup(false))
}

// GetDeleted lists soft-deleted bookings visible to the caller.
func (s *serviceImpl) GetDeleted(ctx context.Context, req gDto.QueryParams, filter dto.ListFilter) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetDeleted")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return s.list(ctx, req, filter.ToFilterGroup(true))
}

func (s *serviceImpl) list(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	filter, err = scopeToActor(shared.ActorFromContext(ctx), filter)
	if err != nil {
		return res, err
	}

	version, cached := s.viewVersion(ctx)
	cacheKey := shared.BuildCacheKeyWithQuery(shared.BuildCacheKey(cacheGetAllBooking, version), req, filter)

	if cached {
		if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
			log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

			return res, nil
		}
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	if !cached {
		return res, nil
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	version, cached := s.viewVersion(ctx)
	cacheKey := shared.BuildCacheKeyWithQuery(shared.BuildCacheKey(cacheCountBooking, version), req, filter)

	if cached {
		if err = s.cache.Get(ctx, cacheKey, &res); err == nil {
			log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking count")

			return res, nil
		}
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	if !cached {
		return res, nil
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

// scopeToActor narrows a listing to the caller: customers see their bookings, owners the bookings of their boats.
func scopeToActor(actor shared.Actor, filter gDto.FilterGroup) (gDto.FilterGroup, error) {
	switch {
	case actor.IsStaff():
		return filter, nil
	case actor.IsCustomer():
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field:    model.FieldCustomerID,
			ArgName:  "scope_customer_id",
			Operator: gDto.FilterOperatorEq,
			Value:    actor.ID,
			Table:    model.TableName,
		})

		return filter, nil
	case actor.IsOwner():
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field:    model.FieldBoatID,
			Operator: gDto.FilterOperatorInSelect,
			Table:    model.TableName,
			Value: gDto.SubQuery{
				Column: boatModel.FieldID,
				Table:  boatModel.TableName,
				Where: gDto.Filter{
					Field:    boatModel.FieldOwnerID,
					ArgName:  "scope_owner_id",
					Operator: gDto.FilterOperatorEq,
					Value:    actor.ID,
					Table:    boatModel.TableName,
				},
			},
		})

		return filter, nil
	default:
		return filter, failure.ForbiddenError
	}
}

// canView reports whether actor may read a booking of customerID on boatID.
func (s *serviceImpl) canView(ctx context.Context, actor shared.Actor, customerID, boatID string) error {
	switch {
	case actor.IsStaff():
		return nil
	case actor.IsCustomer():
		if customerID == actor.ID {
			return nil
		}
	case actor.IsOwner():
		boat, err := s.boatRepo.Get(ctx, shared.FilterByID(boatID, boatModel.FieldID, boatModel.TableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to get boat")

			return fmt.Errorf("failed to get boat: %w", err)
		}

		if boat.ID != constant.Empty && boat.OwnerID == actor.ID {
			return nil
		}
	}

	return failure.ResourceRestrictedError
}

// canManage reports whether actor may mutate booking of boat.
func canManage(actor shared.Actor, booking model.Booking, boat boatModel.Boat) error {
	switch {
	case actor.IsStaff():
		return nil
	case actor.IsCustomer() && booking.CustomerID == actor.ID:
		return nil
	case actor.IsOwner() && boat.OwnerID == actor.ID:
		return nil
	default:
		return failure.ResourceRestrictedError
	}
}

// lockBooking loads the live booking id and its boat with row locks held until sqltx ends.
func (s *serviceImpl) lockBooking(ctx context.Context, sqltx *sqlx.Tx, id string, deleted bool) (model.Booking, boatModel.Boat, error) {
	booking, err := s.repo.GetForUpdateTx(ctx, sqltx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to lock booking")

		return booking, boatModel.Boat{}, fmt.Errorf("failed to lock booking: %w", err)
	}

	if booking.ID == constant.Empty || booking.IsDeleted != deleted {
		return booking, boatModel.Boat{}, failure.NotFound(msgBookingNotFound) // nolint:wrapcheck
	}

	boat, err := s.boatRepo.GetForUpdateTx(ctx, sqltx, shared.FilterByID(booking.BoatID, boatModel.FieldID, boatModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to lock boat")

		return booking, boat, fmt.Errorf("failed to lock boat: %w", err)
	}

	return booking, boat, nil
}

// cascadeBoat moves the boat to the status a transition into bookingStatus implies. The
// write is skipped when the boat is already there.
func (s *serviceImpl) cascadeBoat(
	ctx context.Context,
	sqltx *sqlx.Tx,
	boat boatModel.Boat,
	bookingStatus model.Status,
	actorID string,
) (boatModel.Boat, error) {
	status := bookingStatus.BoatStatus()
	if status == boat.Status {
		return boat, nil
	}

	req := map[string]any{
		boatModel.FieldStatus:    status,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: actorID,
	}

	if err := s.boatRepo.UpdateTx(ctx, sqltx, req, shared.FilterByID(boat.ID, boatModel.FieldID, boatModel.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to update boat status")

		return boat, fmt.Errorf("failed to update boat status: %w", err)
	}

	log.Info().Str("boat", boat.ID).Str("from", string(boat.Status)).Str("to", string(status)).Msg("boat status changed")

	boat.Status = status

	return boat, nil
}

// notify queues the customer and owner variants of an event inside sqltx.
func (s *serviceImpl) notify(ctx context.Context, sqltx *sqlx.Tx, eventType notificationModel.EventType, booking model.Booking, boat boatModel.Boat) error {
	customerName := ""

	user, err := s.userRepo.FindByID(ctx, booking.CustomerID)
	if err != nil {
		log.Warn().Err(err).Str("customer", booking.CustomerID).Msg("failed to resolve customer name for notification")
	} else {
		customerName = user.Name
	}

	facts := notificationModel.Facts{
		BookingID:     booking.ID,
		BoatID:        boat.ID,
		BoatName:      boat.Name,
		OwnerID:       boat.OwnerID,
		CustomerID:    booking.CustomerID,
		CustomerName:  customerName,
		BookingDate:   timezone.FormatDay(booking.BookingDate),
		Status:        booking.Status.String(),
		PaymentStatus: booking.PaymentStatus.String(),
		TotalPrice:    booking.TotalPrice.StringFixed(2),
	}

	if err = s.outbox.InsertTx(ctx, sqltx, notificationModel.Compose(eventType, facts, timezone.Now())); err != nil {
		log.Error().Err(err).Msg("failed to queue booking notification")

		return fmt.Errorf("failed to queue booking notification: %w", err)
	}

	return nil
}

// viewVersion returns the version cached booking views are keyed under. cached is false when
// the version cannot be read, and the caller then skips the cache entirely.
func (s *serviceImpl) viewVersion(ctx context.Context) (version string, cached bool) {
	err := s.cache.Get(ctx, cacheVersion, &version)

	switch {
	case err == nil:
		return version, true
	case errors.Is(err, cache.Nil):
		return initialCacheVersion, true
	default:
		log.Warn().Err(err).Msg("failed to read booking cache version, bypassing cache")

		return constant.Empty, false
	}
}

// invalidate retires every cached booking view before the mutation returns. A read that loaded
// its data earlier saves under the retired version, which no reader looks up again.
func (s *serviceImpl) invalidate(ctx context.Context) {
	c := context.WithoutCancel(ctx)

	err := s.cache.Save(c, cacheVersion, uuid.NewString(), 0)
	if err == nil {
		return
	}

	log.Error().Err(err).Msg("failed to rotate booking cache version, clearing cached views")

	for _, prefix := range []string{cacheGetBooking, cacheGetAllBooking, cacheCountBooking, cacheUnavailableDates} {
		shared.InvalidateCaches(c, s.cache, prefix)
	}
}

// txError keeps failures raised inside a transaction and reports unique violations as conflicts.
func txError(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case failure.IsFailure(err):
		return err
	case shared.IsUniqueViolation(err):
		return failure.Conflict(msgBoatUnavailable) // nolint:wrapcheck
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}
