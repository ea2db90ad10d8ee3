package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"marina/infras/otel"
	"marina/infras/postgres"
	"marina/internal/domains/booking/model"
	"marina/shared/constant"
	gDto "marina/shared/dto"
	"marina/shared/logger"
	gRepo "marina/shared/repository"

	"github.com/jmoiron/sqlx"
)

type Booking interface {
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetForUpdateTx(ctx context.Context, sqltx *sqlx.Tx, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	ExistWrite(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	ExistTx(ctx context.Context, sqltx *sqlx.Tx, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	UpdateTx(ctx context.Context, sqltx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
	UnavailableDates(ctx context.Context, boatID string) ([]string, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// BlockingFilter matches the bookings that hold boatID. An empty date matches every day.
func BlockingFilter(boatID, date string) gDto.FilterGroup {
	statuses := make([]string, len(model.BlockingStatuses))
	for i, status := range model.BlockingStatuses {
		statuses[i] = status.String()
	}

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldBoatID, Operator: gDto.FilterOperatorEq, Value: boatID, Table: model.TableName},
			gDto.Filter{Field: model.FieldIsDeleted, Operator: gDto.FilterOperatorEq, Value: false, Table: model.TableName},
			gDto.Filter{Field: model.FieldStatus, Operator: gDto.FilterOperatorIn, Value: statuses, Table: model.TableName},
		},
	}

	if date != "" {
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field:    model.FieldBookingDate,
			Operator: gDto.FilterOperatorEq,
			Value:    date,
			Table:    model.TableName,
		})
	}

	return filter
}

// UnavailableDates reads the write pool so a booking is visible the moment its create returns.
func (repo *repositoryImpl) UnavailableDates(ctx context.Context, boatID string) (dates []string, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.UnavailableDates")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	where, args := gRepo.WhereClause(BlockingFilter(boatID, ""))
	query := fmt.Sprintf(
		"SELECT DISTINCT to_char(%s.%s, 'YYYY-MM-DD') AS day FROM %s %s ORDER BY day",
		model.TableName, model.FieldBookingDate, model.TableName, where,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	prepare, err := repo.db.Write.PrepareNamedContext(ctx, query)
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to prepare statement (%s): %w", model.EntityName, err)
	}
	defer prepare.Close()

	dates = []string{}
	if err = prepare.SelectContext(ctx, &dates, args); err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to get unavailable dates (%s): %w", model.EntityName, err)
	}

	return dates, nil
}

type LineItem interface {
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, items model.LineItems) error
	Get(ctx context.Context, bookingID string) (model.LineItems, error)
}

type lineItemImpl struct {
	addOns       gRepo.Repository[model.AddOnLine]
	foodPackages gRepo.Repository[model.FoodPackageLine]
	islands      gRepo.Repository[model.IslandLine]
	otel         otel.Otel
}

func NewLineItem(db *postgres.Connection, otel otel.Otel) LineItem {
	return &lineItemImpl{
		addOns:       gRepo.NewRepository[model.AddOnLine](model.AddOnEntityName, model.AddOnTableName, model.LineFieldID, db, otel),
		foodPackages: gRepo.NewRepository[model.FoodPackageLine](model.FoodPackageEntityName, model.FoodPackageTableName, model.LineFieldID, db, otel),
		islands:      gRepo.NewRepository[model.IslandLine](model.IslandEntityName, model.IslandTableName, model.LineFieldID, db, otel),
		otel:         otel,
	}
}

// InsertTx writes every line of the booking inside sqltx. Empty groups are skipped.
func (repo *lineItemImpl) InsertTx(ctx context.Context, sqltx *sqlx.Tx, items model.LineItems) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".lineItem.InsertTx")
	defer scope.End()

	if len(items.AddOns) > 0 {
		if err := repo.addOns.InsertBulkTx(ctx, sqltx, items.AddOns); err != nil {
			scope.TraceError(err)

			return err //nolint:wrapcheck
		}
	}

	if len(items.FoodPackages) > 0 {
		if err := repo.foodPackages.InsertBulkTx(ctx, sqltx, items.FoodPackages); err != nil {
			scope.TraceError(err)

			return err //nolint:wrapcheck
		}
	}

	if len(items.Islands) > 0 {
		if err := repo.islands.InsertBulkTx(ctx, sqltx, items.Islands); err != nil {
			scope.TraceError(err)

			return err //nolint:wrapcheck
		}
	}

	return nil
}

func (repo *lineItemImpl) Get(ctx context.Context, bookingID string) (items model.LineItems, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".lineItem.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	byBooking := func(table string) gDto.FilterGroup {
		return gDto.FilterGroup{
			Operator: gDto.FilterGroupOperatorAnd,
			Filters: []any{
				gDto.Filter{Field: model.LineFieldBookingID, Operator: gDto.FilterOperatorEq, Value: bookingID, Table: table},
			},
		}
	}

	if items.AddOns, err = repo.addOns.GetAll(ctx, gDto.QueryParams{}, byBooking(model.AddOnTableName)); err != nil {
		return items, err //nolint:wrapcheck
	}

	if items.FoodPackages, err = repo.foodPackages.GetAll(ctx, gDto.QueryParams{}, byBooking(model.FoodPackageTableName)); err != nil {
		return items, err //nolint:wrapcheck
	}

	if items.Islands, err = repo.islands.GetAll(ctx, gDto.QueryParams{}, byBooking(model.IslandTableName)); err != nil {
		return items, err //nolint:wrapcheck
	}

	return items, nil
}

type History interface {
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, entry model.HistoryEntry) error
	GetAll(ctx context.Context, bookingID string) ([]model.HistoryEntry, error)
}

type historyImpl struct {
	gRepo.Repository[model.HistoryEntry]
	otel otel.Otel
}

func NewHistory(db *postgres.Connection, otel otel.Otel) History {
	return &historyImpl{
		Repository: gRepo.NewRepository[model.HistoryEntry](model.HistoryEntityName, model.HistoryTableName, model.HistoryFieldID, db, otel),
		otel:       otel,
	}
}

// GetAll returns the entries of bookingID newest first.
func (repo *historyImpl) GetAll(ctx context.Context, bookingID string) ([]model.HistoryEntry, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".history.GetAll")
	defer scope.End()

	params := gDto.QueryParams{
		SortBy:  fmt.Sprintf("%s.%s", model.HistoryTableName, model.HistoryFieldSeq),
		SortDir: gDto.SortDirDesc,
	}

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.HistoryFieldBookingID, Operator: gDto.FilterOperatorEq, Value: bookingID, Table: model.HistoryTableName},
		},
	}

	entries, err := repo.Repository.GetAll(ctx, params, filter)
	if err != nil {
		scope.TraceError(err)

		return nil, err //nolint:wrapcheck
	}

	return entries, nil
}
