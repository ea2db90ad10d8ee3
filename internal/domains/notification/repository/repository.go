package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"marina/infras/otel"
	"marina/infras/postgres"
	"marina/internal/domains/notification/model"
	"marina/shared"
	"marina/shared/constant"
	gDto "marina/shared/dto"
	gRepo "marina/shared/repository"
	"marina/shared/timezone"

	"github.com/jmoiron/sqlx"
)

type Outbox interface {
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, entries []model.OutboxEntry) error
	GetPending(ctx context.Context, limit, maxAttempts int) ([]model.OutboxEntry, error)
	MarkDispatched(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, attempts int, reason string) error
}

type repositoryImpl struct {
	gRepo.Repository[model.OutboxEntry]
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Outbox {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.OutboxEntry](model.EntityName, model.TableName, model.FieldID, db, otel),
		otel:       otel,
	}
}

func (repo *repositoryImpl) InsertTx(ctx context.Context, sqltx *sqlx.Tx, entries []model.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}

	return repo.InsertBulkTx(ctx, sqltx, entries) //nolint:wrapcheck
}

// GetPending returns undelivered entries that still have attempts left, oldest first.
func (repo *repositoryImpl) GetPending(ctx context.Context, limit, maxAttempts int) ([]model.OutboxEntry, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".outbox.GetPending")
	defer scope.End()

	params := gDto.QueryParams{
		Limit:   limit,
		SortBy:  fmt.Sprintf("%s.%s", model.TableName, model.FieldCreatedAt),
		SortDir: gDto.SortDirAsc,
	}

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldDispatchedAt, Operator: gDto.FilterIsNull, Table: model.TableName},
			gDto.Filter{Field: model.FieldAttempts, Operator: gDto.FilterOperatorLessEq, Value: maxAttempts - 1, Table: model.TableName},
		},
	}

	entries, err := repo.GetAll(ctx, params, filter)
	if err != nil {
		scope.TraceError(err)

		return nil, err //nolint:wrapcheck
	}

	return entries, nil
}

func (repo *repositoryImpl) MarkDispatched(ctx context.Context, id string) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".outbox.MarkDispatched")
	defer scope.End()

	req := map[string]any{model.FieldDispatchedAt: timezone.Now()}

	if err := repo.Update(ctx, req, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		scope.TraceError(err)

		return err //nolint:wrapcheck
	}

	return nil
}

func (repo *repositoryImpl) MarkFailed(ctx context.Context, id string, attempts int, reason string) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".outbox.MarkFailed")
	defer scope.End()

	req := map[string]any{
		model.FieldAttempts:  attempts,
		model.FieldLastError: reason,
	}

	if err := repo.Update(ctx, req, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		scope.TraceError(err)

		return err //nolint:wrapcheck
	}

	return nil
}
