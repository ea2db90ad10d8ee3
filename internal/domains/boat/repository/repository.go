package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"marina/infras/otel"
	"marina/infras/postgres"
	"marina/internal/domains/boat/model"
	gDto "marina/shared/dto"
	gRepo "marina/shared/repository"

	"github.com/jmoiron/sqlx"
)

type Boat interface {
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Boat, error)
	GetForUpdateTx(ctx context.Context, sqltx *sqlx.Tx, filter gDto.FilterGroup, columns ...string) (model.Boat, error)
	UpdateTx(ctx context.Context, sqltx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Boat]
}

func New(db *postgres.Connection, otel otel.Otel) Boat {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Boat](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}
