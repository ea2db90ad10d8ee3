package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"marina/infras/otel"
	"marina/infras/postgres"
	"marina/internal/domains/user/model"
	"marina/shared"
	"marina/shared/constant"
	gDto "marina/shared/dto"
	gRepo "marina/shared/repository"
)

// User is the read side of accounts. Accounts are created outside this service.
type User interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	IsCustomer(ctx context.Context, id string) (bool, error)
}

type repositoryImpl struct {
	users gRepo.Repository[model.User]
}

func New(db *postgres.Connection, otel otel.Otel) User {
	return &repositoryImpl{
		users: gRepo.NewRepository[model.User](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}

func (r *repositoryImpl) FindByID(ctx context.Context, id string) (model.User, error) {
	return r.users.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName), model.FieldID, model.FieldName, model.FieldEmail, model.FieldRole) //nolint:wrapcheck
}

// IsCustomer reports whether id names an account with the customer role.
func (r *repositoryImpl) IsCustomer(ctx context.Context, id string) (bool, error) {
	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldID, Value: id, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldRole, Value: constant.RoleCustomer, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	}

	return r.users.Exist(ctx, filter) //nolint:wrapcheck
}
