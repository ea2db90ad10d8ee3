// Package repository holds the generic sqlx data access every domain repository embeds.
// T is a struct whose db tags name its columns. Embedded structs contribute theirs.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"marina/infras/otel"
	"marina/infras/postgres"
	"marina/shared/constant"
	"marina/shared/dto"
	"marina/shared/logger"
	"reflect"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"
)

const setArgPrefix = "set_"

var (
	errMissingFilter = errors.New("statement needs a filter")
	errNoColumns     = errors.New("nothing to update")
)

type execer interface {
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
}

type preparer interface {
	PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error)
}

type Repository[T any] struct {
	db        *postgres.Connection
	otel      otel.Otel
	table     string
	entity    string
	primary   string
	columns   []string
	insertSQL string
}

func NewRepository[T any](entity, table, primary string, db *postgres.Connection, otl otel.Otel) Repository[T] {
	var zero T

	columns := columnsOf(reflect.TypeOf(zero))

	placeholders := make([]string, len(columns))
	for idx, col := range columns {
		placeholders[idx] = ":" + col
	}

	return Repository[T]{
		db:        db,
		otel:      otl,
		table:     table,
		entity:    entity,
		primary:   primary,
		columns:   columns,
		insertSQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), strings.Join(placeholders, ", ")),
	}
}

func (repo *Repository[T]) span(ctx context.Context, op string) (context.Context, otel.Scope) {
	return repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, fmt.Sprintf("%s.%s.%s", constant.OtelRepositoryScopeName, repo.entity, op))
}

func (repo *Repository[T]) fail(scope otel.Scope, action string, err error) error {
	logger.ErrorWithStack(err)
	scope.TraceError(err)

	return fmt.Errorf("failed to %s (%s): %w", action, repo.entity, err)
}

func (repo *Repository[T]) InsertTx(ctx context.Context, sqltx *sqlx.Tx, model T) error {
	return repo.insert(ctx, "InsertTx", sqltx, model)
}

// InsertBulkTx writes every model with one multi-row INSERT. An empty slice is a no-op.
func (repo *Repository[T]) InsertBulkTx(ctx context.Context, sqltx *sqlx.Tx, models []T) error {
	if len(models) == 0 {
		return nil
	}

	return repo.insert(ctx, "InsertBulkTx", sqltx, models)
}

func (repo *Repository[T]) insert(ctx context.Context, op string, exec execer, arg any) error {
	ctx, scope := repo.span(ctx, op)
	defer scope.End()

	scope.SetAttribute(constant.OtelQueryAttributeKey, repo.insertSQL)

	if _, err := exec.NamedExecContext(ctx, repo.insertSQL, arg); err != nil {
		return repo.fail(scope, "insert", err)
	}

	return nil
}

func (repo *Repository[T]) Exist(ctx context.Context, filter dto.FilterGroup) (bool, error) {
	return repo.exist(ctx, "Exist", repo.db.Read, filter)
}

// ExistWrite checks the write pool, for reads that must observe the latest commit.
func (repo *Repository[T]) ExistWrite(ctx context.Context, filter dto.FilterGroup) (bool, error) {
	return repo.exist(ctx, "ExistWrite", repo.db.Write, filter)
}

// ExistTx runs inside sqltx so rows written earlier in the transaction are visible.
func (repo *Repository[T]) ExistTx(ctx context.Context, sqltx *sqlx.Tx, filter dto.FilterGroup) (bool, error) {
	return repo.exist(ctx, "ExistTx", sqltx, filter)
}

func (repo *Repository[T]) exist(ctx context.Context, op string, prep preparer, filter dto.FilterGroup) (bool, error) {
	ctx, scope := repo.span(ctx, op)
	defer scope.End()

	where, args := WhereClause(filter)
	if where == "" {
		return false, repo.fail(scope, "check existence", errMissingFilter)
	}

	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s %s)", repo.table, where)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var exist bool

	err := withStatement(ctx, prep, query, func(stmt *sqlx.NamedStmt) error {
		return stmt.GetContext(ctx, &exist, args)
	})
	if err != nil {
		return false, repo.fail(scope, "check existence", err)
	}

	return exist, nil
}

// Get returns the first matching row, or the zero T when nothing matches.
func (repo *Repository[T]) Get(ctx context.Context, filter dto.FilterGroup, columns ...string) (T, error) {
	return repo.get(ctx, "Get", repo.db.Read, false, filter, columns)
}

// GetForUpdateTx reads a row and holds a row lock on it until the transaction ends.
func (repo *Repository[T]) GetForUpdateTx(ctx context.Context, sqltx *sqlx.Tx, filter dto.FilterGroup, columns ...string) (T, error) {
	return repo.get(ctx, "GetForUpdateTx", sqltx, true, filter, columns)
}

func (repo *Repository[T]) get(ctx context.Context, op string, prep preparer, lock bool, filter dto.FilterGroup, columns []string) (T, error) {
	ctx, scope := repo.span(ctx, op)
	defer scope.End()

	var model T

	query, args := repo.selectQuery(filter, columns)
	if lock {
		query += " FOR UPDATE OF " + repo.table
	}

	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	err := withStatement(ctx, prep, query, func(stmt *sqlx.NamedStmt) error {
		return stmt.GetContext(ctx, &model, args)
	})

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return model, nil
	case err != nil:
		return model, repo.fail(scope, "get data", err)
	}

	return model, nil
}

// GetAll lists matching rows. A zero Limit disables paging and an empty SortBy keeps
// the database order.
func (repo *Repository[T]) GetAll(ctx context.Context, params dto.QueryParams, filter dto.FilterGroup, columns ...string) ([]T, error) {
	ctx, scope := repo.span(ctx, "GetAll")
	defer scope.End()

	query, args := repo.selectQuery(filter, columns)
	query = joinClauses(query, orderBy(params), paginate(params, args))
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	models := []T{}

	err := withStatement(ctx, repo.db.Read, query, func(stmt *sqlx.NamedStmt) error {
		return stmt.SelectContext(ctx, &models, args)
	})
	if err != nil {
		return nil, repo.fail(scope, "list data", err)
	}

	return models, nil
}

func (repo *Repository[T]) Count(ctx context.Context, filter dto.FilterGroup) (int, error) {
	ctx, scope := repo.span(ctx, "Count")
	defer scope.End()

	where, args := WhereClause(filter)
	query := joinClauses(fmt.Sprintf("SELECT COUNT(%s.%s) FROM %s", repo.table, repo.primary, repo.table), where)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var count int

	err := withStatement(ctx, repo.db.Read, query, func(stmt *sqlx.NamedStmt) error {
		return stmt.GetContext(ctx, &count, args)
	})
	if err != nil {
		return 0, repo.fail(scope, "count data", err)
	}

	return count, nil
}

// Update sets the columns of values on every row matching filter. An empty filter is
// refused rather than touching the whole table.
func (repo *Repository[T]) Update(ctx context.Context, values map[string]any, filter dto.FilterGroup) error {
	return repo.update(ctx, "Update", repo.db.Write, values, filter)
}

func (repo *Repository[T]) UpdateTx(ctx context.Context, sqltx *sqlx.Tx, values map[string]any, filter dto.FilterGroup) error {
	return repo.update(ctx, "UpdateTx", sqltx, values, filter)
}

func (repo *Repository[T]) update(ctx context.Context, op string, exec execer, values map[string]any, filter dto.FilterGroup) error {
	ctx, scope := repo.span(ctx, op)
	defer scope.End()

	query, args, err := repo.updateQuery(values, filter)
	if err != nil {
		return repo.fail(scope, "update data", err)
	}

	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if _, err = exec.NamedExecContext(ctx, query, args); err != nil {
		return repo.fail(scope, "update data", err)
	}

	return nil
}

func (repo *Repository[T]) selectQuery(filter dto.FilterGroup, columns []string) (string, map[string]any) {
	selected := make([]string, 0, len(repo.columns))

	for _, col := range repo.columns {
		if len(columns) > 0 && !slices.Contains(columns, col) {
			continue
		}

		selected = append(selected, repo.table+"."+col)
	}

	where, args := WhereClause(filter)

	return joinClauses(fmt.Sprintf("SELECT %s FROM %s", strings.Join(selected, ", "), repo.table), where), args
}

// updateQuery binds the new values under a prefix so they never collide with the
// filter arguments, and sorts them so the statement text is stable.
func (repo *Repository[T]) updateQuery(values map[string]any, filter dto.FilterGroup) (string, map[string]any, error) {
	if len(values) == 0 {
		return "", nil, errNoColumns
	}

	where, args := WhereClause(filter)
	if where == "" {
		return "", nil, errMissingFilter
	}

	assignments := make([]string, 0, len(values))

	for _, col := range slices.Sorted(maps.Keys(values)) {
		assignments = append(assignments, fmt.Sprintf("%s = :%s%s", col, setArgPrefix, col))
		args[setArgPrefix+col] = values[col]
	}

	return fmt.Sprintf("UPDATE %s SET %s %s", repo.table, strings.Join(assignments, ", "), where), args, nil
}

// WhereClause renders filter as a WHERE clause with its named arguments. An empty
// filter renders as "".
func WhereClause(filter dto.FilterGroup) (string, map[string]any) {
	where, args := filter.GetWhereClause()
	if where == "" {
		return "", map[string]any{}
	}

	return "WHERE " + where, args
}

func orderBy(params dto.QueryParams) string {
	if params.SortBy == "" || params.SortDir == "" {
		return ""
	}

	return fmt.Sprintf("ORDER BY %s %s", params.SortBy, params.SortDir)
}

func paginate(params dto.QueryParams, args map[string]any) string {
	if params.Limit <= 0 {
		return ""
	}

	args["limit"] = params.Limit
	if params.Page <= 0 {
		return "LIMIT :limit"
	}

	args["offset"] = (params.Page - 1) * params.Limit

	return "LIMIT :limit OFFSET :offset"
}

func joinClauses(clauses ...string) string {
	return strings.Join(slices.DeleteFunc(clauses, func(clause string) bool { return clause == "" }), " ")
}

func withStatement(ctx context.Context, prep preparer, query string, run func(stmt *sqlx.NamedStmt) error) error {
	stmt, err := prep.PrepareNamedContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	return run(stmt)
}

// columnsOf lists the db tags of typ in field order, descending into embedded structs.
func columnsOf(typ reflect.Type) []string {
	columns := []string{}

	for idx := range typ.NumField() {
		field := typ.Field(idx)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			columns = append(columns, columnsOf(field.Type)...)

			continue
		}

		if tag := field.Tag.Get("db"); tag != "" && tag != "-" {
			columns = append(columns, tag)
		}
	}

	return columns
}
