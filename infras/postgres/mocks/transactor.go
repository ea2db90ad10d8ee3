package mocks

import (
	"context"
	"marina/infras/postgres"

	"github.com/jmoiron/sqlx"
)

type transactorImpl struct {
	err error
}

// WithTransaction implements postgres.Transactor without a database. The callback receives a nil tx.
func (t *transactorImpl) WithTransaction(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	if t.err != nil {
		return t.err
	}

	return fn(nil)
}

func NewTransactor() postgres.Transactor {
	return &transactorImpl{}
}

// NewFailingTransactor returns a transactor whose begin step always fails with err.
func NewFailingTransactor(err error) postgres.Transactor {
	return &transactorImpl{err: err}
}
