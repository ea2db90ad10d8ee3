package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"marina/infras/otel/mocks"
	"marina/infras/postgres"
	"marina/internal/domains/booking/repository"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

const boatID = "5a1d7a3e-2b4c-4f6d-8e9f-0a1b2c3d4e5f"

type pool string

func (p pool) Connect(context.Context) (driver.Conn, error) { return p.Open("") }

func (p pool) Driver() driver.Driver { return p }

func (p pool) Open(string) (driver.Conn, error) {
	return nil, fmt.Errorf("%s pool reached", string(p))
}

func TestBooking_AvailabilityReadsThePrimary(t *testing.T) {
	repo := repository.New(&postgres.Connection{
		Read:  sqlx.NewDb(sql.OpenDB(pool("read")), "postgres"),
		Write: sqlx.NewDb(sql.OpenDB(pool("write")), "postgres"),
	}, mocks.NewOtel())

	t.Run("unavailable dates", func(t *testing.T) {
		_, err := repo.UnavailableDates(context.Background(), boatID)

		assert.ErrorContains(t, err, "write pool reached")
	})

	t.Run("blocking check", func(t *testing.T) {
		_, err := repo.ExistWrite(context.Background(), repository.BlockingFilter(boatID, "2025-09-01"))

		assert.ErrorContains(t, err, "write pool reached")
	})
}
