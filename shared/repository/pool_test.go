package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"marina/infras/otel/mocks"
	"marina/infras/postgres"
	"marina/shared/dto"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

// pool refuses every connection and names itself in the error, which tells a test which
// side of the connection a statement went to.
type pool string

func (p pool) Connect(context.Context) (driver.Conn, error) { return p.Open("") }

func (p pool) Driver() driver.Driver { return p }

func (p pool) Open(string) (driver.Conn, error) {
	return nil, fmt.Errorf("%s pool reached", string(p))
}

func splitConnection() *postgres.Connection {
	return &postgres.Connection{
		Read:  sqlx.NewDb(sql.OpenDB(pool("read")), "postgres"),
		Write: sqlx.NewDb(sql.OpenDB(pool("write")), "postgres"),
	}
}

func TestRepository_ExistPools(t *testing.T) {
	repo := NewRepository[dock]("dock", "docks", "id", splitConnection(), mocks.NewOtel())

	tests := []struct {
		name  string
		exist func(ctx context.Context, filter dto.FilterGroup) (bool, error)
		want  string
	}{
		{name: "exist reads the replica", exist: repo.Exist, want: "read pool reached"},
		{name: "exist write reads the primary", exist: repo.ExistWrite, want: "write pool reached"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.exist(context.Background(), byName("north"))

			assert.ErrorContains(t, err, tt.want)
		})
	}
}
