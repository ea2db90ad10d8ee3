package postgres

//nolint:revive
import (
	"context"
	"errors"
	"fmt"
	"marina/config"
	"net"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	driverName                = "postgres"
	postgresMaxIdleConnection = 10
	postgresMaxOpenConnection = 10
	postgresConnMaxLifetime   = 30 * time.Minute
)

var ErrNoConnection = errors.New("could not connect to postgres")

// Connection splits reads from writes. Availability checks and every mutation go to Write
// so they observe the latest committed bookings.
type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

// Endpoint is one side of the read/write pair.
type Endpoint struct {
	Name     string
	Host     string
	Port     string
	Username string
	Password string
	Database string
	SSLMode  string
	Timezone string
}

func New(cfg *config.Config) (*Connection, error) {
	pg := cfg.DB.Postgres
	wait := time.Duration(pg.RetryWaitTime) * time.Second

	write, err := Connect(endpointOf("write", pg.Prefix, pg.Write), pg.MaxRetry, wait)
	if err != nil {
		return nil, err
	}

	read, err := Connect(endpointOf("read", pg.Prefix, pg.Read), pg.MaxRetry, wait)
	if err != nil {
		_ = write.Close()

		return nil, err
	}

	return &Connection{Read: read, Write: write}, nil
}

func endpointOf(name, prefix string, node config.PostgresNode) Endpoint {
	return Endpoint{
		Name:     name,
		Host:     node.Host,
		Port:     node.Port,
		Username: node.Username,
		Password: node.Password,
		Database: prefix + node.Name,
		SSLMode:  node.SSLMode,
		Timezone: node.Timezone,
	}
}

// DSN renders the endpoint as a lib/pq connection URL. Unknown keys such as TimeZone are sent
// to the server as runtime parameters.
func (e Endpoint) DSN() string {
	query := url.Values{}

	if e.SSLMode != "" {
		query.Set("sslmode", e.SSLMode)
	}

	if e.Timezone != "" {
		query.Set("TimeZone", e.Timezone)
	}

	dsn := url.URL{
		Scheme:   driverName,
		User:     url.UserPassword(e.Username, e.Password),
		Host:     net.JoinHostPort(e.Host, e.Port),
		Path:     e.Database,
		RawQuery: query.Encode(),
	}

	return dsn.String()
}

// Connect retries until the database answers or maxRetry attempts are used up.
func Connect(endpoint Endpoint, maxRetry int, wait time.Duration) (*sqlx.DB, error) {
	if maxRetry < 1 {
		maxRetry = 1
	}

	var lastErr error

	for attempt := 1; attempt <= maxRetry; attempt++ {
		db, err := sqlx.Connect(driverName, endpoint.DSN())
		if err == nil {
			db.SetMaxIdleConns(postgresMaxIdleConnection)
			db.SetMaxOpenConns(postgresMaxOpenConnection)
			db.SetConnMaxLifetime(postgresConnMaxLifetime)

			log.Info().
				Str("name", endpoint.Name).
				Str("host", endpoint.Host).
				Str("port", endpoint.Port).
				Str("dbName", endpoint.Database).
				Msg("Connected to database")

			return db, nil
		}

		lastErr = err

		log.Error().
			Err(err).
			Str("name", endpoint.Name).
			Str("host", endpoint.Host).
			Str("dbName", endpoint.Database).
			Int("attempt", attempt).
			Msg("Failed connecting to database, retrying")

		if attempt < maxRetry {
			time.Sleep(wait)
		}
	}

	return nil, fmt.Errorf("%w (%s): %w", ErrNoConnection, endpoint.Name, lastErr)
}

// Ping reports whether both pools can reach the server.
func (c *Connection) Ping(ctx context.Context) error {
	if err := c.Write.PingContext(ctx); err != nil {
		return fmt.Errorf("write pool: %w", err)
	}

	if err := c.Read.PingContext(ctx); err != nil {
		return fmt.Errorf("read pool: %w", err)
	}

	return nil
}
