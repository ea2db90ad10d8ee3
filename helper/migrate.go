package helper

//nolint:revive
import (
	"errors"
	"fmt"
	"marina/config"
	"net"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

const migrationSource = "file://migrations/postgres"

type action struct {
	run     func(mig *migrate.Migrate) error
	message string
}

var actions = map[string]action{
	"up": {
		run:     func(mig *migrate.Migrate) error { return mig.Up() },
		message: "Booking schema migrated to the latest version",
	},
	"step-up": {
		run:     func(mig *migrate.Migrate) error { return mig.Steps(1) },
		message: "Booking schema migrated one step up",
	},
	"down": {
		run:     func(mig *migrate.Migrate) error { return mig.Steps(-1) },
		message: "Booking schema rolled back one step",
	},
	"drop": {
		run:     func(mig *migrate.Migrate) error { return mig.Down() },
		message: "Booking schema rolled back completely",
	},
}

func getDBName(config *config.Config, baseName string) string {
	return config.DB.Postgres.Prefix + baseName
}

func connectionString(config *config.Config) string {
	write := config.DB.Postgres.Write

	query := url.Values{}
	query.Set("sslmode", write.SSLMode)

	if config.DB.Postgres.MigrationTable != "" {
		query.Set("x-migrations-table", config.DB.Postgres.MigrationTable)
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(write.Username, write.Password),
		Host:     net.JoinHostPort(write.Host, write.Port),
		Path:     getDBName(config, write.Name),
		RawQuery: query.Encode(),
	}

	return dsn.String()
}

// Runner applies one migration action against the write database.
func Runner(config *config.Config, name string) error {
	act, ok := actions[name]
	if !ok {
		return fmt.Errorf("unknown migration action %q", name)
	}

	mig, err := migrate.New(migrationSource, connectionString(config))
	if err != nil {
		return fmt.Errorf("error creating migrate instance: %w", err)
	}

	defer mig.Close()

	if err = act.run(mig); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running %s migration: %w", name, err)
	}

	log.Info().Str("action", name).Msg(act.message)

	return nil
}

func Up(config *config.Config) error {
	return Runner(config, "up")
}

func StepUp(config *config.Config) error {
	return Runner(config, "step-up")
}

func Down(config *config.Config) error {
	return Runner(config, "down")
}

func Drop(config *config.Config) error {
	return Runner(config, "drop")
}
