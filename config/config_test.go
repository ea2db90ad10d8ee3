package config_test

import (
	"marina/config"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	complete := func() config.Config {
		var cfg config.Config
		cfg.DB.Postgres.Write.Name = "bookings"
		cfg.DB.Postgres.Read.Name = "bookings"
		cfg.JWT.AccessSecret = "secret"

		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr string
	}{
		{
			name:   "complete",
			mutate: func(_ *config.Config) {},
		},
		{
			name:    "no token secret",
			mutate:  func(cfg *config.Config) { cfg.JWT.AccessSecret = "  " },
			wantErr: "missing required settings: JWT_ACCESS_SECRET",
		},
		{
			name: "nothing set",
			mutate: func(cfg *config.Config) {
				*cfg = config.Config{}
			},
			wantErr: "missing required settings: DB_POSTGRES_READ_NAME, DB_POSTGRES_WRITE_NAME, JWT_ACCESS_SECRET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := complete()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)

				return
			}

			assert.ErrorIs(t, err, config.ErrMissingSetting)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestConfig_ValidateMigration(t *testing.T) {
	var cfg config.Config

	assert.EqualError(t, cfg.ValidateMigration(), "missing required settings: DB_POSTGRES_WRITE_NAME")

	cfg.DB.Postgres.Write.Name = "bookings"

	assert.NoError(t, cfg.ValidateMigration())
}

// Loading succeeds without a database or token secret so packages that only need the
// timezone can start anywhere.
func TestGet_WithoutRequiredSettings(t *testing.T) {
	t.Setenv("DB_POSTGRES_WRITE_NAME", "")
	t.Setenv("JWT_ACCESS_SECRET", "")

	cfg := config.Get()

	assert.NotNil(t, cfg)
	assert.Equal(t, "marina", cfg.App.Name)
	assert.Equal(t, "8080", cfg.Server.Port)
}
