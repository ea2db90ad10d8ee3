package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// PostgresNode addresses one side of the read/write split.
type PostgresNode struct {
	Host     string `envconfig:"HOST"      default:"localhost"`
	Port     string `envconfig:"PORT"      default:"5432"`
	Username string `envconfig:"USER"`
	Password string `envconfig:"PASSWORD"`
	Name     string `envconfig:"NAME"`
	Timezone string `envconfig:"TIMEZONE"`
	SSLMode  string `envconfig:"SSL_MODE"  default:"disable"`
}

// Config is read once from the environment, after .env is loaded when present.
type Config struct {
	Server struct {
		Env      string `envconfig:"ENV"       default:"development"`
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
		Host     string `envconfig:"HOST"`
		Port     string `envconfig:"PORT"      default:"8080"`
		Shutdown struct {
			GracePeriodSeconds   int64 `envconfig:"GRACE_PERIOD_SECONDS"   default:"10"`
			CleanupPeriodSeconds int64 `envconfig:"CLEANUP_PERIOD_SECONDS" default:"10"`
		} `envconfig:"SHUTDOWN"`
	} `envconfig:"SERVER"`

	App struct {
		Name     string `envconfig:"APP_NAME" default:"marina"`
		Timezone string `envconfig:"TIMEZONE" default:"Asia/Makassar"`
		APIKey   string `envconfig:"API_KEY"`
		CORS     struct {
			Enable           bool     `envconfig:"ENABLE"`
			AllowedOrigins   []string `envconfig:"ALLOWED_ORIGINS"`
			AllowedMethods   []string `envconfig:"ALLOWED_METHODS"`
			AllowedHeaders   []string `envconfig:"ALLOWED_HEADERS"`
			AllowCredentials bool     `envconfig:"ALLOW_CREDENTIALS"`
			MaxAgeSeconds    int      `envconfig:"MAX_AGE_SECONDS"`
		} `envconfig:"CORS"`
		RateLimiter struct {
			Enable        bool `envconfig:"ENABLE"`
			MaxRequests   int  `envconfig:"MAX_REQUESTS"   default:"100"`
			WindowSeconds int  `envconfig:"WINDOW_SECONDS" default:"60"`
		} `envconfig:"RATE_LIMITER"`
	} `envconfig:"APP"`

	Cache struct {
		TTL   int `envconfig:"TTL" default:"300"`
		Redis struct {
			Primary struct {
				Host     string `envconfig:"HOST" default:"localhost"`
				Port     string `envconfig:"PORT" default:"6379"`
				Password string `envconfig:"PASSWORD"`
				DB       int    `envconfig:"DB"`
			} `envconfig:"PRIMARY"`
		} `envconfig:"REDIS"`
	} `envconfig:"CACHE"`

	JWT struct {
		AccessSecret    string `envconfig:"ACCESS_SECRET"`
		AccessExpireMin int    `envconfig:"ACCESS_EXPIRE_MIN" default:"60"`
	} `envconfig:"JWT"`

	DB struct {
		Postgres struct {
			Prefix         string       `envconfig:"PREFIX"`
			MaxRetry       int          `envconfig:"MAX_RETRY"       default:"5"`
			RetryWaitTime  int          `envconfig:"RETRY_WAIT_TIME" default:"2"`
			AutoMigrate    bool         `envconfig:"AUTO_MIGRATE"`
			MigrationTable string       `envconfig:"MIGRATION_TABLE" default:"schema_migrations"`
			Read           PostgresNode `envconfig:"READ"`
			Write          PostgresNode `envconfig:"WRITE"`
		} `envconfig:"POSTGRES"`
	} `envconfig:"DB"`

	Kafka struct {
		Brokers []string `envconfig:"BROKERS"`
		Topic   struct {
			Notification string `envconfig:"NOTIFICATION" default:"booking.notifications"`
		} `envconfig:"TOPIC"`
		SASL struct {
			Username string `envconfig:"USERNAME"`
			Password string `envconfig:"PASSWORD"`
		} `envconfig:"SASL"`
	} `envconfig:"KAFKA"`

	Booking struct {
		LockTTLSeconds  int    `envconfig:"LOCK_TTL_SECONDS"  default:"10"`
		PaymentProofDir string `envconfig:"PAYMENT_PROOF_DIR" default:"payment-proofs"`
		Outbox          struct {
			Enable          bool `envconfig:"ENABLE"           default:"true"`
			IntervalSeconds int  `envconfig:"INTERVAL_SECONDS" default:"5"`
			BatchSize       int  `envconfig:"BATCH_SIZE"       default:"50"`
			MaxAttempts     int  `envconfig:"MAX_ATTEMPTS"     default:"5"`
		} `envconfig:"OUTBOX"`
	} `envconfig:"BOOKING"`

	External struct {
		Otel struct {
			Endpoint string `envconfig:"ENDPOINT"`
		} `envconfig:"OTEL"`
		S3 struct {
			APIEndpoint     string `envconfig:"API_ENDPOINT"`
			AccessKeyID     string `envconfig:"ACCESS_KEY_ID"`
			SecretAccessKey string `envconfig:"SECRET_ACCESS_KEY"`
			BucketName      string `envconfig:"BUCKET_NAME"`
			PublicDomain    string `envconfig:"PUBLIC_DOMAIN"`
		} `envconfig:"S3"`
	} `envconfig:"EXTERNAL"`
}

var (
	conf        Config
	once        sync.Once
	initialized bool
)

func Init() error {
	var err error

	once.Do(func() {
		if loadErr := godotenv.Load(".env"); loadErr != nil {
			log.Debug().Err(loadErr).Msg("no .env file, reading the process environment only")
		}

		if err = envconfig.Process("", &conf); err != nil {
			return
		}

		initialized = true
		log.Info().Str("env", conf.Server.Env).Msg("configuration loaded")
	})

	if err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	return nil
}

func Get() *Config {
	if !initialized {
		if err := Init(); err != nil {
			log.Fatal().Err(err).Msg("invalid configuration")
		}
	}

	return &conf
}

var ErrMissingSetting = errors.New("missing required settings")

// Validate reports the settings the server cannot start without. Loading never fails on
// them so packages reading the timezone or defaults work in any environment.
func (c *Config) Validate() error {
	return missing(map[string]string{
		"DB_POSTGRES_WRITE_NAME": c.DB.Postgres.Write.Name,
		"DB_POSTGRES_READ_NAME":  c.DB.Postgres.Read.Name,
		"JWT_ACCESS_SECRET":      c.JWT.AccessSecret,
	})
}

// ValidateMigration only needs the primary database.
func (c *Config) ValidateMigration() error {
	return missing(map[string]string{
		"DB_POSTGRES_WRITE_NAME": c.DB.Postgres.Write.Name,
	})
}

func missing(settings map[string]string) error {
	keys := []string{}

	for key, value := range settings {
		if strings.TrimSpace(value) == "" {
			keys = append(keys, key)
		}
	}

	if len(keys) == 0 {
		return nil
	}

	slices.Sort(keys)

	return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(keys, ", "))
}
