package redis

import (
	"context"
	"marina/config"
	"net"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	dialTimeout = 2 * time.Second
	ioTimeout   = time.Second
)

// New returns a client for the primary node. An unreachable server is only logged:
// locks and rate limits degrade while the client keeps reconnecting in the background.
func New(cfg *config.Config) *goRedis.Client {
	primary := cfg.Cache.Redis.Primary
	addr := net.JoinHostPort(primary.Host, primary.Port)

	client := goRedis.NewClient(&goRedis.Options{
		Addr:         addr,
		Password:     primary.Password,
		DB:           primary.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis unreachable, continuing without locks and rate limits")

		return client
	}

	log.Info().Str("addr", addr).Int("db", primary.DB).Msg("connected to redis")

	return client
}
