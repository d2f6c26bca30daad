package app

import (
	"context"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jsimonrichard/sceideal/internal/config"
	"github.com/jsimonrichard/sceideal/internal/db"
	"github.com/jsimonrichard/sceideal/internal/logger"
	"github.com/jsimonrichard/sceideal/internal/session"
)

type infra struct {
	db    *db.DB
	redis *goredis.Client
}

func setupInfra(ctx context.Context, cfg *config.Config) (*infra, error) {
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Info("database ready")

	in := &infra{db: database}

	if cfg.Session.Backend == config.SessionBackendRedis {
		in.redis = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
		})
		if err := in.redis.Ping(ctx).Err(); err != nil {
			_ = database.Close()
			return nil, err
		}
		logger.Info("redis ready")
	}

	return in, nil
}

// sessionStore picks the configured backend. The in-memory expiring
// cache is the default; redis is for deployments that need sessions to
// survive restarts.
func (in *infra) sessionStore() (session.Store, func()) {
	if in.redis != nil {
		return session.NewRedisStore(in.redis), func() {}
	}
	store := session.NewMemoryStore()
	return store, store.Close
}

func (in *infra) close() error {
	var err error
	if in.redis != nil {
		err = in.redis.Close()
	}
	if dbErr := in.db.Close(); dbErr != nil {
		err = dbErr
	}
	return err
}
