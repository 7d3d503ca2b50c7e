package cli

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"quiz-gateway/internal/config"
	"quiz-gateway/internal/credentials"
	"quiz-gateway/internal/infra/memory"
	redisinfra "quiz-gateway/internal/infra/redis"
	"quiz-gateway/internal/rest"
)

// newCredentials picks the Redis-backed store when Redis is configured, so
// login and serve/take share one token, and falls back to process-local
// storage otherwise.
func newCredentials(cfg config.Config) credentials.Store {
	if cfg.Redis.Addr == "" {
		return memory.NewCredentialStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return redisinfra.NewCredentialStore(client, config.Duration(cfg.Redis.TTL, 24*time.Hour))
}

// newCatalog builds the resilient REST client wrapped in the TTL cache.
func newCatalog(cfg config.Config, creds credentials.Store) *memory.CatalogCache {
	opts := []rest.Option{
		rest.WithHTTPClient(&http.Client{Timeout: config.Duration(cfg.API.Timeout, 15*time.Second)}),
		rest.WithRetryDelay(config.Duration(cfg.API.RetryDelay, time.Second)),
		rest.OnSessionExpired(func() {
			logrus.Warn("upstream session expired; run `quiz-gateway login` again")
		}),
	}
	if cfg.API.Retries > 0 {
		opts = append(opts, rest.WithRetries(cfg.API.Retries))
	}
	client := rest.NewClient(cfg.API.BaseURL, creds, opts...)
	return memory.NewCatalogCache(client, config.Duration(cfg.Catalog.TTL, 10*time.Minute))
}
