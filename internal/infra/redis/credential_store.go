package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	tokenKey  = "quizgw:token"
	userIDKey = "quizgw:user"
)

// CredentialStore keeps the bearer token and user id in Redis so every
// process sharing the instance sees the same login. Reads are best-effort:
// a Redis error is reported as "no credentials".
type CredentialStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCredentialStore(client *redis.Client, ttl time.Duration) *CredentialStore {
	return &CredentialStore{client: client, ttl: ttl}
}

func (s *CredentialStore) Token() (string, bool) {
	token, err := s.client.Get(context.Background(), tokenKey).Result()
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

func (s *CredentialStore) SetToken(token string) error {
	return s.client.Set(context.Background(), tokenKey, token, s.ttl).Err()
}

func (s *CredentialStore) UserID() (int64, bool) {
	raw, err := s.client.Get(context.Background(), userIDKey).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *CredentialStore) SetUserID(id int64) error {
	return s.client.Set(context.Background(), userIDKey, strconv.FormatInt(id, 10), s.ttl).Err()
}

func (s *CredentialStore) Clear() error {
	return s.client.Del(context.Background(), tokenKey, userIDKey).Err()
}
