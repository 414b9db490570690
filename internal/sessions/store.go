// Package sessions backs the session cookie with server-side state in
// Redis. The cookie carries only an opaque id; the record and its TTL live
// in the store, so expiring or destroying a session never depends on the
// client honoring max-age.
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/prodmanhq/prodman-backend/internal/logger"
)

const CookieName = "prodman_sid"

const keyPrefix = "prodman:session:"

type Session struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role"`
}

type Store interface {
	Create(ctx context.Context, sess Session, ttl time.Duration) (string, error)
	// Get returns nil when the session is absent or expired.
	Get(ctx context.Context, sid string) (*Session, error)
	Delete(ctx context.Context, sid string) error
	Close() error
}

type redisStore struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewRedisStore(log *logger.Logger, addr string) (Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisStore{
		log: log.With("service", "RedisSessionStore"),
		rdb: rdb,
	}, nil
}

func (s *redisStore) Create(ctx context.Context, sess Session, ttl time.Duration) (string, error) {
	raw, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	sid := uuid.New().String()
	if err := s.rdb.Set(ctx, keyPrefix+sid, raw, ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return sid, nil
}

func (s *redisStore) Get(ctx context.Context, sid string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+sid).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *redisStore) Delete(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, keyPrefix+sid).Err()
}

func (s *redisStore) Close() error {
	return s.rdb.Close()
}
