// Package storage keeps browser sessions in redis.
package storage

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"smartlocker-web/internal/models"
)

const keyPrefix = "smartlocker:session:"

// NewRedisClient connects to addr ("host:port"). TLS is used when useTLS is set.
func NewRedisClient(addr, password string, useTLS bool) *redis.Client {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
	}
	if useTLS {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	return redis.NewClient(opts)
}

type record struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user_data"`
}

// RedisSessions is a keyed session backend. Every write renews the TTL.
type RedisSessions struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessions(rdb *redis.Client, ttl time.Duration) *RedisSessions {
	return &RedisSessions{rdb: rdb, ttl: ttl}
}

func (s *RedisSessions) Get(ctx context.Context, key string) (*models.Session, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, nil
	}
	sess := &models.Session{AccessToken: rec.AccessToken, RefreshToken: rec.RefreshToken, User: rec.User}
	if sess.Validate() != nil {
		return nil, nil
	}
	return sess, nil
}

func (s *RedisSessions) Put(ctx context.Context, key string, sess *models.Session) error {
	raw, err := json.Marshal(record{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken, User: sess.User})
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, keyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisSessions) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Ping reports whether redis is reachable.
func (s *RedisSessions) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
