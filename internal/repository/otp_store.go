package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPStore holds one-time login codes (argon2id hashes, never the raw code)
// with TTL-driven expiry. Backed by Redis so multiple instances share state.
type OTPStore interface {
	Save(ctx context.Context, phone, codeHash string, ttl time.Duration) error
	Get(ctx context.Context, phone string) (string, error)
	Delete(ctx context.Context, phone string) error
}

type redisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) OTPStore {
	return &redisOTPStore{client: client}
}

func otpKey(phone string) string {
	return "guardianlink:otp:" + phone
}

func (s *redisOTPStore) Save(ctx context.Context, phone, codeHash string, ttl time.Duration) error {
	return s.client.Set(ctx, otpKey(phone), codeHash, ttl).Err()
}

func (s *redisOTPStore) Get(ctx context.Context, phone string) (string, error) {
	val, err := s.client.Get(ctx, otpKey(phone)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (s *redisOTPStore) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, otpKey(phone)).Err()
}
