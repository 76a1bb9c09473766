/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomoncle/magpie/utils"
)

// RedisConfig holds connection settings for the Redis backend.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	DB       int    `json:"db" yaml:"db"`
	Password string `json:"password" yaml:"password"`
}

// RedisStore is a Store backed by a shared Redis instance.
type RedisStore struct {
	rdb    *redis.Client
	logger *utils.Logger
}

// NewRedisStore connects to Redis with cfg.
func NewRedisStore(cfg RedisConfig) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &RedisStore{rdb: rdb, logger: utils.NewLogger("CACHE")}
}

// NewRedisStoreWithClient wraps an existing client, useful in tests.
func NewRedisStoreWithClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, logger: utils.NewLogger("CACHE")}
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		s.logger.Warnf("GET %q: %v", key, err)
		return nil, err
	}
	return b, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		s.logger.Warnf("SET %q: %v", key, err)
		return err
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.logger.Warnf("DEL %v: %v", keys, err)
		return err
	}
	return nil
}

// DeleteByPattern scans for matching keys in batches and removes them.
// SCAN is used instead of KEYS so large keyspaces do not block the server.
func (s *RedisStore) DeleteByPattern(ctx context.Context, pattern string) error {
	iter := s.rdb.Scan(ctx, 0, pattern, 200).Iterator()
	batch := make([]string, 0, 200)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := s.Delete(ctx, batch...); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warnf("SCAN %q: %v", pattern, err)
		return err
	}
	return s.Delete(ctx, batch...)
}
