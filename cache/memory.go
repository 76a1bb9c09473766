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
	"path"
	"time"

	"github.com/viccon/sturdyc"
)

// MemoryConfig configures the in-process sturdyc backend.
type MemoryConfig struct {
	// Capacity is the maximum number of entries. Must be greater than 0.
	Capacity int
	// NumShards splits the cache for concurrent access. Default 256.
	NumShards int
	// TTL is the client-wide time-to-live. sturdyc has no per-entry TTL, so
	// Set ignores its ttl argument for this backend.
	TTL time.Duration
	// EvictionPercentage is how much to evict when full, between 1 and 100.
	// Default 10.
	EvictionPercentage int
	// EvictionInterval overrides how often expired entries are collected.
	// Zero keeps sturdyc's default.
	EvictionInterval time.Duration
}

// DefaultMemoryConfig returns settings suitable for most entity caches.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Capacity:           10000,
		NumShards:          256,
		TTL:                5 * time.Minute,
		EvictionPercentage: 10,
	}
}

func (c MemoryConfig) withDefaults() MemoryConfig {
	if c.NumShards <= 0 {
		c.NumShards = 256
	}
	if c.EvictionPercentage <= 0 {
		c.EvictionPercentage = 10
	}
	return c
}

// Validate reports the first invalid configuration field.
func (c MemoryConfig) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 0 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

// ConfigError is a cache configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "cache config error in field " + e.Field + ": " + e.Message
}

// MemoryStore is a Store backed by an in-process sturdyc client.
type MemoryStore struct {
	client *sturdyc.Client[[]byte]
}

// NewMemoryStore validates cfg and builds the sturdyc client.
func NewMemoryStore(cfg MemoryConfig) (*MemoryStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	var options []sturdyc.Option
	if cfg.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(cfg.EvictionInterval))
	}
	client := sturdyc.New[[]byte](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage, options...)
	return &MemoryStore{client: client}, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	val, ok := s.client.Get(key)
	if !ok {
		return nil, nil
	}
	return val, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	s.client.Set(key, val)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

func (s *MemoryStore) DeleteByPattern(_ context.Context, pattern string) error {
	for _, key := range s.client.ScanKeys() {
		if ok, err := path.Match(pattern, key); err != nil {
			return err
		} else if ok {
			s.client.Delete(key)
		}
	}
	return nil
}
