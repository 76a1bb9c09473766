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

// Package cache provides byte-oriented cache stores and the key scheme used
// for cache-aside entity access: an in-process sturdyc backend and a Redis
// backend behind one Store interface.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache. Get reports a miss as (nil, nil); only
// transport or backend failures surface as errors. ttl <= 0 means the
// backend's default expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeleteByPattern removes every key matching a glob pattern such as
	// "user:list:*".
	DeleteByPattern(ctx context.Context, pattern string) error
}
