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

package magpie

import (
	"time"

	"github.com/tomoncle/magpie/cache"
	"github.com/tomoncle/magpie/repository"
	"github.com/tomoncle/magpie/types"
	"github.com/tomoncle/magpie/utils"
)

// Option customizes a Service built by New.
type Option[T any] func(*baseServiceImpl[T])

// WithEntityName overrides the name derived from the model type. It shows up
// in error args and cache key prefixes.
func WithEntityName[T any](name string) Option[T] {
	return func(s *baseServiceImpl[T]) { s.entity = name }
}

// WithCache enables cache-aside reads backed by store. Entries expire after
// ttl where the backend supports per-entry expiry.
func WithCache[T any](store cache.Store, ttl time.Duration) Option[T] {
	return func(s *baseServiceImpl[T]) {
		s.cacheStore = store
		s.cacheTTL = ttl
	}
}

// WithHasher overrides the hash used for list cache keys.
func WithHasher[T any](h cache.Hasher) Option[T] {
	return func(s *baseServiceImpl[T]) { s.hasher = h }
}

// WithHooks installs lifecycle hooks.
func WithHooks[T any](h Hooks[T]) Option[T] {
	return func(s *baseServiceImpl[T]) { s.hooks = h }
}

// WithAccessPolicy restricts the relations, columns, and sort fields callers
// may name. Without a policy nothing is validated.
func WithAccessPolicy[T any](p repository.AccessPolicy) Option[T] {
	return func(s *baseServiceImpl[T]) { s.policy = &p }
}

// WithCursorCodec swaps the cursor token codec, e.g. for signed tokens.
func WithCursorCodec[T any](c types.CursorCodec) Option[T] {
	return func(s *baseServiceImpl[T]) { s.codec = c }
}

// WithConditionBuilder installs the translator from raw caller filters to
// typed predicates, used by BuildFilter.
func WithConditionBuilder[T any](b types.ConditionBuilder) Option[T] {
	return func(s *baseServiceImpl[T]) { s.builder = b }
}

// WithLogger overrides the service logger.
func WithLogger[T any](l *utils.Logger) Option[T] {
	return func(s *baseServiceImpl[T]) { s.logger = l }
}

// WithIDColumn overrides the id column used for cursor tiebreaks, "id" by
// default. It should match the repository's configuration.
func WithIDColumn[T any](column string) Option[T] {
	return func(s *baseServiceImpl[T]) { s.idColumn = column }
}

// WithMaxLimit caps page sizes at the facade boundary, types.MaxLimit by
// default.
func WithMaxLimit[T any](n int) Option[T] {
	return func(s *baseServiceImpl[T]) { s.maxLimit = n }
}
