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
	"encoding/json"
	"time"

	"github.com/tomoncle/magpie/types"
	"github.com/tomoncle/magpie/utils"
)

// Namespace is the cache-aside coordinator for one entity type. Reads go
// through the cache, writes invalidate the point key and then the whole list
// key family. A cache fault never fails the caller's operation; it is logged
// and treated as a miss.
type Namespace[T any] struct {
	store  Store
	keys   KeyBuilder
	ttl    time.Duration
	logger *utils.Logger
}

// NewNamespace wires a byte store and key scheme into a typed coordinator.
func NewNamespace[T any](store Store, keys KeyBuilder, ttl time.Duration) *Namespace[T] {
	return &Namespace[T]{
		store:  store,
		keys:   keys,
		ttl:    ttl,
		logger: utils.NewLogger("CACHE"),
	}
}

// Keys exposes the namespace's key builder.
func (n *Namespace[T]) Keys() KeyBuilder { return n.keys }

// GetByID returns the cached entity or nil on miss.
func (n *Namespace[T]) GetByID(ctx context.Context, id any) *T {
	var entity T
	if !n.getJSON(ctx, n.keys.IDKey(id), &entity) {
		return nil
	}
	return &entity
}

// PutByID stores the entity under its point key.
func (n *Namespace[T]) PutByID(ctx context.Context, id any, entity *T) {
	n.putJSON(ctx, n.keys.IDKey(id), entity)
}

// GetList unmarshals a cached list payload for the normalized query into
// dest, reporting whether it was a hit.
func (n *Namespace[T]) GetList(ctx context.Context, q types.ListQuery, dest any) bool {
	key, err := n.keys.ListKey(q)
	if err != nil {
		n.logger.Warnf("list key for %s: %v", n.keys.prefix, err)
		return false
	}
	return n.getJSON(ctx, key, dest)
}

// PutList stores a list payload under the normalized query's key.
func (n *Namespace[T]) PutList(ctx context.Context, q types.ListQuery, payload any) {
	key, err := n.keys.ListKey(q)
	if err != nil {
		n.logger.Warnf("list key for %s: %v", n.keys.prefix, err)
		return
	}
	n.putJSON(ctx, key, payload)
}

// Invalidate drops the point key for id and every list key of the namespace.
// Called after each successful mutation.
func (n *Namespace[T]) Invalidate(ctx context.Context, id any) {
	if err := n.store.Delete(ctx, n.keys.IDKey(id)); err != nil {
		n.logger.Warnf("invalidate %s: %v", n.keys.IDKey(id), err)
	}
	if err := n.store.DeleteByPattern(ctx, n.keys.ListPattern()); err != nil {
		n.logger.Warnf("invalidate %s: %v", n.keys.ListPattern(), err)
	}
}

func (n *Namespace[T]) getJSON(ctx context.Context, key string, dest any) bool {
	data, err := n.store.Get(ctx, key)
	if err != nil {
		n.logger.Warnf("get %s: %v", key, err)
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		n.logger.Warnf("decode %s: %v", key, err)
		return false
	}
	return true
}

func (n *Namespace[T]) putJSON(ctx context.Context, key string, val any) {
	data, err := json.Marshal(val)
	if err != nil {
		n.logger.Warnf("encode %s: %v", key, err)
		return
	}
	if err := n.store.Set(ctx, key, data, n.ttl); err != nil {
		n.logger.Warnf("set %s: %v", key, err)
	}
}
