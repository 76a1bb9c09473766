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
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/tomoncle/magpie/types"
)

// Hasher condenses a canonical query representation into a cache key segment.
type Hasher func([]byte) uint64

// DefaultHasher is xxhash, fast and stable across runs.
var DefaultHasher Hasher = xxhash.Sum64

// KeyBuilder derives the cache keys for one entity namespace:
//
//	{prefix}:id:{id}      point lookups
//	{prefix}:list:{hash}  list results
//
// Two logically identical list queries hash to the same key because the
// query's filter is normalized before serialization.
type KeyBuilder struct {
	prefix string
	hasher Hasher
}

// NewKeyBuilder builds keys under prefix, hashing with h or DefaultHasher
// when h is nil.
func NewKeyBuilder(prefix string, h Hasher) KeyBuilder {
	if h == nil {
		h = DefaultHasher
	}
	return KeyBuilder{prefix: prefix, hasher: h}
}

func (b KeyBuilder) IDKey(id any) string {
	return fmt.Sprintf("%s:id:%v", b.prefix, id)
}

func (b KeyBuilder) ListKey(q types.ListQuery) (string, error) {
	q.Filter = q.Filter.Normalize()
	data, err := json.Marshal(q)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:list:%016x", b.prefix, b.hasher(data)), nil
}

// IDPattern matches every point-lookup key of the namespace.
func (b KeyBuilder) IDPattern() string {
	return b.prefix + ":id:*"
}

// ListPattern matches every list key of the namespace; writes invalidate the
// whole list namespace with it.
func (b KeyBuilder) ListPattern() string {
	return b.prefix + ":list:*"
}
