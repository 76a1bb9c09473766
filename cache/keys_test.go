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
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/magpie/types"
)

func TestKeyBuilderIDKey(t *testing.T) {
	keys := NewKeyBuilder("user", nil)
	assert.Equal(t, "user:id:42", keys.IDKey(42))
	assert.Equal(t, "user:id:a-b-c", keys.IDKey("a-b-c"))
}

func TestListKeyStableUnderFilterOrder(t *testing.T) {
	keys := NewKeyBuilder("user", nil)

	a, err := keys.ListKey(types.ListQuery{
		Filter: types.Filter{types.Eq("status", "active"), types.Gt("age", 18)},
		SortBy: "created_at", Order: types.OrderDesc, Page: 1, Limit: 10,
	})
	require.NoError(t, err)

	b, err := keys.ListKey(types.ListQuery{
		Filter: types.Filter{types.Gt("age", 18), types.Eq("status", "active")},
		SortBy: "created_at", Order: types.OrderDesc, Page: 1, Limit: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestListKeyDistinguishesQueries(t *testing.T) {
	keys := NewKeyBuilder("user", nil)

	base := types.ListQuery{SortBy: "id", Order: types.OrderAsc, Page: 1, Limit: 10}
	a, err := keys.ListKey(base)
	require.NoError(t, err)

	changed := base
	changed.Page = 2
	b, err := keys.ListKey(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	deleted := base
	deleted.WithDeleted = true
	c, err := keys.ListKey(deleted)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestListKeyMatchesListPattern(t *testing.T) {
	keys := NewKeyBuilder("user", nil)
	key, err := keys.ListKey(types.ListQuery{SortBy: "id", Limit: 10})
	require.NoError(t, err)

	ok, err := path.Match(keys.ListPattern(), key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = path.Match(keys.ListPattern(), keys.IDKey(1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCustomHasher(t *testing.T) {
	calls := 0
	keys := NewKeyBuilder("user", func(b []byte) uint64 {
		calls++
		return 7
	})
	key, err := keys.ListKey(types.ListQuery{SortBy: "id", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "user:list:0000000000000007", key)
	assert.Equal(t, 1, calls)
}
