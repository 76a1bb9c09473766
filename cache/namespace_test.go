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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/magpie/types"
)

type account struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newTestNamespace(t *testing.T) *Namespace[account] {
	t.Helper()
	store := newTestMemoryStore(t)
	return NewNamespace[account](store, NewKeyBuilder("account", nil), time.Minute)
}

func TestNamespacePointRoundTrip(t *testing.T) {
	ctx := context.Background()
	ns := newTestNamespace(t)

	assert.Nil(t, ns.GetByID(ctx, 1))

	ns.PutByID(ctx, 1, &account{ID: 1, Name: "alice"})
	got := ns.GetByID(ctx, 1)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Name)
}

func TestNamespaceListRoundTrip(t *testing.T) {
	ctx := context.Background()
	ns := newTestNamespace(t)
	q := types.ListQuery{SortBy: "id", Order: types.OrderAsc, Page: 1, Limit: 10}

	var miss types.Page[account]
	assert.False(t, ns.GetList(ctx, q, &miss))

	page := types.Page[account]{
		Items: []*account{{ID: 1, Name: "alice"}},
		Meta:  types.NewPageMeta(1, 10, 1),
	}
	ns.PutList(ctx, q, page)

	var hit types.Page[account]
	require.True(t, ns.GetList(ctx, q, &hit))
	require.Len(t, hit.Items, 1)
	assert.Equal(t, "alice", hit.Items[0].Name)
	assert.Equal(t, 1, hit.Meta.TotalRecords)
}

func TestNamespaceInvalidate(t *testing.T) {
	ctx := context.Background()
	ns := newTestNamespace(t)
	q := types.ListQuery{SortBy: "id", Limit: 10}

	ns.PutByID(ctx, 1, &account{ID: 1})
	ns.PutByID(ctx, 2, &account{ID: 2})
	ns.PutList(ctx, q, types.Page[account]{})

	ns.Invalidate(ctx, 1)

	assert.Nil(t, ns.GetByID(ctx, 1))
	// Only the mutated id's point key is dropped.
	assert.NotNil(t, ns.GetByID(ctx, 2))
	var page types.Page[account]
	assert.False(t, ns.GetList(ctx, q, &page))
}

// faultyStore fails every operation, standing in for a dead backend.
type faultyStore struct{}

func (faultyStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("backend down")
}

func (faultyStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("backend down")
}

func (faultyStore) Delete(context.Context, ...string) error {
	return errors.New("backend down")
}

func (faultyStore) DeleteByPattern(context.Context, string) error {
	return errors.New("backend down")
}

func TestNamespaceSwallowsBackendFaults(t *testing.T) {
	ctx := context.Background()
	ns := NewNamespace[account](faultyStore{}, NewKeyBuilder("account", nil), time.Minute)

	assert.Nil(t, ns.GetByID(ctx, 1))
	ns.PutByID(ctx, 1, &account{ID: 1})
	ns.Invalidate(ctx, 1)

	var page types.Page[account]
	assert.False(t, ns.GetList(ctx, types.ListQuery{Limit: 10}, &page))
	ns.PutList(ctx, types.ListQuery{Limit: 10}, page)
}
