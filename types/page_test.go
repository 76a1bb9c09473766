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

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffsetRequestNormalize(t *testing.T) {
	r := OffsetRequest{Page: 0, Limit: -5}.Normalize(0)
	assert.Equal(t, DefaultPage, r.Page)
	assert.Equal(t, DefaultLimit, r.Limit)

	r = OffsetRequest{Page: 3, Limit: 1000}.Normalize(0)
	assert.Equal(t, 3, r.Page)
	assert.Equal(t, MaxLimit, r.Limit)

	r = OffsetRequest{Page: 2, Limit: 30}.Normalize(25)
	assert.Equal(t, 25, r.Limit)
	assert.Equal(t, 25, r.Offset())
}

func TestRequestListQueryBridge(t *testing.T) {
	q := OffsetRequest{Limit: 500, SortBy: "name", Order: "desc"}.ListQuery(0)
	assert.Equal(t, MaxLimit, q.Limit)
	assert.Equal(t, DefaultPage, q.Page)
	assert.Equal(t, OrderDesc, q.Order)
	assert.Equal(t, "name", q.SortBy)

	cq := CursorRequest{SortBy: "name"}.ListQuery(50)
	assert.Equal(t, DefaultLimit, cq.Limit)
	assert.Equal(t, OrderAsc, cq.Order)
	assert.Nil(t, cq.After)
}

func TestNewPageMeta(t *testing.T) {
	meta := NewPageMeta(1, 10, 25)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 25, meta.TotalRecords)
	assert.True(t, meta.HasNextPage)

	meta = NewPageMeta(3, 10, 25)
	assert.False(t, meta.HasNextPage)

	meta = NewPageMeta(1, 10, 0)
	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasNextPage)

	meta = NewPageMeta(1, 10, 10)
	assert.Equal(t, 1, meta.TotalPages)
	assert.False(t, meta.HasNextPage)
}

func TestSortOrder(t *testing.T) {
	assert.Equal(t, OrderAsc, ParseSortOrder(""))
	assert.Equal(t, OrderDesc, ParseSortOrder("desc"))
	assert.Equal(t, OrderAsc, ParseSortOrder("sideways"))

	assert.Equal(t, OrderDesc, OrderAsc.Reversed())
	assert.Equal(t, ">", OrderAsc.Comparator())
	assert.Equal(t, "<", OrderDesc.Comparator())
}
