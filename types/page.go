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

// Pagination defaults. Limits above MaxLimit are clamped, never rejected.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// OffsetRequest describes offset pagination parameters as supplied by a
// client.
type OffsetRequest struct {
	Page   int       `json:"page"`
	Limit  int       `json:"limit"`
	SortBy string    `json:"sort_by"`
	Order  SortOrder `json:"order"`
}

// Normalize clamps the request into valid bounds. maxLimit <= 0 means the
// package default.
func (r OffsetRequest) Normalize(maxLimit int) OffsetRequest {
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if r.Page < 1 {
		r.Page = DefaultPage
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > maxLimit {
		r.Limit = maxLimit
	}
	if !r.Order.IsValid() {
		r.Order = ParseSortOrder(string(r.Order))
	}
	return r
}

// Offset returns the number of rows to skip.
func (r OffsetRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

// ListQuery normalizes the request into the query descriptor consumed by
// repositories and services.
func (r OffsetRequest) ListQuery(maxLimit int) ListQuery {
	r = r.Normalize(maxLimit)
	return ListQuery{SortBy: r.SortBy, Order: r.Order, Page: r.Page, Limit: r.Limit}
}

// CursorRequest describes keyset pagination parameters. Cursor is the opaque
// token from a previous response; empty means the first page.
type CursorRequest struct {
	Cursor string    `json:"cursor"`
	Limit  int       `json:"limit"`
	SortBy string    `json:"sort_by"`
	Order  SortOrder `json:"order"`
}

func (r CursorRequest) Normalize(maxLimit int) CursorRequest {
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > maxLimit {
		r.Limit = maxLimit
	}
	if !r.Order.IsValid() {
		r.Order = ParseSortOrder(string(r.Order))
	}
	return r
}

// ListQuery normalizes the request into a first-page query descriptor. The
// Cursor token travels separately; decoding it pins the continuation window.
func (r CursorRequest) ListQuery(maxLimit int) ListQuery {
	r = r.Normalize(maxLimit)
	return ListQuery{SortBy: r.SortBy, Order: r.Order, Limit: r.Limit}
}

// PageMeta is offset pagination metadata.
type PageMeta struct {
	CurrentPage  int  `json:"current_page"`
	PageSize     int  `json:"page_size"`
	TotalRecords int  `json:"total_records"`
	TotalPages   int  `json:"total_pages"`
	HasNextPage  bool `json:"has_next_page"`
}

// NewPageMeta computes offset metadata from the normalized request and the
// total row count.
func NewPageMeta(page, limit, total int) PageMeta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PageMeta{
		CurrentPage:  page,
		PageSize:     limit,
		TotalRecords: total,
		TotalPages:   totalPages,
		HasNextPage:  page < totalPages,
	}
}

// Page holds one offset-paginated result window.
type Page[T any] struct {
	Items []*T     `json:"items"`
	Meta  PageMeta `json:"meta_data"`
}

// CursorMeta is keyset pagination metadata. NextCursor and PrevCursor are
// empty on an empty page, signaling end of stream.
type CursorMeta struct {
	NextCursor string    `json:"next_cursor,omitempty"`
	PrevCursor string    `json:"prev_cursor,omitempty"`
	Take       int       `json:"take"`
	SortBy     string    `json:"sort_by"`
	Order      SortOrder `json:"order"`
}

// CursorPage holds one keyset-paginated result window.
type CursorPage[T any] struct {
	Items []*T       `json:"items"`
	Meta  CursorMeta `json:"meta_data"`
}

// ListQuery is the fully normalized shape of a list operation: typed filter,
// raw escape hatch, projection, soft-delete visibility, ordering, and exactly
// one pagination mode. Two logically identical queries normalize to identical
// shapes, which is what list cache keys are derived from.
type ListQuery struct {
	Filter      Filter       `json:"filter,omitempty"`
	Raw         *QueryFilter `json:"raw,omitempty"`
	Relations   []string     `json:"relations,omitempty"`
	Columns     []string     `json:"columns,omitempty"`
	WithDeleted bool         `json:"with_deleted,omitempty"`
	SortBy      string       `json:"sort_by"`
	Order       SortOrder    `json:"order"`
	Page        int          `json:"page,omitempty"`
	Limit       int          `json:"limit"`
	After       *Cursor      `json:"after,omitempty"`
}
