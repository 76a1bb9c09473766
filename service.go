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
	"context"
	"time"

	"github.com/tomoncle/magpie/cache"
	"github.com/tomoncle/magpie/database"
	"github.com/tomoncle/magpie/repository"
	"github.com/tomoncle/magpie/types"
	"github.com/tomoncle/magpie/utils"
)

type Service[T any] interface {
	// Create inserts a new entity after the before-create hook passes.
	Create(ctx context.Context, entity *T) (*T, error)

	// FindByID returns a single entity, NotFound when absent or hidden by
	// the soft-delete filter.
	FindByID(ctx context.Context, id any, opts ...repository.QueryOption) (*T, error)

	// FindOne returns the first entity matching the filter, nil when none.
	FindOne(ctx context.Context, filter types.Filter, opts ...repository.QueryOption) (*T, error)

	// ListOffset returns one page with total counts.
	ListOffset(ctx context.Context, q types.ListQuery) (*types.Page[T], error)

	// ListCursor returns one keyset page; token is the cursor from a
	// previous response, empty for the first page.
	ListCursor(ctx context.Context, q types.ListQuery, token string) (*types.CursorPage[T], error)

	// Update applies a column patch and returns the fresh entity.
	Update(ctx context.Context, id any, patch map[string]any) (*T, error)

	// Remove deletes the row permanently.
	Remove(ctx context.Context, id any) error

	// SoftDelete hides the row, or removes it when the repository has no
	// soft-delete capability.
	SoftDelete(ctx context.Context, id any) error

	// Restore brings a soft-deleted row back; a no-op without the capability.
	Restore(ctx context.Context, id any) error

	// RunInTransaction executes fn with every repository call inside one
	// transaction.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// BuildFilter translates raw caller filters through the configured
	// condition builder.
	BuildFilter(ctx context.Context, raw map[string]string, defaultSearchField string) (types.Filter, error)

	// Repository exposes the underlying persistence port.
	Repository() repository.Repository[T]
}

type baseServiceImpl[T any] struct {
	repo     repository.Repository[T]
	entity   string
	idColumn string
	maxLimit int

	policy  *repository.AccessPolicy
	hooks   Hooks[T]
	codec   types.CursorCodec
	builder types.ConditionBuilder

	cacheStore cache.Store
	cacheTTL   time.Duration
	hasher     cache.Hasher
	ns         *cache.Namespace[T]

	logger *utils.Logger
}

// New builds an entity service around an existing repository.
func New[T any](repo repository.Repository[T], opts ...Option[T]) Service[T] {
	s := &baseServiceImpl[T]{
		repo:     repo,
		entity:   entityNameOf[T](),
		idColumn: "id",
		maxLimit: types.MaxLimit,
		codec:    types.PlainCursorCodec{},
		logger:   utils.NewLogger("SERVICE"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cacheStore != nil {
		s.ns = cache.NewNamespace[T](s.cacheStore, cache.NewKeyBuilder(s.entity, s.hasher), s.cacheTTL)
	}
	return s
}

// NewService builds a Service for T using the generic repository backed by
// the global database connection.
func NewService[T any](cfg repository.Config, opts ...Option[T]) Service[T] {
	return New[T](repository.NewRepository[T](database.GetDB(), cfg), opts...)
}

func (s *baseServiceImpl[T]) Repository() repository.Repository[T] { return s.repo }

func (s *baseServiceImpl[T]) Create(ctx context.Context, entity *T) (*T, error) {
	if s.hooks.BeforeCreate != nil {
		if err := s.hooks.BeforeCreate(ctx, entity); err != nil {
			return nil, err
		}
	}
	assignGeneratedID(entity, s.idColumn)
	if err := s.repo.Insert(ctx, entity); err != nil {
		return nil, database.Translate(err, s.entity, nil)
	}
	s.invalidate(ctx, s.entityID(entity))
	if s.hooks.AfterCreate != nil {
		s.hooks.AfterCreate(ctx, entity)
	}
	return entity, nil
}

func (s *baseServiceImpl[T]) FindByID(ctx context.Context, id any, opts ...repository.QueryOption) (*T, error) {
	if err := s.validateLookupOptions(opts); err != nil {
		return nil, err
	}
	// Point lookups cache the full default row; customized lookups bypass.
	cacheable := s.cacheUsable(ctx) && len(opts) == 0
	if cacheable {
		if hit := s.ns.GetByID(ctx, id); hit != nil {
			return hit, nil
		}
	}
	entity, err := s.repo.FindByID(ctx, id, opts...)
	if err != nil {
		return nil, database.Translate(err, s.entity, id)
	}
	if cacheable {
		s.ns.PutByID(ctx, id, entity)
	}
	return entity, nil
}

func (s *baseServiceImpl[T]) FindOne(ctx context.Context, filter types.Filter, opts ...repository.QueryOption) (*T, error) {
	if s.policy != nil {
		if err := s.policy.ValidateFilterFields(filter.Fields()); err != nil {
			return nil, err
		}
	}
	if err := s.validateLookupOptions(opts); err != nil {
		return nil, err
	}
	entity, err := s.repo.FindOne(ctx, filter, opts...)
	if err != nil {
		return nil, database.Translate(err, s.entity, nil)
	}
	return entity, nil
}

func (s *baseServiceImpl[T]) ListOffset(ctx context.Context, q types.ListQuery) (*types.Page[T], error) {
	q = s.normalizeList(q)
	q.After = nil
	if q.Page < 1 {
		q.Page = types.DefaultPage
	}
	if err := s.validateList(q); err != nil {
		return nil, err
	}
	if s.hooks.OnListQuery != nil {
		if err := s.hooks.OnListQuery(ctx, &q); err != nil {
			return nil, err
		}
	}
	useCache := s.cacheUsable(ctx)
	if useCache {
		var page types.Page[T]
		if s.ns.GetList(ctx, q, &page) {
			return &page, nil
		}
	}
	items, total, err := s.repo.FindAndCount(ctx, q)
	if err != nil {
		return nil, database.Translate(err, s.entity, nil)
	}
	page := &types.Page[T]{Items: items, Meta: types.NewPageMeta(q.Page, q.Limit, total)}
	if useCache {
		s.ns.PutList(ctx, q, page)
	}
	return page, nil
}

func (s *baseServiceImpl[T]) ListCursor(ctx context.Context, q types.ListQuery, token string) (*types.CursorPage[T], error) {
	cur, err := s.codec.Decode(token)
	if err != nil {
		return nil, database.NewValidation(database.MsgBadCursor, map[string]any{"entity": s.entity})
	}
	if cur != nil {
		// The cursor pins the continuation's ordering; mid-stream sort
		// changes would skip or repeat rows.
		q.SortBy = cur.SortField
		q.Order = cur.SortOrder
		q.After = cur
	}
	q = s.normalizeList(q)
	q.Page = 0
	if err := s.validateList(q); err != nil {
		return nil, err
	}
	if s.hooks.OnListQuery != nil {
		if err := s.hooks.OnListQuery(ctx, &q); err != nil {
			return nil, err
		}
	}
	useCache := s.cacheUsable(ctx)
	if useCache {
		var page types.CursorPage[T]
		if s.ns.GetList(ctx, q, &page) {
			return &page, nil
		}
	}

	take := q.Limit
	probe := q
	probe.Limit = take + 1
	rows, err := s.repo.FindCursorPage(ctx, probe)
	if err != nil {
		return nil, database.Translate(err, s.entity, nil)
	}
	hasMore := len(rows) > take
	if hasMore {
		rows = rows[:take]
	}

	meta := types.CursorMeta{Take: take, SortBy: q.SortBy, Order: q.Order}
	if hasMore {
		meta.NextCursor, err = s.encodeCursor(rows[len(rows)-1], q.SortBy, q.Order)
		if err != nil {
			return nil, database.NewInternal(s.entity, err)
		}
	}
	if q.After != nil && len(rows) > 0 {
		meta.PrevCursor, err = s.encodeCursor(rows[0], q.SortBy, q.Order.Reversed())
		if err != nil {
			return nil, database.NewInternal(s.entity, err)
		}
	}
	page := &types.CursorPage[T]{Items: rows, Meta: meta}
	if useCache {
		s.ns.PutList(ctx, q, page)
	}
	return page, nil
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, id any, patch map[string]any) (*T, error) {
	if s.hooks.BeforeUpdate != nil {
		if err := s.hooks.BeforeUpdate(ctx, id, patch); err != nil {
			return nil, err
		}
	}
	if err := s.repo.UpdateByID(ctx, id, patch); err != nil {
		return nil, database.Translate(err, s.entity, id)
	}
	s.invalidate(ctx, id)
	entity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, database.Translate(err, s.entity, id)
	}
	if s.hooks.AfterUpdate != nil {
		s.hooks.AfterUpdate(ctx, entity)
	}
	return entity, nil
}

func (s *baseServiceImpl[T]) Remove(ctx context.Context, id any) error {
	return s.delete(ctx, id, s.repo.DeleteByID)
}

func (s *baseServiceImpl[T]) SoftDelete(ctx context.Context, id any) error {
	return s.delete(ctx, id, s.repo.SoftDeleteByID)
}

func (s *baseServiceImpl[T]) delete(ctx context.Context, id any, del func(context.Context, any) error) error {
	if s.hooks.BeforeDelete != nil {
		if err := s.hooks.BeforeDelete(ctx, id); err != nil {
			return err
		}
	}
	if err := del(ctx, id); err != nil {
		return database.Translate(err, s.entity, id)
	}
	s.invalidate(ctx, id)
	if s.hooks.AfterDelete != nil {
		s.hooks.AfterDelete(ctx, id)
	}
	return nil
}

func (s *baseServiceImpl[T]) Restore(ctx context.Context, id any) error {
	if err := s.repo.RestoreByID(ctx, id); err != nil {
		return database.Translate(err, s.entity, id)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *baseServiceImpl[T]) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.repo.RunInTx(ctx, fn)
}

func (s *baseServiceImpl[T]) BuildFilter(ctx context.Context, raw map[string]string, defaultSearchField string) (types.Filter, error) {
	if s.builder == nil {
		return nil, nil
	}
	filter, err := s.builder.Build(raw, defaultSearchField)
	if err != nil {
		return nil, err
	}
	if s.policy != nil {
		if err := s.policy.ValidateFilterFields(filter.Fields()); err != nil {
			return nil, err
		}
	}
	return filter, nil
}

// cacheUsable reports whether the shared cache may serve or record a read.
// Reads inside a transaction see uncommitted state, so they never touch the
// cache; a rolled-back row must not outlive its transaction there.
func (s *baseServiceImpl[T]) cacheUsable(ctx context.Context) bool {
	if s.ns == nil {
		return false
	}
	_, inTx := repository.TxFromContext(ctx)
	return !inTx
}

// validateLookupOptions screens point-lookup customizations against the
// access policy before any query is built.
func (s *baseServiceImpl[T]) validateLookupOptions(opts []repository.QueryOption) error {
	if s.policy == nil || len(opts) == 0 {
		return nil
	}
	relations, columns, _ := repository.ResolveOptions(opts...)
	if err := s.policy.ValidateRelations(relations); err != nil {
		return err
	}
	return s.policy.ValidateColumns(columns)
}

func (s *baseServiceImpl[T]) normalizeList(q types.ListQuery) types.ListQuery {
	q.Filter = q.Filter.Normalize()
	if q.SortBy == "" {
		q.SortBy = s.idColumn
	}
	if !q.Order.IsValid() {
		q.Order = types.OrderAsc
	}
	if q.Limit < 1 {
		q.Limit = types.DefaultLimit
	}
	if q.Limit > s.maxLimit {
		q.Limit = s.maxLimit
	}
	return q
}

func (s *baseServiceImpl[T]) validateList(q types.ListQuery) error {
	if s.policy == nil {
		return nil
	}
	if err := s.policy.ValidateRelations(q.Relations); err != nil {
		return err
	}
	if err := s.policy.ValidateColumns(q.Columns); err != nil {
		return err
	}
	if err := s.policy.ValidateFilterFields(q.Filter.Fields()); err != nil {
		return err
	}
	return s.policy.ValidateSort(q.SortBy, s.idColumn)
}

func (s *baseServiceImpl[T]) encodeCursor(row *T, sortBy string, order types.SortOrder) (string, error) {
	id, ok := fieldValueByColumn(row, s.idColumn)
	if !ok {
		return "", database.NewInternal(s.entity, nil)
	}
	cur := types.Cursor{
		SortField:  sortBy,
		SortOrder:  order,
		TiebreakID: types.FormatSortValue(id),
	}
	if sortBy != s.idColumn {
		val, ok := fieldValueByColumn(row, sortBy)
		if !ok {
			return "", database.NewInternal(s.entity, nil)
		}
		cur.SortValue = types.FormatSortValue(val)
	} else {
		cur.SortValue = cur.TiebreakID
	}
	return s.codec.Encode(cur)
}

func (s *baseServiceImpl[T]) entityID(entity *T) any {
	if id, ok := fieldValueByColumn(entity, s.idColumn); ok {
		return id
	}
	return nil
}

func (s *baseServiceImpl[T]) invalidate(ctx context.Context, id any) {
	if s.ns == nil {
		return
	}
	s.ns.Invalidate(ctx, id)
}
