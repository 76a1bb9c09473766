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

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/magpie/types"
)

type baseRepositoryImpl[T any] struct {
	db  *bun.DB
	cfg Config
}

// NewRepository returns a generic repository backed by the provided Bun DB.
func NewRepository[T any](db *bun.DB, cfg Config) Repository[T] {
	return &baseRepositoryImpl[T]{db: db, cfg: cfg.withDefaults()}
}

func (r *baseRepositoryImpl[T]) DB() *bun.DB { return r.db }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) SupportsSoftDelete() bool { return r.cfg.SoftDelete }

// conn resolves the active connection: the transaction carried by ctx when
// present, the repository's own DB otherwise.
func (r *baseRepositoryImpl[T]) conn(ctx context.Context) bun.IDB {
	if idb, ok := TxFromContext(ctx); ok {
		return idb
	}
	return r.db
}

func (r *baseRepositoryImpl[T]) Insert(ctx context.Context, entities ...*T) error {
	rows := make([]*T, len(entities))
	copy(rows, entities)
	_, err := r.conn(ctx).NewInsert().Model(&rows).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) FindByID(ctx context.Context, id any, opts ...QueryOption) (*T, error) {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	var entity T
	query := r.conn(ctx).NewSelect().Model(&entity).
		Where("? = ?", bun.Ident(r.cfg.IDColumn), id)
	query = r.applyOptions(query, o)
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) FindOne(ctx context.Context, filter types.Filter, opts ...QueryOption) (*T, error) {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	var entity T
	query := r.conn(ctx).NewSelect().Model(&entity)
	query = r.applyFilter(query, filter)
	query = r.applyOptions(query, o)
	err := query.Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) FindAndCount(ctx context.Context, q types.ListQuery) ([]*T, int, error) {
	var entities []*T
	query := r.conn(ctx).NewSelect().Model(&entities)
	query = r.applyListQuery(query, q)
	query = r.applyOrder(query, q.SortBy, q.Order)

	page := q.Page
	if page < 1 {
		page = types.DefaultPage
	}
	limit := r.clampLimit(q.Limit)
	total, err := query.Offset((page - 1) * limit).Limit(limit).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

// FindPage wraps FindAndCount in a ready-to-serve page envelope.
func (r *baseRepositoryImpl[T]) FindPage(ctx context.Context, q types.ListQuery) (*types.Page[T], error) {
	rows, total, err := r.FindAndCount(ctx, q)
	if err != nil {
		return nil, err
	}
	page := q.Page
	if page < 1 {
		page = types.DefaultPage
	}
	return &types.Page[T]{
		Items: rows,
		Meta:  types.NewPageMeta(page, r.clampLimit(q.Limit), total),
	}, nil
}

func (r *baseRepositoryImpl[T]) FindCursorPage(ctx context.Context, q types.ListQuery) ([]*T, error) {
	var entities []*T
	query := r.conn(ctx).NewSelect().Model(&entities)
	query = r.applyListQuery(query, q)
	if q.After != nil {
		query = r.applyCursorWindow(query, *q.After)
	}
	query = r.applyOrder(query, q.SortBy, q.Order)
	if err := query.Limit(r.clampLimit(q.Limit)).Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) UpdateByID(ctx context.Context, id any, patch map[string]any) error {
	if len(patch) == 0 {
		return nil
	}
	var entity T
	query := r.conn(ctx).NewUpdate().Model(&entity).
		Where("? = ?", bun.Ident(r.cfg.IDColumn), id)
	if r.cfg.SoftDelete {
		query = query.Where("? IS NULL", bun.Ident(r.cfg.SoftDeleteColumn))
	}
	for _, col := range sortedKeys(patch) {
		query = query.Set("? = ?", bun.Ident(col), patch[col])
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, res, id, false)
}

func (r *baseRepositoryImpl[T]) DeleteByID(ctx context.Context, id any) error {
	var entity T
	res, err := r.conn(ctx).NewDelete().Model(&entity).
		Where("? = ?", bun.Ident(r.cfg.IDColumn), id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDeleteByID stamps the soft-delete column. Repositories without the
// capability fall back to a hard delete. Deleting an already-deleted row is
// an idempotent success.
func (r *baseRepositoryImpl[T]) SoftDeleteByID(ctx context.Context, id any) error {
	if !r.cfg.SoftDelete {
		return r.DeleteByID(ctx, id)
	}
	var entity T
	res, err := r.conn(ctx).NewUpdate().Model(&entity).
		Set("? = ?", bun.Ident(r.cfg.SoftDeleteColumn), time.Now()).
		Where("? = ?", bun.Ident(r.cfg.IDColumn), id).
		Where("? IS NULL", bun.Ident(r.cfg.SoftDeleteColumn)).
		Exec(ctx)
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, res, id, true)
}

// RestoreByID clears the soft-delete column. Without the capability it is a
// no-op; restoring a live row succeeds unchanged.
func (r *baseRepositoryImpl[T]) RestoreByID(ctx context.Context, id any) error {
	if !r.cfg.SoftDelete {
		return nil
	}
	var entity T
	res, err := r.conn(ctx).NewUpdate().Model(&entity).
		Set("? = NULL", bun.Ident(r.cfg.SoftDeleteColumn)).
		Where("? = ?", bun.Ident(r.cfg.IDColumn), id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, res, id, true)
}

func (r *baseRepositoryImpl[T]) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ContextWithTx(ctx, tx))
	})
}

// checkAffected distinguishes "row missing" from "statement matched but
// changed nothing". MySQL reports zero affected rows for no-op updates, so a
// zero count falls back to an existence probe before reporting sql.ErrNoRows.
func (r *baseRepositoryImpl[T]) checkAffected(ctx context.Context, res sql.Result, id any, withDeleted bool) error {
	n, err := res.RowsAffected()
	if err != nil || n > 0 {
		return nil
	}
	var entity T
	query := r.conn(ctx).NewSelect().Model(&entity).
		Where("? = ?", bun.Ident(r.cfg.IDColumn), id)
	if r.cfg.SoftDelete && !withDeleted {
		query = query.Where("? IS NULL", bun.Ident(r.cfg.SoftDeleteColumn))
	}
	exists, err := query.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return sql.ErrNoRows
	}
	return nil
}

// clampLimit caps the page size at MaxLimit plus one row, leaving room for
// callers that fetch an extra row to probe for a following page.
func (r *baseRepositoryImpl[T]) clampLimit(limit int) int {
	if limit < 1 {
		return types.DefaultLimit
	}
	if limit > r.cfg.MaxLimit+1 {
		return r.cfg.MaxLimit + 1
	}
	return limit
}

func (r *baseRepositoryImpl[T]) applyOptions(query *bun.SelectQuery, o queryOptions) *bun.SelectQuery {
	for _, rel := range o.relations {
		query = query.Relation(rel)
	}
	if len(o.columns) > 0 {
		query = query.Column(o.columns...)
	}
	if r.cfg.SoftDelete && !o.withDeleted {
		query = query.Where("? IS NULL", bun.Ident(r.cfg.SoftDeleteColumn))
	}
	return query
}

func (r *baseRepositoryImpl[T]) applyListQuery(query *bun.SelectQuery, q types.ListQuery) *bun.SelectQuery {
	query = r.applyFilter(query, q.Filter)
	if q.Raw != nil {
		query = query.Where(q.Raw.Schema, q.Raw.Args...)
	}
	return r.applyOptions(query, queryOptions{
		relations:   q.Relations,
		columns:     q.Columns,
		withDeleted: q.WithDeleted,
	})
}

func (r *baseRepositoryImpl[T]) applyFilter(query *bun.SelectQuery, filter types.Filter) *bun.SelectQuery {
	for _, p := range filter {
		col := bun.Ident(p.Field)
		switch p.Op {
		case types.OpEq:
			query = query.Where("? = ?", col, p.Values[0])
		case types.OpNotEq:
			query = query.Where("? != ?", col, p.Values[0])
		case types.OpGt:
			query = query.Where("? > ?", col, p.Values[0])
		case types.OpGte:
			query = query.Where("? >= ?", col, p.Values[0])
		case types.OpLt:
			query = query.Where("? < ?", col, p.Values[0])
		case types.OpLte:
			query = query.Where("? <= ?", col, p.Values[0])
		case types.OpIn:
			query = query.Where("? IN (?)", col, bun.In(p.Values))
		case types.OpBetween:
			query = query.Where("? BETWEEN ? AND ?", col, p.Values[0], p.Values[1])
		case types.OpContains:
			query = query.Where("? LIKE ?", col, fmt.Sprintf("%%%v%%", p.Values[0]))
		case types.OpIsNull:
			query = query.Where("? IS NULL", col)
		case types.OpNotNull:
			query = query.Where("? IS NOT NULL", col)
		}
	}
	return query
}

// applyOrder sorts by the requested column with the id column appended as a
// tiebreaker, both in the same direction. Equal sort values then page
// deterministically.
func (r *baseRepositoryImpl[T]) applyOrder(query *bun.SelectQuery, sortBy string, order types.SortOrder) *bun.SelectQuery {
	if !order.IsValid() {
		order = types.OrderAsc
	}
	direction := bun.Safe(order.String())
	if sortBy == "" || sortBy == r.cfg.IDColumn {
		return query.OrderExpr("? ?", bun.Ident(r.cfg.IDColumn), direction)
	}
	return query.
		OrderExpr("? ?", bun.Ident(sortBy), direction).
		OrderExpr("? ?", bun.Ident(r.cfg.IDColumn), direction)
}

// applyCursorWindow selects rows strictly after the cursor position:
// (sort > v) OR (sort = v AND id > tie), with > flipped for descending order.
func (r *baseRepositoryImpl[T]) applyCursorWindow(query *bun.SelectQuery, cur types.Cursor) *bun.SelectQuery {
	cmp := bun.Safe(cur.SortOrder.Comparator())
	tie := types.ParseSortValue(cur.TiebreakID)
	idCol := bun.Ident(r.cfg.IDColumn)
	if cur.SortField == "" || cur.SortField == r.cfg.IDColumn {
		return query.Where("? ? ?", idCol, cmp, tie)
	}
	sortCol := bun.Ident(cur.SortField)
	val := types.ParseSortValue(cur.SortValue)
	return query.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("? ? ?", sortCol, cmp, val).
			WhereOr("? = ? AND ? ? ?", sortCol, val, idCol, cmp, tie)
	})
}

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, conflictColumns []string, entities ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}
	rows := make([]*T, len(entities))
	copy(rows, entities)

	switch {
	case r.db.HasFeature(feature.InsertOnConflict):
		return r.upsertOnConflict(ctx, fields, conflictColumns, rows)
	case r.db.HasFeature(feature.InsertOnDuplicateKey):
		return r.upsertOnDuplicateKey(ctx, fields, rows)
	default:
		return r.upsertFallback(ctx, rows)
	}
}

func (r *baseRepositoryImpl[T]) upsertOnDuplicateKey(ctx context.Context, fields []string, rows []*T) error {
	var assignments []string
	for _, field := range fields {
		assignments = append(assignments, fmt.Sprintf("%s = VALUES(%s)", bun.Ident(field), bun.Ident(field)))
	}
	_, err := r.conn(ctx).NewInsert().
		Model(&rows).
		On("DUPLICATE KEY UPDATE " + strings.Join(assignments, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertOnConflict(ctx context.Context, fields []string, conflictColumns []string, rows []*T) error {
	if len(conflictColumns) == 0 {
		conflictColumns = []string{r.cfg.IDColumn}
	}
	var assignments []string
	for _, field := range fields {
		assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", bun.Ident(field), bun.Ident(field)))
	}
	_, err := r.conn(ctx).NewInsert().
		Model(&rows).
		On("CONFLICT (" + strings.Join(conflictColumns, ",") + ") DO UPDATE").
		Set(strings.Join(assignments, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, rows []*T) error {
	for _, row := range rows {
		if _, err := r.conn(ctx).NewInsert().Model(row).Exec(ctx); err != nil {
			if _, updateErr := r.conn(ctx).NewUpdate().Model(row).WherePK().Exec(ctx); updateErr != nil {
				return fmt.Errorf("upsert failed: insert error: %v, update error: %v", err, updateErr)
			}
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
