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

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/magpie/types"
)

// Config controls per-entity repository behavior. Soft delete is opt-in at
// construction time; a repository built without it performs hard deletes and
// treats restore as a no-op.
type Config struct {
	// SoftDelete marks rows deleted by stamping SoftDeleteColumn instead of
	// removing them.
	SoftDelete bool
	// SoftDeleteColumn is the nullable timestamp column, "deleted_at" when
	// empty.
	SoftDeleteColumn string
	// IDColumn is the primary key column, "id" when empty. It also serves as
	// the ordering tiebreaker for every list query.
	IDColumn string
	// MaxLimit caps page sizes, types.MaxLimit when zero.
	MaxLimit int
}

func (c Config) withDefaults() Config {
	if c.SoftDeleteColumn == "" {
		c.SoftDeleteColumn = "deleted_at"
	}
	if c.IDColumn == "" {
		c.IDColumn = "id"
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = types.MaxLimit
	}
	return c
}

type queryOptions struct {
	relations   []string
	columns     []string
	withDeleted bool
}

// QueryOption customizes single-entity lookups.
type QueryOption func(*queryOptions)

// WithRelations eager-loads the named Bun relations.
func WithRelations(relations ...string) QueryOption {
	return func(o *queryOptions) { o.relations = append(o.relations, relations...) }
}

// WithColumns restricts the selected columns.
func WithColumns(columns ...string) QueryOption {
	return func(o *queryOptions) { o.columns = append(o.columns, columns...) }
}

// WithDeleted includes soft-deleted rows in the lookup.
func WithDeleted() QueryOption {
	return func(o *queryOptions) { o.withDeleted = true }
}

// ResolveOptions applies opts and reports the requested relations, columns,
// and deleted-row visibility. Callers use it to screen a lookup against an
// access policy before any query is built.
func ResolveOptions(opts ...QueryOption) (relations, columns []string, withDeleted bool) {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o.relations, o.columns, o.withDeleted
}

// Repository is a generic persistence port over a single Bun model type.
// Every method resolves its connection from the context first, so work done
// inside RunInTx shares the transaction without signature changes.
//
// Point lookups report a missing row as sql.ErrNoRows, except FindOne which
// returns (nil, nil); callers translate at their boundary.
type Repository[T any] interface {
	Insert(ctx context.Context, entities ...*T) error
	Upsert(ctx context.Context, fields []string, conflictColumns []string, entities ...*T) error

	FindByID(ctx context.Context, id any, opts ...QueryOption) (*T, error)
	FindOne(ctx context.Context, filter types.Filter, opts ...QueryOption) (*T, error)
	FindAndCount(ctx context.Context, q types.ListQuery) ([]*T, int, error)
	FindPage(ctx context.Context, q types.ListQuery) (*types.Page[T], error)
	FindCursorPage(ctx context.Context, q types.ListQuery) ([]*T, error)

	UpdateByID(ctx context.Context, id any, patch map[string]any) error
	DeleteByID(ctx context.Context, id any) error
	SoftDeleteByID(ctx context.Context, id any) error
	RestoreByID(ctx context.Context, id any) error

	SupportsSoftDelete() bool
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	DB() *bun.DB
	Dialect() schema.Dialect
}
