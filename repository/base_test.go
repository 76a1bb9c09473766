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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/magpie/types"
)

type book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID          int64      `bun:"id,pk,autoincrement" json:"id"`
	Title       string     `bun:"title,notnull" json:"title"`
	ISBN        string     `bun:"isbn,notnull,unique" json:"isbn"`
	Rating      int64      `bun:"rating" json:"rating"`
	PublishedAt time.Time  `bun:"published_at,nullzero" json:"published_at"`
	DeletedAt   *time.Time `bun:"deleted_at" json:"deleted_at,omitempty"`
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = db.NewCreateTable().Model((*book)(nil)).IfNotExists().Exec(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newBookRepo(t *testing.T, softDelete bool) Repository[book] {
	t.Helper()
	return NewRepository[book](newTestDB(t), Config{SoftDelete: softDelete})
}

// seedBooks inserts n rows; ratings cycle 1,2,0 and publication times ascend.
func seedBooks(t *testing.T, repo Repository[book], n int) {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]*book, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, &book{
			Title:       fmt.Sprintf("book-%02d", i),
			ISBN:        fmt.Sprintf("isbn-%02d", i),
			Rating:      int64(i % 3),
			PublishedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	require.NoError(t, repo.Insert(context.Background(), rows...))
}

func allBooks(t *testing.T, repo Repository[book], withDeleted bool) []*book {
	t.Helper()
	rows, _, err := repo.FindAndCount(context.Background(), types.ListQuery{
		SortBy: "id", Order: types.OrderAsc, Limit: types.MaxLimit, WithDeleted: withDeleted,
	})
	require.NoError(t, err)
	return rows
}

func TestFindByID(t *testing.T) {
	ctx := context.Background()
	repo := newBookRepo(t, false)
	seedBooks(t, repo, 3)

	first := allBooks(t, repo, false)[0]
	got, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ISBN, got.ISBN)

	_, err = repo.FindByID(ctx, int64(9999))
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFindOneAbsentReturnsNil(t *testing.T) {
	ctx := context.Background()
	repo := newBookRepo(t, false)
	seedBooks(t, repo, 2)

	got, err := repo.FindOne(ctx, types.Filter{types.Eq("isbn", "isbn-02")})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "book-02", got.Title)

	got, err = repo.FindOne(ctx, types.Filter{types.Eq("isbn", "no-such")})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindAndCountOffset(t *testing.T) {
	repo := newBookRepo(t, false)
	seedBooks(t, repo, 12)

	rows, total, err := repo.FindAndCount(context.Background(), types.ListQuery{
		SortBy: "id", Order: types.OrderAsc, Page: 2, Limit: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, rows, 5)
	assert.Equal(t, "book-06", rows[0].Title)
	assert.Equal(t, "book-10", rows[4].Title)
}

func TestFindPage(t *testing.T) {
	repo := newBookRepo(t, false)
	seedBooks(t, repo, 12)

	page, err := repo.FindPage(context.Background(), types.ListQuery{
		SortBy: "id", Order: types.OrderAsc, Page: 3, Limit: 5,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "book-11", page.Items[0].Title)
	assert.Equal(t, 12, page.Meta.TotalRecords)
	assert.Equal(t, 3, page.Meta.TotalPages)
	assert.False(t, page.Meta.HasNextPage)
}

func TestFindAndCountFilters(t *testing.T) {
	repo := newBookRepo(t, false)
	seedBooks(t, repo, 9)

	rows, total, err := repo.FindAndCount(context.Background(), types.ListQuery{
		Filter: types.Filter{types.Eq("rating", 2), types.Contains("title", "book-")},
		SortBy: "id", Order: types.OrderAsc, Limit: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	for _, r := range rows {
		assert.EqualValues(t, 2, r.Rating)
	}

	rows, total, err = repo.FindAndCount(context.Background(), types.ListQuery{
		Filter: types.Filter{types.In("title", "book-01", "book-05")},
		SortBy: "id", Order: types.OrderAsc, Limit: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, rows, 2)
}

func TestFindAndCountRawFilter(t *testing.T) {
	repo := newBookRepo(t, false)
	seedBooks(t, repo, 9)

	rows, total, err := repo.FindAndCount(context.Background(), types.ListQuery{
		Raw:    types.NewQueryFilter("rating >= ? AND title LIKE ?", 1, "book-%"),
		SortBy: "id", Order: types.OrderAsc, Limit: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Len(t, rows, 6)
}

// Ratings repeat, so pages are only stable because the id column breaks ties.
func TestFindCursorPageTiebreak(t *testing.T) {
	ctx := context.Background()
	repo := newBookRepo(t, false)
	seedBooks(t, repo, 9)

	var got []int64
	var after *types.Cursor
	for {
		rows, err := repo.FindCursorPage(ctx, types.ListQuery{
			SortBy: "rating", Order: types.OrderAsc, Limit: 4, After: after,
		})
		require.NoError(t, err)
		if len(rows) == 0 {
			break
		}
		for _, r := range rows {
			got = append(got, r.ID)
		}
		last := rows[len(rows)-1]
		after = &types.Cursor{
			SortField:  "rating",
			SortOrder:  types.OrderAsc,
			SortValue:  types.FormatSortValue(last.Rating),
			TiebreakID: types.FormatSortValue(last.ID),
		}
	}

	// (rating, id) ascending: rating 0 holds ids 3,6,9 and so on.
	assert.Equal(t, []int64{3, 6, 9, 1, 4, 7, 2, 5, 8}, got)
}

func TestFindCursorPageByTime(t *testing.T) {
	ctx := context.Background()
	repo := newBookRepo(t, false)
	seedBooks(t, repo, 6)

	first, err := repo.FindCursorPage(ctx, types.ListQuery{
		SortBy: "published_at", Order: types.OrderDesc, Limit: 4,
	})
	require.NoError(t, err)
	require.Len(t, first, 4)
	assert.Equal(t, "book-06", first[0].Title)

	last := first[len(first)-1]
	rest, err := repo.FindCursorPage(ctx, types.ListQuery{
		SortBy: "published_at", Order: types.OrderDesc, Limit: 4,
		After: &types.Cursor{
			SortField:  "published_at",
			SortOrder:  types.OrderDesc,
			SortValue:  types.FormatSortValue(last.PublishedAt),
			TiebreakID: types.FormatSortValue(last.ID),
		},
	})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "book-02", rest[0].Title)
	assert.Equal(t, "book-01", rest[1].Title)
}

func TestUpdateByID(t *testing.T) {
	ctx := context.Background()
	repo := newBookRepo(t, false)
	seedBooks(t, repo, 2)

	id := allBooks(t, repo, false)[0].ID
	err := repo.UpdateByID(ctx, id, map[string]any{"title": "renamed", "rating": 5})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.EqualValues(t, 5, got.Rating)

	assert.NoError(t, repo.UpdateByID(ctx, id, nil))
	assert.ErrorIs(t, repo.UpdateByID(ctx, int64(9999), map[string]any{"title": "x"}), sql.ErrNoRows)
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	repo := newBookRepo(t, false)
	seedBooks(t, repo, 2)

	id := allBooks(t, repo, false)[0].ID
	require.NoError(t, repo.DeleteByID(ctx, id))
	_, err := repo.FindByID(ctx, id)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.ErrorIs(t, repo.DeleteByID(ctx, id), sql.ErrNoRows)
}

func TestSoftDeleteLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newBookRepo(t, true)
	seedBooks(t, repo, 3)
	require.True(t, repo.SupportsSoftDelete())

	id := allBooks(t, repo, false)[0].ID
	require.NoError(t, repo.SoftDeleteByID(ctx, id))

	_, err := repo.FindByID(ctx, id)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	got, err := repo.FindByID(ctx, id, WithDeleted())
	require.NoError(t, err)
	require.NotNil(t, got.DeletedAt)

	_, total, err := repo.FindAndCount(ctx, types.ListQuery{SortBy: "id", Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, total, err = repo.FindAndCount(ctx, types.ListQuery{SortBy: "id", Limit: 50, WithDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	// Repeated soft delete is an idempotent success.
	assert.NoError(t, repo.SoftDeleteByID(ctx, id))

	require.NoError(t, repo.RestoreByID(ctx, id))
	got, err = repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.DeletedAt)

	// Restoring a live row changes nothing.
	assert.NoError(t, repo.RestoreByID(ctx, id))

	assert.ErrorIs(t, repo.SoftDeleteByID(ctx, int64(9999)), sql.ErrNoRows)
	assert.ErrorIs(t, repo.RestoreByID(ctx, int64(9999)), sql.ErrNoRows)
}

func TestSoftDeleteFallsBackToHardDelete(t *testing.T) {
	ctx := context.Background()
	repo := newBookRepo(t, false)
	seedBooks(t, repo, 1)
	require.False(t, repo.SupportsSoftDelete())

	id := allBooks(t, repo, false)[0].ID
	require.NoError(t, repo.SoftDeleteByID(ctx, id))
	assert.Empty(t, allBooks(t, repo, true))

	// Restore without the capability is a no-op, not an error.
	assert.NoError(t, repo.RestoreByID(ctx, id))
}

func TestSoftDeletedRowStaysUpdatable(t *testing.T) {
	ctx := context.Background()
	repo := newBookRepo(t, true)
	seedBooks(t, repo, 1)

	id := allBooks(t, repo, false)[0].ID
	require.NoError(t, repo.SoftDeleteByID(ctx, id))

	// Patches target live rows only.
	assert.ErrorIs(t, repo.UpdateByID(ctx, id, map[string]any{"title": "x"}), sql.ErrNoRows)
}

func TestRunInTx(t *testing.T) {
	ctx := context.Background()
	repo := newBookRepo(t, false)

	err := repo.RunInTx(ctx, func(ctx context.Context) error {
		if err := repo.Insert(ctx, &book{Title: "kept", ISBN: "tx-1"}); err != nil {
			return err
		}
		return repo.Insert(ctx, &book{Title: "kept too", ISBN: "tx-2"})
	})
	require.NoError(t, err)
	assert.Len(t, allBooks(t, repo, false), 2)

	sentinel := errors.New("abort")
	err = repo.RunInTx(ctx, func(ctx context.Context) error {
		if err := repo.Insert(ctx, &book{Title: "dropped", ISBN: "tx-3"}); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Len(t, allBooks(t, repo, false), 2)
}

func TestUpsert(t *testing.T) {
	ctx := context.Background()
	repo := newBookRepo(t, false)
	seedBooks(t, repo, 1)

	err := repo.Upsert(ctx, []string{"title", "rating"}, []string{"isbn"},
		&book{Title: "second edition", ISBN: "isbn-01", Rating: 9})
	require.NoError(t, err)

	rows := allBooks(t, repo, false)
	require.Len(t, rows, 1)
	assert.Equal(t, "second edition", rows[0].Title)
	assert.EqualValues(t, 9, rows[0].Rating)
}
