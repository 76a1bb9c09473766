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

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateNoRows(t *testing.T) {
	err := Translate(sql.ErrNoRows, "user", 7)
	require.True(t, IsNotFound(err))

	var dbErr *Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, MsgNotFound, dbErr.MessageKey)
	assert.Equal(t, "user", dbErr.Args["entity"])
	assert.Equal(t, "7", dbErr.Args["id"])
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTranslateMySQLErrors(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a' for key 'users.email'"}
	assert.True(t, IsConflict(Translate(dup, "user", nil)))

	fk := &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}
	assert.True(t, IsConflict(Translate(fk, "user", nil)))

	null := &mysql.MySQLError{Number: 1048, Message: "Column 'name' cannot be null"}
	assert.True(t, IsValidation(Translate(null, "user", nil)))

	other := &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
	assert.True(t, IsInternal(Translate(other, "user", nil)))
}

func TestTranslatePostgresErrors(t *testing.T) {
	assert.True(t, IsConflict(Translate(&pq.Error{Code: "23505"}, "user", nil)))
	assert.True(t, IsConflict(Translate(&pq.Error{Code: "23503"}, "user", nil)))
	assert.True(t, IsValidation(Translate(&pq.Error{Code: "23502"}, "user", nil)))
	assert.True(t, IsInternal(Translate(&pq.Error{Code: "57014"}, "user", nil)))
}

func TestTranslateSQLStateFallback(t *testing.T) {
	sqlite := errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)")
	assert.True(t, IsConflict(Translate(sqlite, "user", nil)))

	fk := errors.New("constraint failed: FOREIGN KEY constraint failed (787)")
	assert.True(t, IsConflict(Translate(fk, "user", nil)))

	null := errors.New("constraint failed: NOT NULL constraint failed: users.name (1299)")
	assert.True(t, IsValidation(Translate(null, "user", nil)))
}

func TestTranslateUnknownBecomesInternal(t *testing.T) {
	err := Translate(fmt.Errorf("connection refused"), "user", nil)
	require.True(t, IsInternal(err))

	var dbErr *Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, MsgInternal, dbErr.MessageKey)
	// Driver text stays in the cause, never in the localization payload.
	assert.NotContains(t, dbErr.MessageKey, "refused")
	for _, v := range dbErr.Args {
		assert.NotContains(t, fmt.Sprintf("%v", v), "refused")
	}
}

func TestTranslateIdempotent(t *testing.T) {
	orig := NewNotFound("user", 1)
	assert.Same(t, orig, Translate(orig, "other", 2).(*Error))
	assert.NoError(t, Translate(nil, "user", nil))
}

func TestValidationErrorArgs(t *testing.T) {
	err := NewValidation(MsgBadSort, map[string]any{"field": "password"})
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "field=password")
}
