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
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Kind is the error taxonomy exposed to callers. Persistence failures of any
// backend are translated into exactly one of these.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Localization message keys. The boundary layer renders them; this package
// never formats user-facing text.
const (
	MsgNotFound    = "errors.entity.not_found"
	MsgConflict    = "errors.entity.conflict"
	MsgValidation  = "errors.entity.validation"
	MsgInternal    = "errors.internal"
	MsgBadRelation = "errors.entity.relation_not_allowed"
	MsgBadColumn   = "errors.entity.column_not_allowed"
	MsgBadSort     = "errors.entity.sort_not_allowed"
	MsgBadCursor   = "errors.entity.cursor_invalid"
)

// Error carries a taxonomy kind, a localization key with structured
// arguments, and the wrapped cause. Raw driver text stays inside the cause
// and never leaks into MessageKey or Args.
type Error struct {
	Kind       Kind
	MessageKey string
	Args       map[string]any
	cause      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if len(e.Args) > 0 {
		keys := make([]string, 0, len(e.Args))
		for k := range e.Args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Args[k])
		}
	}
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.cause }

// NewNotFound reports that an entity id is absent or hidden by the
// soft-delete filter.
func NewNotFound(entity string, id any) *Error {
	return &Error{
		Kind:       KindNotFound,
		MessageKey: MsgNotFound,
		Args:       map[string]any{"entity": entity, "id": fmt.Sprintf("%v", id)},
		cause:      sql.ErrNoRows,
	}
}

// NewConflict reports a unique or foreign-key violation.
func NewConflict(entity string, cause error) *Error {
	return &Error{
		Kind:       KindConflict,
		MessageKey: MsgConflict,
		Args:       map[string]any{"entity": entity},
		cause:      cause,
	}
}

// NewValidation reports rejected caller input before any query runs.
func NewValidation(messageKey string, args map[string]any) *Error {
	return &Error{Kind: KindValidation, MessageKey: messageKey, Args: args}
}

// NewInternal wraps an unexpected store or cache fault.
func NewInternal(entity string, cause error) *Error {
	return &Error{
		Kind:       KindInternal,
		MessageKey: MsgInternal,
		Args:       map[string]any{"entity": entity},
		cause:      cause,
	}
}

func IsNotFound(err error) bool   { return hasKind(err, KindNotFound) }
func IsConflict(err error) bool   { return hasKind(err, KindConflict) }
func IsValidation(err error) bool { return hasKind(err, KindValidation) }
func IsInternal(err error) bool   { return hasKind(err, KindInternal) }

func hasKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// MySQL server error numbers for constraint violations.
const (
	mysqlDuplicateEntry  = 1062
	mysqlFKParentMissing = 1452
	mysqlFKChildExists   = 1451
	mysqlNotNull         = 1048
)

// Translate maps a raw persistence error onto the taxonomy for the given
// entity. Driver-typed errors are matched first, then SQLSTATE substrings so
// drivers without typed errors (sqlite) still translate; anything unknown
// becomes Internal.
func Translate(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	var translated *Error
	if errors.As(err, &translated) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NewNotFound(entity, id)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlDuplicateEntry, mysqlFKParentMissing, mysqlFKChildExists:
			return NewConflict(entity, err)
		case mysqlNotNull:
			return &Error{Kind: KindValidation, MessageKey: MsgValidation, Args: map[string]any{"entity": entity}, cause: err}
		default:
			return NewInternal(entity, err)
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505", "23503":
			return NewConflict(entity, err)
		case "23502", "23514":
			return &Error{Kind: KindValidation, MessageKey: MsgValidation, Args: map[string]any{"entity": entity}, cause: err}
		default:
			return NewInternal(entity, err)
		}
	}

	s := strings.ToLower(err.Error())
	if strings.Contains(s, "sqlstate 23505") ||
		strings.Contains(s, "duplicate key value") ||
		strings.Contains(s, "unique constraint failed") {
		return NewConflict(entity, err)
	}
	if strings.Contains(s, "sqlstate 23503") ||
		strings.Contains(s, "foreign key constraint failed") ||
		strings.Contains(s, "foreign key violation") {
		return NewConflict(entity, err)
	}
	if strings.Contains(s, "sqlstate 23502") ||
		strings.Contains(s, "not null constraint failed") ||
		strings.Contains(s, "not-null constraint") {
		return &Error{Kind: KindValidation, MessageKey: MsgValidation, Args: map[string]any{"entity": entity}, cause: err}
	}
	return NewInternal(entity, err)
}
