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

import "sort"

// Op identifies a predicate variant.
type Op string

const (
	OpEq       Op = "eq"
	OpNotEq    Op = "neq"
	OpGt       Op = "gt"
	OpGte      Op = "gte"
	OpLt       Op = "lt"
	OpLte      Op = "lte"
	OpIn       Op = "in"
	OpBetween  Op = "between"
	OpContains Op = "contains"
	OpIsNull   Op = "isnull"
	OpNotNull  Op = "notnull"
)

// Predicate is one typed filter condition against a single column.
type Predicate struct {
	Field  string `json:"field"`
	Op     Op     `json:"op"`
	Values []any  `json:"values,omitempty"`
}

// Filter is an AND-combined list of predicates.
type Filter []Predicate

func Eq(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpEq, Values: []any{value}}
}

func NotEq(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpNotEq, Values: []any{value}}
}

func Gt(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpGt, Values: []any{value}}
}

func Gte(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpGte, Values: []any{value}}
}

func Lt(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpLt, Values: []any{value}}
}

func Lte(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpLte, Values: []any{value}}
}

func In(field string, values ...any) Predicate {
	return Predicate{Field: field, Op: OpIn, Values: values}
}

func Between(field string, low, high any) Predicate {
	return Predicate{Field: field, Op: OpBetween, Values: []any{low, high}}
}

// Contains matches rows whose column contains the given substring (LIKE).
func Contains(field string, value string) Predicate {
	return Predicate{Field: field, Op: OpContains, Values: []any{value}}
}

func IsNull(field string) Predicate {
	return Predicate{Field: field, Op: OpIsNull}
}

func NotNull(field string) Predicate {
	return Predicate{Field: field, Op: OpNotNull}
}

// Normalize returns a copy sorted by field then op. Logically identical
// filters normalize to the same sequence, so derived cache keys match.
func (f Filter) Normalize() Filter {
	if len(f) == 0 {
		return nil
	}
	out := make(Filter, len(f))
	copy(out, f)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Op < out[j].Op
	})
	return out
}

// Fields returns every column referenced by the filter, in normalized order.
func (f Filter) Fields() []string {
	fields := make([]string, 0, len(f))
	for _, p := range f.Normalize() {
		fields = append(fields, p.Field)
	}
	return fields
}

// QueryFilter is the raw WHERE-schema escape hatch for advanced callers.
// It is applied verbatim and participates in cache key derivation as-is.
type QueryFilter struct {
	Schema string `json:"schema"`
	Args   []any  `json:"args,omitempty"`
}

// NewQueryFilter creates a raw query filter with schema and args.
func NewQueryFilter(schema string, args ...any) *QueryFilter {
	return &QueryFilter{Schema: schema, Args: args}
}

// ConditionBuilder turns raw, caller-supplied filter parameters into a typed
// filter. Implementations are feature-specific and opaque to this layer;
// defaultSearchField names the column free-text terms should match against.
type ConditionBuilder interface {
	Build(raw map[string]string, defaultSearchField string) (Filter, error)
}

// Localizer renders a message key with structured arguments. The boundary
// layer owns the implementation; this module only threads it through.
type Localizer interface {
	Translate(key string, args map[string]any) string
}
