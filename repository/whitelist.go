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
	"github.com/tomoncle/magpie/database"
)

// AccessPolicy whitelists what callers may name in a query. A name absent
// from its list is rejected with a validation error, so an empty list allows
// nothing. The repository's id column is always an acceptable sort field.
type AccessPolicy struct {
	Relations  []string
	Columns    []string
	SortFields []string
}

// ValidateRelations rejects the first relation not present in the whitelist.
func (p AccessPolicy) ValidateRelations(relations []string) error {
	for _, rel := range relations {
		if !containsString(p.Relations, rel) {
			return database.NewValidation(database.MsgBadRelation, map[string]any{"relation": rel})
		}
	}
	return nil
}

// ValidateColumns rejects the first column not present in the whitelist.
func (p AccessPolicy) ValidateColumns(columns []string) error {
	for _, col := range columns {
		if !containsString(p.Columns, col) {
			return database.NewValidation(database.MsgBadColumn, map[string]any{"column": col})
		}
	}
	return nil
}

// ValidateSort accepts idColumn unconditionally and whitelisted fields
// otherwise. An empty field means the default ordering and always passes.
func (p AccessPolicy) ValidateSort(field, idColumn string) error {
	if field == "" || field == idColumn || containsString(p.SortFields, field) {
		return nil
	}
	return database.NewValidation(database.MsgBadSort, map[string]any{"field": field})
}

// ValidateFilterFields checks typed predicate columns against the column
// whitelist.
func (p AccessPolicy) ValidateFilterFields(fields []string) error {
	return p.ValidateColumns(fields)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
