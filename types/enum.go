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

import "strings"

// SortOrder is the direction of an ORDER BY clause.
type SortOrder string

const (
	OrderAsc  SortOrder = "ASC"
	OrderDesc SortOrder = "DESC"
)

// ParseSortOrder normalizes a caller-supplied order string. Unknown or empty
// values fall back to ascending.
func ParseSortOrder(s string) SortOrder {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DESC", "DESCENDING", "-1":
		return OrderDesc
	default:
		return OrderAsc
	}
}

func (o SortOrder) IsValid() bool {
	return o == OrderAsc || o == OrderDesc
}

func (o SortOrder) String() string {
	if o == "" {
		return string(OrderAsc)
	}
	return string(o)
}

// Reversed returns the opposite direction. Used when a cursor chain is walked
// backwards.
func (o SortOrder) Reversed() SortOrder {
	if o == OrderDesc {
		return OrderAsc
	}
	return OrderDesc
}

// Comparator returns the SQL comparison operator that selects rows strictly
// after a keyset anchor in this direction.
func (o SortOrder) Comparator() string {
	if o == OrderDesc {
		return "<"
	}
	return ">"
}
