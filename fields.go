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
	"reflect"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// fieldValueByColumn resolves a model field by its column name: the bun tag
// name when present, the snake-cased Go field name otherwise. Embedded
// structs are searched depth-first.
func fieldValueByColumn(entity any, column string) (any, bool) {
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			if val, ok := fieldValueByColumn(v.Field(i).Interface(), column); ok {
				return val, true
			}
			continue
		}
		if !f.IsExported() {
			continue
		}
		if columnName(f) == column {
			return v.Field(i).Interface(), true
		}
	}
	return nil, false
}

// assignGeneratedID fills a string primary key with a fresh UUID when the
// field is still empty. Integer keys are left to the database sequence.
func assignGeneratedID(entity any, column string) bool {
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return false
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || columnName(f) != column {
			continue
		}
		fv := v.Field(i)
		if fv.Kind() == reflect.String && fv.String() == "" && fv.CanSet() {
			fv.SetString(uuid.NewString())
			return true
		}
		return false
	}
	return false
}

func columnName(f reflect.StructField) string {
	if tag, ok := f.Tag.Lookup("bun"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return toSnakeCase(f.Name)
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// entityNameOf derives the default entity name from the model type, e.g.
// *UserProfile becomes "user_profile". Used for error args and cache key
// prefixes unless overridden.
func entityNameOf[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = "entity"
	}
	return toSnakeCase(name)
}
