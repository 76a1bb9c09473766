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
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/uptrace/bun"
)

// CreateTables creates a table for every registered model, in ascending
// priority order, skipping tables that already exist. Column migrations and
// index management are owned by external tooling; this is only the minimum
// needed to boot against an empty database.
func CreateTables(ctx context.Context, db bun.IDB, logger Logger) error {
	withFKs := globalConfig != nil && globalConfig.BootstrapConfig.WithForeignKeys

	for _, model := range RegisteredModelInstances() {
		query := db.NewCreateTable().
			Model(model).
			IfNotExists()
		if withFKs {
			query = query.WithForeignKeys()
		}
		if _, err := query.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for model %s: %w", modelName(model), err)
		}
		if logger != nil {
			logger.Debug("Table ensured", "model", modelName(model))
		}
	}
	return nil
}

func modelName(model interface{}) string {
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return strings.ToLower(t.Name())
}
