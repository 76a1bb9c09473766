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
	"context"

	"github.com/tomoncle/magpie/types"
)

// Hooks customizes entity lifecycle behavior without touching the engine.
// A nil hook is skipped. Before-hooks abort the operation by returning an
// error; after-hooks run once the mutation has committed and its caches are
// invalidated.
type Hooks[T any] struct {
	BeforeCreate func(ctx context.Context, entity *T) error
	AfterCreate  func(ctx context.Context, entity *T)

	BeforeUpdate func(ctx context.Context, id any, patch map[string]any) error
	AfterUpdate  func(ctx context.Context, entity *T)

	BeforeDelete func(ctx context.Context, id any) error
	AfterDelete  func(ctx context.Context, id any)

	// OnListQuery runs after a list query is normalized and validated,
	// before execution. It may tighten the query, e.g. scope it to the
	// current actor.
	OnListQuery func(ctx context.Context, q *types.ListQuery) error
}
