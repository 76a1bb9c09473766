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
)

type txContextKey struct{}

// ContextWithTx returns a context carrying idb. Repositories resolve their
// connection from the context before falling back to their own DB, which is
// how RunInTx threads one transaction through nested repository calls.
func ContextWithTx(ctx context.Context, idb bun.IDB) context.Context {
	return context.WithValue(ctx, txContextKey{}, idb)
}

// TxFromContext reports the connection stored by ContextWithTx, if any.
func TxFromContext(ctx context.Context) (bun.IDB, bool) {
	idb, ok := ctx.Value(txContextKey{}).(bun.IDB)
	return idb, ok
}
