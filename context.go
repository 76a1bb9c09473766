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
	"errors"

	"github.com/uptrace/bun"

	"github.com/tomoncle/magpie/database"
	"github.com/tomoncle/magpie/repository"
	"github.com/tomoncle/magpie/types"
)

// ContextWithTx threads a transaction so nested service and repository calls
// run inside it.
func ContextWithTx(ctx context.Context, tx bun.IDB) context.Context {
	return repository.ContextWithTx(ctx, tx)
}

// TxFromContext reports the transaction stored by ContextWithTx.
func TxFromContext(ctx context.Context) (bun.IDB, bool) {
	return repository.TxFromContext(ctx)
}

type actorContextKey struct{}

type localizerContextKey struct{}

// ContextWithActor records who is performing the operation; hooks read it
// for audit scoping.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext reports the actor stored by ContextWithActor.
func ActorFromContext(ctx context.Context) (string, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(string)
	return actor, ok
}

// ContextWithLocalizer attaches the translator used to render error message
// keys at the boundary.
func ContextWithLocalizer(ctx context.Context, l types.Localizer) context.Context {
	return context.WithValue(ctx, localizerContextKey{}, l)
}

// LocalizerFromContext reports the localizer stored by ContextWithLocalizer.
func LocalizerFromContext(ctx context.Context) (types.Localizer, bool) {
	l, ok := ctx.Value(localizerContextKey{}).(types.Localizer)
	return l, ok
}

// LocalizedMessage renders err for the caller's locale. Taxonomy errors
// resolve their message key through the context localizer; anything else
// falls back to err.Error().
func LocalizedMessage(ctx context.Context, err error) string {
	if err == nil {
		return ""
	}
	var dbErr *database.Error
	if errors.As(err, &dbErr) {
		if l, ok := LocalizerFromContext(ctx); ok {
			return l.Translate(dbErr.MessageKey, dbErr.Args)
		}
	}
	return err.Error()
}
