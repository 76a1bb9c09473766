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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type auditEvent struct {
	bun.BaseModel `bun:"table:audit_events,alias:ae"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Action    string    `bun:"action,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero"`
}

func TestInitDBSQLiteBootstrapsRegisteredModels(t *testing.T) {
	RegisteredModel(NewModelAdapter((*auditEvent)(nil), 1))

	cfg := &Config{
		ConnectionConfig: *DefaultConnectionConfig(),
		BootstrapConfig:  BootstrapConfig{CreateTablesOnStartup: true},
	}
	cfg.ConnectionConfig.Type = "sqlite"
	cfg.ConnectionConfig.DBName = ":memory:"

	db, err := InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, CloseDB()) })
	require.Same(t, db, GetDB())

	ctx := context.Background()
	_, err = db.NewInsert().Model(&auditEvent{Action: "startup", CreatedAt: time.Now().UTC()}).Exec(ctx)
	require.NoError(t, err)

	count, err := db.NewSelect().Model((*auditEvent)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Bootstrap is CREATE TABLE IF NOT EXISTS; rerunning keeps existing rows.
	require.NoError(t, BootstrapSchema(ctx))
	count, err = db.NewSelect().Model((*auditEvent)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	status := GetHealthStatus(ctx)
	require.NotNil(t, status)
	assert.True(t, status.Connected)
	assert.True(t, status.Healthy)
	assert.Empty(t, status.LastError)

	stats := GetDatabaseStats()
	require.NotNil(t, stats)
	assert.GreaterOrEqual(t, stats.OpenConns, 1)
}

func TestInitDatabaseRejectsBadConfig(t *testing.T) {
	_, err := InitDatabaseWithOptions(nil, false)
	require.Error(t, err)

	bad := &Config{ConnectionConfig: *DefaultConnectionConfig()}
	bad.ConnectionConfig.Type = "oracle"
	_, err = InitDatabaseWithOptions(bad, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}
