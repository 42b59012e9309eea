package database

import (
	"context"
	"testing"
	"testing/fstest"

	"inkwell/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		env      string
		allow    bool
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"hybrid in development", "", "development", false, true, true, false},
		{"hybrid in production", "hybrid", "production", false, true, false, false},
		{"sql only", "SQL", "development", false, true, false, false},
		{"auto in development", "auto", "development", false, false, true, false},
		{"auto in staging refused", "auto", "staging", false, false, false, true},
		{"auto in production allowed", "auto", "production", true, false, true, false},
		{"unknown mode", "magic", "development", false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanSchema(&config.Config{
				DBSchemaMode:                  tt.mode,
				Env:                           tt.env,
				DBAutoMigrateAllowDestructive: tt.allow,
			})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, plan.RunSQL)
			assert.Equal(t, tt.wantAuto, plan.RunAuto)
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	ms, err := embeddedMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, ms)

	first := ms[0]
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, "init", first.Name)
	assert.Equal(t, "000001_init", first.String())
	assert.Contains(t, first.UpScript, "CREATE TABLE IF NOT EXISTS posts")
	assert.Contains(t, first.DownScript, "DROP TABLE IF EXISTS posts")

	assert.NotNil(t, GetMigrationByVersion(1))
	assert.Nil(t, GetMigrationByVersion(999))
}

func TestLoadMigrations(t *testing.T) {
	t.Run("sorted by version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/000002_second.up.sql":   {Data: []byte("SELECT 2")},
			"m/000002_second.down.sql": {Data: []byte("SELECT -2")},
			"m/000001_first.up.sql":    {Data: []byte("SELECT 1")},
			"m/000001_first.down.sql":  {Data: []byte("SELECT -1")},
		}
		ms, err := LoadMigrations(fsys, "m")
		require.NoError(t, err)
		require.Len(t, ms, 2)
		assert.Equal(t, "first", ms[0].Name)
		assert.Equal(t, "second", ms[1].Name)
	})

	t.Run("missing down script", func(t *testing.T) {
		fsys := fstest.MapFS{"m/000001_first.up.sql": {Data: []byte("SELECT 1")}}
		_, err := LoadMigrations(fsys, "m")
		assert.Error(t, err)
	})

	t.Run("bad version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/abc_first.up.sql":   {Data: []byte("SELECT 1")},
			"m/abc_first.down.sql": {Data: []byte("SELECT 1")},
		}
		_, err := LoadMigrations(fsys, "m")
		assert.Error(t, err)
	})
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 7}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007")
}

func TestRunMigrations_SQLite(t *testing.T) {
	db := openSQLite(t)

	ctx := context.Background()
	registered := []Migration{
		{Version: 1, Name: "widgets", UpScript: "CREATE TABLE widgets (id INTEGER PRIMARY KEY)", DownScript: "DROP TABLE widgets"},
		{Version: 2, Name: "gadgets", UpScript: "CREATE TABLE gadgets (id INTEGER PRIMARY KEY)", DownScript: "DROP TABLE gadgets"},
	}

	require.NoError(t, runMigrations(ctx, db, registered))
	// A second run is a no-op.
	require.NoError(t, runMigrations(ctx, db, registered))

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, applied)
	assert.True(t, db.Migrator().HasTable("gadgets"))

	require.NoError(t, NewMigrationStore(db).RevertMigration(ctx, registered[1]))
	assert.False(t, db.Migrator().HasTable("gadgets"))
	assert.Empty(t, pendingMigrations([]int{1, 2}, registered))
	assert.Len(t, pendingMigrations([]int{1}, registered), 1)

	err = runMigrations(ctx, db, registered[:0])
	assert.Error(t, err, "applied version 1 is unknown to an empty registry")
}

func TestPersistentModels_AutoMigrate(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, db.AutoMigrate(PersistentModels()...))
	for _, table := range []string{"users", "subscriptions", "sites", "posts"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
