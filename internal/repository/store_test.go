package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tasktracker/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store := NewStore(filepath.Join(t.TempDir(), "tasks.db"), zap.NewNop())
	_, err := store.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// openRaw opens dsn without running migrations, for preparing legacy files.
func openRaw(t *testing.T, dsn string) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func closeRaw(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestStore_DBBeforeOpen(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "tasks.db"), nil)

	_, err := store.DB()
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = NewTaskRepository(store).List(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestStore_OpenTwiceReturnsSameHandle(t *testing.T) {
	store := openTestStore(t)

	first, err := store.DB()
	require.NoError(t, err)
	second, err := store.Open(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.DB()
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = NewTaskRepository(store).Create(context.Background(), model.NewTask{Name: "after close"})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	repo := NewTaskRepository(store)

	created, err := repo.Create(ctx, model.NewTask{Name: "Water plants"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.Open(ctx)
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Water plants", found.Name)
}

func TestStore_OpenCreatesParentDir(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "dir", "tasks.db")
	store := NewStore(dsn, zap.NewNop())

	_, err := store.Open(context.Background())
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(filepath.Dir(dsn))
	assert.NoError(t, err)
}

func TestStore_OpenUnavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	// The parent "directory" is a regular file, so nothing can be created under it.
	store := NewStore(filepath.Join(blocker, "tasks.db"), zap.NewNop())
	_, err := store.Open(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = store.DB()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestStore_Version(t *testing.T) {
	store := openTestStore(t)

	version, err := store.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, version)
}

func TestStore_RefusesNewerSchema(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "tasks.db")
	raw := openRaw(t, dsn)
	require.NoError(t, setUserVersion(raw, SchemaVersion+1))
	closeRaw(t, raw)

	store := NewStore(dsn, zap.NewNop())
	_, err := store.Open(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestStore_OpenInMemory(t *testing.T) {
	store := NewStore(":memory:", zap.NewNop())
	_, err := store.Open(context.Background())
	require.NoError(t, err)
	defer store.Close()

	repo := NewTaskRepository(store)
	_, err = repo.Create(context.Background(), model.NewTask{Name: "in memory"})
	require.NoError(t, err)

	tasks, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestStore_OpenHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	store := NewStore(filepath.Join(t.TempDir(), "tasks.db"), zap.NewNop())
	_, err := store.Open(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
