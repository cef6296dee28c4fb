package persist_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hvmerrors "github.com/systmms/helm-values-manager/internal/errors"
	"github.com/systmms/helm-values-manager/internal/persist"
	"github.com/systmms/helm-values-manager/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s := store.New("myapp")
	require.NoError(t, s.AddPath("app.replicas", store.Metadata{
		Description: "replica count",
		Required:    true,
	}))
	require.NoError(t, s.AddDeployment("dev"))
	require.NoError(t, s.SetValue(context.Background(), "app.replicas", "dev", 3))
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := persist.New(filepath.Join(dir, "helm-values.json"))

	assert.False(t, file.Exists())
	require.NoError(t, file.Save(newTestStore(t)))
	assert.True(t, file.Exists())

	loaded, err := file.Load()
	require.NoError(t, err)
	assert.Equal(t, "myapp", loaded.Release())

	got, err := loaded.GetValue(context.Background(), "app.replicas", "dev", false)
	require.NoError(t, err)
	assert.Equal(t, "3", string(got.(json.Number)))
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "helm-values.json")
	file := persist.New(path)

	require.NoError(t, file.Save(newTestStore(t)))

	backups, err := filepath.Glob(path + ".*.bak")
	require.NoError(t, err)
	assert.Empty(t, backups, "first save should not create a backup")

	require.NoError(t, file.Save(newTestStore(t)))

	backups, err = filepath.Glob(path + ".*.bak")
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	// The backup holds the previous content, so it must load too.
	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	restored, err := store.FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "myapp", restored.Release())
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	file := persist.New(filepath.Join(t.TempDir(), "helm-values.json"))

	_, err := file.Load()
	require.Error(t, err)

	var userErr hvmerrors.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.Message, "not found")
	assert.True(t, os.IsNotExist(userErr.Err))
}

func TestLockIsExclusive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "helm-values.json")

	first := persist.New(path)
	require.NoError(t, first.Lock())
	defer first.Unlock()

	second := persist.New(path)
	err := second.Lock()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")

	first.Unlock()
	require.NoError(t, second.Lock())
	second.Unlock()
}

func TestUnlockWithoutLock(t *testing.T) {
	t.Parallel()

	// Must not panic on a File that never took the lock.
	persist.New(filepath.Join(t.TempDir(), "helm-values.json")).Unlock()
}
