package artifactstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	at := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "certificates/7/2026/03/abc.png", ObjectKey(7, "abc", ".png", at))
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewLocalStore(dir)

	key := "certificates/1/2026/01/x.png"
	require.NoError(t, s.Put(ctx, key, []byte("png"), "image/png"))

	data, err := os.ReadFile(filepath.Join(dir, key))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, key))
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, s.Put(ctx, "../escape.png", []byte("x"), "image/png"))
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(&Config{Backend: BackendNone})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = New(&Config{Backend: BackendLocal, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	_, err = New(&Config{Backend: "ftp"})
	assert.Error(t, err)
}
