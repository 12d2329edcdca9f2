package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte("hello mmap"), 0o600))

	m, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, []byte("hello mmap"), m.Bytes())
	assert.Equal(t, int64(10), m.Size())

	require.NoError(t, m.Close())
	assert.Nil(t, m.Bytes())
	require.NoError(t, m.Close()) // idempotent
}

func TestOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	m, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.Size())
	require.NoError(t, m.Close())
}
