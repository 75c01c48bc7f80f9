package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/file"
)

func TestNewLocalStorage(t *testing.T) {
	t.Parallel()

	_, err := file.NewLocalStorage("")
	assert.ErrorIs(t, err, file.ErrInvalidConfig)

	dir := filepath.Join(t.TempDir(), "nested", "attachments")
	s, err := file.NewLocalStorage(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, dir, s.BaseDir())
}

func TestLocalStorage_Save(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := file.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	f, err := s.Save(ctx, "42/invoice.pdf", []byte("%PDF-1.4"), "")
	require.NoError(t, err)

	assert.Equal(t, "invoice.pdf", f.Filename)
	assert.Equal(t, int64(8), f.Size)
	assert.Equal(t, "application/pdf", f.MIMEType)
	assert.Equal(t, "pdf", f.Extension)
	assert.Equal(t, "42/invoice.pdf", f.RelativePath)
	assert.Equal(t, filepath.Join(s.BaseDir(), "42", "invoice.pdf"), f.AbsolutePath)
	assert.Equal(t, f.AbsolutePath, f.Location)

	data, err := os.ReadFile(f.AbsolutePath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	assert.True(t, s.Exists(ctx, "42/invoice.pdf"))

	f, err = s.Save(ctx, "42/invoice.pdf", []byte("v2"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", f.MIMEType)
}

func TestLocalStorage_PathTraversal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := file.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(ctx, "../escape.txt", []byte("x"), "")
	assert.ErrorIs(t, err, file.ErrInvalidPath)

	_, err = s.Save(ctx, "a/../../escape.txt", []byte("x"), "")
	assert.ErrorIs(t, err, file.ErrInvalidPath)

	_, err = s.Save(ctx, ".", []byte("x"), "")
	assert.ErrorIs(t, err, file.ErrIsDirectory)

	assert.False(t, s.Exists(ctx, "../"))
	assert.ErrorIs(t, s.Delete(ctx, "../x"), file.ErrInvalidPath)
}

func TestLocalStorage_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := file.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(ctx, "dir/a.txt", []byte("a"), "")
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(ctx, "dir"), file.ErrIsDirectory)
	require.NoError(t, s.Delete(ctx, "dir/a.txt"))
	assert.False(t, s.Exists(ctx, "dir/a.txt"))
	assert.ErrorIs(t, s.Delete(ctx, "dir/a.txt"), file.ErrFileNotFound)
}

func TestLocalStorage_ContextCanceled(t *testing.T) {
	t.Parallel()

	s, err := file.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Save(ctx, "a.txt", []byte("a"), "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Delete(ctx, "a.txt"), context.Canceled)
	assert.False(t, s.Exists(ctx, "a.txt"))
}

func TestLocalStorage_URL(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := file.NewLocalStorage(dir, file.WithBaseURL("https://files.example.com"))
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/42/a.pdf", s.URL("42/a.pdf"))
	assert.Equal(t, "https://files.example.com/42/a.pdf", s.URL("/42/a.pdf"))

	bare, err := file.NewLocalStorage(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "42", "a.pdf"), bare.URL("42/a.pdf"))
}
