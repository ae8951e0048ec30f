package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnsureUploadDir_CreatesRelativeToCWD(t *testing.T) {
	tmp := t.TempDir()
	t.Chdir(tmp)

	got, err := EnsureUploadDir("uploads")
	require.NoError(t, err)

	want := filepath.Join(tmp, "uploads")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}

	entries, err := os.ReadDir(want)
	require.NoError(t, err)
	require.Empty(t, entries, "probe file must be cleaned up")
}

func TestEnsureUploadDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	first, err := EnsureUploadDir(dir)
	require.NoError(t, err)
	second, err := EnsureUploadDir(dir)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsureUploadDir_EmptyMeansTempDir(t *testing.T) {
	got, err := EnsureUploadDir("")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(got))
}

func TestEnsureUploadDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	t.Chdir(tmp)

	require.NoError(t, os.WriteFile("uploads", []byte("x"), 0o660))

	_, err := EnsureUploadDir("uploads")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestSweepStale(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "gardenbook-upload-1.png")
	fresh := filepath.Join(dir, "gardenbook-upload-2.png")
	other := filepath.Join(dir, "keep.txt")
	for _, p := range []string{old, fresh, other} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	}
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.Chtimes(other, past, past))

	n, err := SweepStale(dir, "gardenbook-upload-*", time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = os.Stat(old)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	require.NoError(t, err)
	_, err = os.Stat(other)
	require.NoError(t, err)
}
