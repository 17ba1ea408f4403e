package filex

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureParentDir_CreatesNestedDirs(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "a", "b", "history.db")

	require.NoError(t, EnsureParentDir(target))

	fi, err := os.Stat(filepath.Dir(target))
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}

	_, err = os.Stat(target)
	require.True(t, os.IsNotExist(err), "the file itself must not be created")
}

func TestEnsureParentDir_Idempotent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "x", "file")
	require.NoError(t, EnsureParentDir(target))
	require.NoError(t, EnsureParentDir(target))
}

func TestEnsureParentDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "state"), []byte("x"), 0o600))

	err := EnsureParentDir(filepath.Join(tmp, "state", "history.db"))
	require.Error(t, err, "should fail when a file exists with the parent's name")
}

func TestUserDataPath(t *testing.T) {
	orig := userConfigDir
	t.Cleanup(func() { userConfigDir = orig })

	userConfigDir = func() (string, error) { return "/home/u/.config", nil }
	got, err := UserDataPath("gofileup", "history.db")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/home/u/.config", "gofileup", "history.db"), got)

	userConfigDir = func() (string, error) { return "", errors.New("$HOME is not defined") }
	_, err = UserDataPath("gofileup", "history.db")
	require.ErrorContains(t, err, "$HOME")
}
