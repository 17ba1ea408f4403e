// Package filex resolves and prepares local paths used by the CLI.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

var userConfigDir = os.UserConfigDir

// EnsureParentDir creates the directory that will contain path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// UserDataPath returns <user config dir>/<app>/<name>. The directory is not
// created.
func UserDataPath(app, name string) (string, error) {
	base, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf("user config dir: %w", err)
	}
	return filepath.Join(base, app, name), nil
}
