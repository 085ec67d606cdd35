// Package profile resolves per-profile directories under ~/.inboxtui. A
// profile is one operator login against one backend; keeping them separate
// lets the same machine run the client against staging and production.
package profile

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.inboxtui.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".inboxtui")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// LockPath returns the lock file path for a profile.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// CacheDBPath returns the app-owned inbox.db path.
func CacheDBPath(name string) string {
	return filepath.Join(Dir(name), "inbox.db")
}

// LogDir returns the log directory for a profile.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the client log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "inboxtui.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		LogDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
