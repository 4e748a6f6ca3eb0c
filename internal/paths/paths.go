// Package paths resolves configuration and data directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".daqd"
	DefaultDataDirName   = ".daqd-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "DAQD_CONFIG_DIR"
	EnvDataDir   = "DAQD_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// UserDataDir returns the per-user data directory, used when the working
// directory cannot be determined.
//
// Linux:   $XDG_DATA_HOME/daqd (fallback ~/.local/share/daqd)
// Other:   os.UserConfigDir()/daqd
func UserDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "daqd"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", "daqd"), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "daqd"), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > DAQD_CONFIG_DIR env > $(CWD)/.daqd.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return cwdRelative(DefaultConfigDirName)
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > DAQD_DATA_DIR env > $(CWD)/.daqd-db.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return cwdRelative(DefaultDataDirName)
}

func cwdRelative(name string) (string, error) {
	cwd, err := platformDir.getwd()
	if err != nil {
		dir, uerr := UserDataDir()
		if uerr != nil {
			return "", err
		}
		return filepath.Join(dir, name), nil
	}
	return filepath.Join(cwd, name), nil
}
