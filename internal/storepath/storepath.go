// Package storepath resolves the on-disk location of the credential
// store, the file mirroring which auth mode the remote service has
// configured per provider. This subsystem only ever reads the file.
package storepath

import (
	"os"
	"path/filepath"
	"runtime"

	cserrors "github.com/systmms/credsync/internal/errors"
)

// OverrideEnvVar names the environment variable that, when set, is used
// verbatim as the credential-store path and overrides everything else.
const OverrideEnvVar = "CREDSYNC_STORE_PATH"

// storeFile is the fixed path under the platform data directory.
const storeFile = "credential-store.json"

// appDir is the subdirectory the store lives in.
const appDir = "credsync"

// Resolve returns the credential-store path. Resolution order: the
// override variable verbatim, then the platform-conventional per-user
// data directory, then an OS-specific home fallback. It fails only when
// no directory can be determined at all: a wrong-but-plausible fallback
// like /tmp would surface downstream as a confusing "not configured"
// instead of a clear error.
func Resolve() (string, error) {
	return resolve(runtime.GOOS, os.Getenv)
}

// resolve is the testable core; getenv stands in for os.Getenv.
func resolve(goos string, getenv func(string) string) (string, error) {
	if override := getenv(OverrideEnvVar); override != "" {
		return override, nil
	}

	dir, err := dataDir(goos, getenv)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, storeFile), nil
}

// dataDir returns the per-user data directory for the platform.
func dataDir(goos string, getenv func(string) string) (string, error) {
	switch goos {
	case "darwin":
		home := getenv("HOME")
		if home == "" {
			return "", cserrors.PathDetectionError{Detail: "HOME is not set"}
		}
		return filepath.Join(home, "Library", "Application Support"), nil

	case "windows":
		if appData := getenv("APPDATA"); appData != "" {
			return appData, nil
		}
		if profile := getenv("USERPROFILE"); profile != "" {
			return filepath.Join(profile, "AppData", "Roaming"), nil
		}
		return "", cserrors.PathDetectionError{Detail: "neither APPDATA nor USERPROFILE is set"}

	default:
		// XDG convention; hard-coded $HOME fallback when unset.
		if xdg := getenv("XDG_DATA_HOME"); xdg != "" {
			return xdg, nil
		}
		home := getenv("HOME")
		if home == "" {
			return "", cserrors.PathDetectionError{Detail: "neither XDG_DATA_HOME nor HOME is set"}
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}
