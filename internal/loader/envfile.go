package loader

import (
	"os"

	"github.com/subosito/gotenv"

	cserrors "github.com/systmms/credsync/internal/errors"
	"github.com/systmms/credsync/internal/logging"
)

// NewEnvSourceWithFile creates an environment source overlaid with the
// contents of an .env-style file. A missing file is a normal state and
// yields a plain environment source; a file that exists but cannot be
// read or parsed is reported as a non-fatal EnvLoadError alongside the
// degraded source, so the sync can proceed on the process environment
// alone.
func NewEnvSourceWithFile(logger *logging.Logger, path string) (*EnvSource, error) {
	if path == "" {
		return NewEnvSource(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("No environment file at %s", path)
			return NewEnvSource(), nil
		}
		return NewEnvSource(), cserrors.EnvLoadError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	overlay, err := gotenv.StrictParse(f)
	if err != nil {
		return NewEnvSource(), cserrors.EnvLoadError{Path: path, Err: err}
	}

	logger.Debug("Loaded %d entries from environment file %s", len(overlay), path)
	return &EnvSource{overlay: overlay}, nil
}
