package storepath

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cserrors "github.com/systmms/credsync/internal/errors"
)

// envOf builds a getenv func from a map.
func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestResolveOverrideWinsVerbatim(t *testing.T) {
	t.Parallel()

	env := envOf(map[string]string{
		OverrideEnvVar:  "/custom/location/store.json",
		"HOME":          "/home/alice",
		"XDG_DATA_HOME": "/home/alice/.data",
	})

	for _, goos := range []string{"linux", "darwin", "windows"} {
		got, err := resolve(goos, env)
		require.NoError(t, err)
		assert.Equal(t, "/custom/location/store.json", got, "override must win on %s", goos)
	}
}

func TestResolveLinux(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{
			name: "xdg data home set",
			vars: map[string]string{"XDG_DATA_HOME": "/home/alice/.data", "HOME": "/home/alice"},
			want: filepath.Join("/home/alice/.data", "credsync", "credential-store.json"),
		},
		{
			name: "home fallback",
			vars: map[string]string{"HOME": "/home/alice"},
			want: filepath.Join("/home/alice", ".local", "share", "credsync", "credential-store.json"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolve("linux", envOf(tt.vars))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDarwin(t *testing.T) {
	t.Parallel()

	got, err := resolve("darwin", envOf(map[string]string{"HOME": "/Users/alice"}))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/Users/alice", "Library", "Application Support", "credsync", "credential-store.json"), got)
}

func TestResolveWindows(t *testing.T) {
	t.Parallel()

	got, err := resolve("windows", envOf(map[string]string{"APPDATA": `C:\Users\alice\AppData\Roaming`}))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(`C:\Users\alice\AppData\Roaming`, "credsync", "credential-store.json"), got)

	got, err = resolve("windows", envOf(map[string]string{"USERPROFILE": `C:\Users\alice`}))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(`C:\Users\alice`, "AppData", "Roaming", "credsync", "credential-store.json"), got)
}

func TestResolveFailsWithoutAnyDirectory(t *testing.T) {
	t.Parallel()

	for _, goos := range []string{"linux", "darwin", "windows"} {
		_, err := resolve(goos, envOf(nil))
		require.Error(t, err, "expected failure on %s with empty environment", goos)

		var pathErr cserrors.PathDetectionError
		assert.True(t, errors.As(err, &pathErr), "error should be a PathDetectionError on %s", goos)
	}
}
