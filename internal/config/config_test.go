package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and TADA_HOME at temp dirs and clears TADA_* vars.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"TADA_API_URL", "TADA_TIMEOUT", "TADA_THEME", "TADA_NO_COLOR", "TADA_LOG_LEVEL", "TADA_TOKEN"} {
		t.Setenv(k, "")
	}
	dataDir := filepath.Join(home, ".tada")
	t.Setenv("TADA_HOME", dataDir)
	return dataDir
}

func TestDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("", Overrides{})
	require.NoError(t, err)

	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "classic", cfg.Theme)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Token)
}

func TestPrecedence(t *testing.T) {
	dataDir := isolate(t)
	require.NoError(t, os.MkdirAll(dataDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, ConfigFileName), []byte(`
api_url = "http://file.example"
timeout = "3s"
theme = "neon"
log_level = "warn"
`), 0o600))

	cfg, err := Load("", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "http://file.example", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, "neon", cfg.Theme)

	t.Setenv("TADA_API_URL", "http://env.example")
	t.Setenv("TADA_TOKEN", " Bearer abc ")
	cfg, err = Load("", Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "http://env.example", cfg.APIURL)
	assert.Equal(t, "Bearer abc", cfg.Token)

	cfg, err = Load("", Overrides{APIURL: "http://flag.example", Timeout: time.Second, Theme: "mono", NoColor: true})
	require.NoError(t, err)
	assert.Equal(t, "http://flag.example", cfg.APIURL)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Equal(t, "mono", cfg.Theme)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestExplicitConfigFileMustExist(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"), Overrides{})
	assert.Error(t, err)
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		o    Overrides
	}{
		{"bad url", nil, Overrides{APIURL: "ftp://x"}},
		{"relative url", nil, Overrides{APIURL: "/todos"}},
		{"bad timeout env", map[string]string{"TADA_TIMEOUT": "soon"}, Overrides{}},
		{"bad bool env", map[string]string{"TADA_NO_COLOR": "maybe"}, Overrides{}},
		{"bad theme", nil, Overrides{Theme: "rainbow"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("", tt.o)
			assert.Error(t, err)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, ".tada"), expandPath("~/.tada"))
	assert.Equal(t, home, expandPath("~"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
}
