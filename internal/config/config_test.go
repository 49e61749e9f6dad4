package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test
// (stand-in for testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	chdir(t, t.TempDir())
	path := writeFile(t, ".", "bridge.yaml", `
project:
  root: src
output:
  managed: out/Exports.g.cs
  native: out/exports.h
bridge:
  namespace: My.Gen
  config_access:
    ILogger: NativeLog.Instance
  native_types:
    App.Handle: struct app_handle
log:
  level: debug
`)
	t.Setenv("AOTBRIDGE_DB", "/tmp/ledger.db")
	t.Setenv("AOTBRIDGE_CONFIG_ACCESSOR", "Settings.Current")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "src", cfg.Project.Root)
	assert.Equal(t, "My.Gen", cfg.Bridge.Namespace)
	assert.Equal(t, "NativeLog.Instance", cfg.Bridge.ConfigAccess["ILogger"])
	assert.Equal(t, "struct app_handle", cfg.Bridge.NativeTypes["App.Handle"])
	assert.Equal(t, "/tmp/ledger.db", cfg.Store.Path)
	assert.Equal(t, "Settings.Current", cfg.Bridge.ConfigAccessor)

	lvl, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	assert.Equal(t, filepath.Join("src", "out", "exports.h"), cfg.ResolvePath(cfg.Output.Native))
	assert.Equal(t, "/abs/x.h", cfg.ResolvePath("/abs/x.h"))
}

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("AOTBRIDGE_ROOT", "")

	cfg, err := LoadConfig(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.Project.Root)
	assert.Equal(t, filepath.Join("generated", "NativeCallbacks.g.cs"), cfg.Output.Managed)
	assert.Equal(t, filepath.Join(".aotbridge", "ledger.db"), cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	chdir(t, t.TempDir())
	writeFile(t, ".", ".env", "AOTBRIDGE_LOG_LEVEL=warn\n")
	t.Cleanup(func() { os.Unsetenv("AOTBRIDGE_LOG_LEVEL") })

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "log:\n  level: loud\n")
	_, err = LoadConfig(bad)
	assert.ErrorContains(t, err, "invalid log level")

	same := writeFile(t, dir, "same.yaml", "output:\n  managed: a.txt\n  native: ./a.txt\n")
	_, err = LoadConfig(same)
	assert.ErrorContains(t, err, "must differ")
}
