package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"aotbridge/internal/config"
	"aotbridge/internal/diag"
	"aotbridge/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okManifest = `
types:
  - name: App.Clock
    methods:
      - {name: Tick, return: void, public: true, native_callback: true, parameters: [{name: now, type: long}]}
  - name: App.Settings
    markers: {configuration_root: true}
  - name: App.Pump
    markers: {worker: true}
    constructors:
      - {public: true, parameters: [{name: clock, type: Clock}, {name: settings, type: Settings}]}
`

const cyclicManifest = `
types:
  - name: App.Self
    constructors:
      - {public: true, parameters: [{name: s, type: Self}]}
    methods:
      - {name: Go, return: void, public: true, native_callback: true}
`

func setup(t *testing.T, manifest string) (*config.Config, *storage.SQLiteStore) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "types.yaml"), []byte(manifest), 0o644))

	cfg := config.Default()
	cfg.Project.Root = root
	cfg.Project.Manifest = "types.yaml"

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return cfg, store
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestGenerate_WritesBothOutputsAndRecordsRun(t *testing.T) {
	cfg, store := setup(t, okManifest)
	ctx := context.Background()

	res, err := New(cfg, WithStore(store), WithLogger(quietLogger())).Generate(ctx)
	require.NoError(t, err)

	managed, err := os.ReadFile(res.ManagedPath)
	require.NoError(t, err)
	native, err := os.ReadFile(res.NativePath)
	require.NoError(t, err)
	assert.Contains(t, string(managed), `EntryPoint = "Clock_Tick"`)
	assert.Contains(t, string(managed), "var pump = new global::App.Pump(clock, global::AppConfiguration.Current);")
	assert.Contains(t, string(native), "void Clock_Tick(int64_t);")

	run, err := store.LoadRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusSucceeded, run.Status)
	assert.Equal(t, res.ManagedPath, run.ManagedPath)
	assert.Len(t, run.Types, 3)
	require.Len(t, run.Registrations, 1)
	assert.Equal(t, "Clock_Tick", run.Registrations[0].Adapter)
	assert.Equal(t, "void {name}(int64_t)", run.Registrations[0].Template)
	assert.Equal(t, []storage.WorkerRecord{{Factory: "CreatePump", Type: "App.Pump"}}, run.Workers)

	edges, err := store.LoadEdges(ctx, res.RunID)
	require.NoError(t, err)
	assert.NotEmpty(t, edges)
}

func TestGenerate_FailureWritesNothing(t *testing.T) {
	cfg, store := setup(t, cyclicManifest)
	ctx := context.Background()

	res, err := New(cfg, WithStore(store), WithLogger(quietLogger())).Generate(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.ErrCyclicDependency))
	assert.True(t, IsDiagnostic(err))

	_, statErr := os.Stat(cfg.ResolvePath(cfg.Output.Managed))
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(cfg.ResolvePath(cfg.Output.Native))
	assert.True(t, os.IsNotExist(statErr))

	run, err := store.LoadRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusFailed, run.Status)
	assert.Contains(t, run.Error, "cyclic")
	assert.Empty(t, run.ManagedPath)
}

func TestGenerate_MultipleConfigRoots(t *testing.T) {
	cfg, store := setup(t, `
types:
  - name: App.A
    markers: {configuration_root: true}
  - name: App.B
    markers: {configuration_root: true}
`)
	_, err := New(cfg, WithStore(store), WithLogger(quietLogger())).Generate(context.Background())
	assert.True(t, errors.Is(err, diag.ErrMultipleConfigRoots))
}

func TestGenerate_Cancelled(t *testing.T) {
	cfg, store := setup(t, okManifest)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(cfg, WithStore(store), WithLogger(quietLogger())).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsDiagnostic(err))

	run, err := store.LoadRun(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusFailed, run.Status)
}

func TestGenerate_FromCSharpSources(t *testing.T) {
	root := t.TempDir()
	src := `namespace Demo
{
    public interface IClock { long Now(); }

    public class SystemClock : IClock
    {
        public long Now() { return 0; }
    }

    public class Ticker
    {
        private readonly IClock clock;

        public Ticker(IClock clock) { this.clock = clock; }

        [NativeCallback]
        public int Tick(int step) { return step; }
    }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "Ticker.cs"), []byte(src), 0o644))

	cfg := config.Default()
	cfg.Project.Root = root
	cfg.Store.Disabled = true

	res, err := New(cfg, WithLogger(quietLogger())).Generate(context.Background())
	require.NoError(t, err)
	assert.Contains(t, res.Output.Managed, "var systemClock = new global::Demo.SystemClock();")
	assert.Contains(t, res.Output.Managed, "var ticker = new global::Demo.Ticker(systemClock);")
	assert.Contains(t, res.Output.Managed, "return ticker.Tick(step);")
	assert.Contains(t, res.Output.Native, "int32_t Ticker_Tick(int32_t);")
}

func TestCheck_CollectsProblems(t *testing.T) {
	cfg, _ := setup(t, `
types:
  - name: App.IGone
    kind: interface
  - name: App.Needy
    constructors:
      - {public: true, parameters: [{name: g, type: IGone}]}
  - name: App.Talker
    methods:
      - {name: Say, return: string, public: true, native_callback: true}
`)
	res, err := New(cfg, WithLogger(quietLogger())).Check(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Problems, 2)
	assert.Contains(t, res.Problems[0], "unable to find a class for dependency App.IGone")
	assert.Contains(t, res.Problems[1], "type string has no native representation")
}

func TestWriteAll_RenameFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "out", "a.cs")
	blocked := filepath.Join(dir, "out", "b.h")
	require.NoError(t, os.MkdirAll(filepath.Join(blocked, "child"), 0o755))

	err := writeAll([]outputFile{
		{Path: good, Content: "a"},
		{Path: blocked, Content: "b"},
	})
	require.Error(t, err)

	_, statErr := os.Stat(good)
	assert.True(t, os.IsNotExist(statErr))
	entries, err := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the pre-existing directory remains")
	assert.Equal(t, "b.h", entries[0].Name())
}

func TestWriteAll_RenameFailureRestoresPreviousPair(t *testing.T) {
	dir := t.TempDir()
	managed := filepath.Join(dir, "out", "a.cs")
	native := filepath.Join(dir, "out", "b.h")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "out"), 0o755))
	require.NoError(t, os.WriteFile(managed, []byte("old managed"), 0o644))
	// A non-empty directory cannot be replaced by a rename.
	require.NoError(t, os.MkdirAll(filepath.Join(native, "child"), 0o755))

	err := writeAll([]outputFile{
		{Path: managed, Content: "new managed"},
		{Path: native, Content: "new native"},
	})
	require.Error(t, err)

	got, err := os.ReadFile(managed)
	require.NoError(t, err)
	assert.Equal(t, "old managed", string(got))

	entries, err := os.ReadDir(filepath.Join(dir, "out"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"a.cs", "b.h"}, names)
}

func TestWriteAll_ReplacesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	managed := filepath.Join(dir, "a.cs")
	native := filepath.Join(dir, "b.h")
	require.NoError(t, os.WriteFile(managed, []byte("old managed"), 0o644))
	require.NoError(t, os.WriteFile(native, []byte("old native"), 0o644))

	require.NoError(t, writeAll([]outputFile{
		{Path: managed, Content: "new managed"},
		{Path: native, Content: "new native"},
	}))

	got, err := os.ReadFile(managed)
	require.NoError(t, err)
	assert.Equal(t, "new managed", string(got))
	got, err = os.ReadFile(native)
	require.NoError(t, err)
	assert.Equal(t, "new native", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary or backup files remain")
}
