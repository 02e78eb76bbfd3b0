package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"protoscan/internal/app"
	"protoscan/internal/config"
	"protoscan/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestTree(t *testing.T, tmpDir string) {
	memoryDir := filepath.Join(tmpDir, "src", "memory")
	eventsDir := filepath.Join(tmpDir, "src", "event_bus")
	require.NoError(t, os.MkdirAll(memoryDir, 0755))
	require.NoError(t, os.MkdirAll(eventsDir, 0755))

	store := `from typing import Protocol, runtime_checkable

@runtime_checkable
class ProtocolStore(Protocol):
    """Storage surface for memory records."""

    def get(self, key: str) -> Any: ...
    def put(self, key: str, value: Any) -> None: ...
`
	require.NoError(t, os.WriteFile(filepath.Join(memoryDir, "store.py"), []byte(store), 0644))

	// Same name, same signature, same domain, different file: an accepted
	// duplicate.
	legacy := `from typing import Protocol, runtime_checkable

@runtime_checkable
class ProtocolStore(Protocol):
    """Storage surface for memory records."""

    def get(self, key: str) -> Any: ...
    def put(self, key: str, value: Any) -> None: ...
`
	require.NoError(t, os.WriteFile(filepath.Join(memoryDir, "store_legacy.py"), []byte(legacy), 0644))

	emitter := `from typing import Protocol

class ProtocolEmitter(Protocol):
    """Publishes events to subscribers."""

    def emit(self, event: Event) -> None: ...
`
	require.NoError(t, os.WriteFile(filepath.Join(eventsDir, "emitter.py"), []byte(emitter), 0644))

	// No protocol marker anywhere: quick-skip candidate.
	helpers := `def add(a, b):
    return a + b
`
	require.NoError(t, os.WriteFile(filepath.Join(eventsDir, "helpers.py"), []byte(helpers), 0644))
}

func newTestConfig(tmpDir string) *config.Config {
	cfg := config.Default()
	cfg.ScanPath = filepath.Join(tmpDir, "src")
	cfg.Output.ReportPath = filepath.Join(tmpDir, "analysis.json")
	cfg.Output.PlanPath = filepath.Join(tmpDir, "plan.json")
	cfg.Output.SARIFPath = filepath.Join(tmpDir, "findings.sarif")
	return cfg
}

func TestFullPipelineIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	createTestTree(t, tmpDir)

	cfg := newTestConfig(tmpDir)
	instance, err := app.New(cfg)
	require.NoError(t, err)
	defer instance.Close()

	var out bytes.Buffer
	instance.SetOutput(&out)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	analysis, err := instance.Run(ctx)
	require.NoError(t, err)

	assert.Len(t, analysis.Records, 3)
	assert.Equal(t, 4, analysis.FilesScanned)
	assert.Equal(t, 1, analysis.FilesSkipped, "helpers.py should be quick-skipped")

	// ProtocolStore and ProtocolCache share domain, shape, and signature.
	require.Len(t, analysis.Duplicates, 1)
	assert.Equal(t, "memory", analysis.Duplicates[0].Domain)
	assert.Len(t, analysis.Duplicates[0].Records, 2)

	assert.Empty(t, analysis.Conflicts)
	assert.False(t, analysis.Clean())
	assert.Equal(t, 1, app.ExitCode(analysis, false))

	require.NoError(t, instance.Report(analysis, app.Options{
		GenerateReport: true,
		GeneratePlan:   true,
		Verbose:        true,
	}))

	assert.Contains(t, out.String(), "ProtocolStore")
	assert.Contains(t, out.String(), "Duplicate signatures")

	raw, err := os.ReadFile(cfg.Output.ReportPath)
	require.NoError(t, err)
	var artifact report.Artifact
	require.NoError(t, json.Unmarshal(raw, &artifact))
	assert.Len(t, artifact.Protocols, 3)
	require.Len(t, artifact.Analysis.DuplicateGroups, 1)
	assert.ElementsMatch(t, []string{"ProtocolStore", "ProtocolStore"}, artifact.Analysis.DuplicateGroups[0].Protocols)

	_, err = os.Stat(cfg.Output.PlanPath)
	assert.NoError(t, err)

	sarif, err := os.ReadFile(cfg.Output.SARIFPath)
	require.NoError(t, err)
	assert.Contains(t, string(sarif), "SPI001")
}

func TestCleanTreeExitsZero(t *testing.T) {
	tmpDir := t.TempDir()
	srcDir := filepath.Join(tmpDir, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0755))

	emitter := `from typing import Protocol

class ProtocolEmitter(Protocol):
    """Publishes events."""

    def emit(self, event: Event) -> None: ...
`
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "emitter.py"), []byte(emitter), 0644))

	cfg := newTestConfig(tmpDir)
	instance, err := app.New(cfg)
	require.NoError(t, err)
	defer instance.Close()
	instance.SetOutput(&bytes.Buffer{})

	analysis, err := instance.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, analysis.Clean())
	assert.Equal(t, 0, app.ExitCode(analysis, false))

	// A warning-free clean run must stay at zero even with fail-on-warnings.
	if len(analysis.Warnings) == 0 {
		assert.Equal(t, 0, app.ExitCode(analysis, true))
	} else {
		assert.Equal(t, 1, app.ExitCode(analysis, true))
	}
}

func TestMissingScanRootFails(t *testing.T) {
	cfg := config.Default()
	cfg.ScanPath = filepath.Join(t.TempDir(), "does-not-exist")

	instance, err := app.New(cfg)
	require.NoError(t, err)
	defer instance.Close()

	_, err = instance.Run(context.Background())
	require.Error(t, err)
}

func TestHistorySnapshotPersisted(t *testing.T) {
	tmpDir := t.TempDir()
	createTestTree(t, tmpDir)

	cfg := newTestConfig(tmpDir)
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(tmpDir, "history.db")

	instance, err := app.New(cfg)
	require.NoError(t, err)
	defer instance.Close()
	instance.SetOutput(&bytes.Buffer{})

	_, err = instance.Run(context.Background())
	require.NoError(t, err)

	trend, err := instance.Trend(time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, trend.ScanCount)
	assert.Equal(t, 3, trend.Points[0].ProtocolCount)
	assert.Equal(t, 1, trend.Points[0].DuplicateCount)
}

func TestHistoryCloseReleasesDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	createTestTree(t, tmpDir)

	cfg := newTestConfig(tmpDir)
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(tmpDir, "history.db")

	instance, err := app.New(cfg)
	require.NoError(t, err)
	instance.SetOutput(&bytes.Buffer{})

	_, err = instance.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, instance.Close())

	// A closed store must leave the database readable by a fresh instance.
	reopened, err := app.New(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	trend, err := reopened.Trend(time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, trend.ScanCount)
}

func TestParseErrorsAreClassified(t *testing.T) {
	tmpDir := t.TempDir()
	srcDir := filepath.Join(tmpDir, "src", "memory")
	require.NoError(t, os.MkdirAll(srcDir, 0755))

	broken := `class ProtocolBroken(Protocol):
    def get(self, key: str) -> str:
        ...

def dangling(:
`
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "broken.py"), []byte(broken), 0644))

	cfg := newTestConfig(tmpDir)
	instance, err := app.New(cfg)
	require.NoError(t, err)
	defer instance.Close()
	instance.SetOutput(&bytes.Buffer{})

	analysis, err := instance.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, analysis.Errors)
	for _, issue := range analysis.Errors {
		assert.Contains(t, issue.Message, "PARSE_ERROR")
	}
}
