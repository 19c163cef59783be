// Package testutil provides the shared harness for pipeline integration
// tests: it writes pipeline files to a temp dir, boots a full App with a
// captured logger, runs it, and hands back the report for assertions.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/matrixci/internal/app"
	"github.com/vk/matrixci/internal/registry"
	"github.com/vk/matrixci/internal/result"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Report    *result.Report
	LogOutput string
	Err       error
	App       *app.App
}

// RunPipelineTest writes the given pipeline files to a temp directory, boots
// the app with the provided modules, and runs the pipeline to completion.
// Startup panics are recovered into Err so tests can assert on bad
// configuration without crashing the test binary.
func RunPipelineTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunPipelineTestWithContext(context.Background(), t, files, modules...)
}

// RunPipelineTestWithContext is RunPipelineTest with a caller-provided
// context, for tests that exercise external cancellation.
func RunPipelineTestWithContext(ctx context.Context, t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	cfg, err := app.NewConfig(app.Config{
		PipelinePath: tmpDir,
		Workers:      4,
		FailFast:     "auto",
		LogLevel:     "debug",
		LogFormat:    "text",
	})
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		loader, err := app.LoaderForPath(tmpDir)
		if err != nil {
			panicErr = err
			return
		}
		testApp = app.New(logBuffer, cfg, loader, modules...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	report, runErr := testApp.Run(ctx)

	if os.Getenv("MATRIXCI_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		Report:    report,
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
	}
}

// JobByID finds one job outcome in the report by its expanded identity.
func (r *HarnessResult) JobByID(t *testing.T, id string) *result.JobOutcome {
	t.Helper()
	require.NotNil(t, r.Report, "run produced no report")
	for i := range r.Report.Jobs {
		if r.Report.Jobs[i].JobID == id {
			return &r.Report.Jobs[i]
		}
	}
	t.Fatalf("no job with id %q in report", id)
	return nil
}
