package upload

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/ctxlog"
	"github.com/vk/matrixci/internal/matrix"
	"github.com/vk/matrixci/internal/registry"
	"github.com/vk/matrixci/internal/result"
)

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testJob(t *testing.T) *matrix.JobSpec {
	t.Helper()
	jobs, err := matrix.Expand(&config.Pipeline{
		Matrix: &config.Matrix{
			Axes: []*config.Axis{
				{Name: "os", Values: []cty.Value{cty.StringVal("ubuntu-latest")}},
			},
		},
	})
	require.NoError(t, err)
	return jobs[0]
}

func writeArtifact(t *testing.T, name, content string) result.Artifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return result.Artifact{Name: "dist", Path: path}
}

func TestOnRunUpload_PutsArtifactToURL(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	var gotMethod, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	artifact := writeArtifact(t, "dist.json", `{"ok":true}`)
	out, err := onRunUpload(testCtx(), &registry.Invocation{
		Job:  testJob(t),
		Step: "upload",
		Args: map[string]cty.Value{
			"artifact": cty.StringVal("dist"),
			"url":      cty.StringVal(server.URL),
		},
		Artifacts: []result.Artifact{artifact},
	})

	require.NoError(t, err)
	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, `{"ok":true}`, string(gotBody))
	require.NotNil(t, out)
	require.Equal(t, "dist", out.Name)
}

func TestOnRunUpload_RejectedUploadIsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer server.Close()

	artifact := writeArtifact(t, "dist.tar", "payload")
	_, err := onRunUpload(testCtx(), &registry.Invocation{
		Job:  testJob(t),
		Step: "upload",
		Args: map[string]cty.Value{
			"artifact": cty.StringVal("dist"),
			"url":      cty.StringVal(server.URL),
		},
		Artifacts: []result.Artifact{artifact},
	})

	require.Error(t, err)
	require.Contains(t, err.Error(), "upload failed with status")
}

func TestOnRunUpload_UnknownArtifactIsError(t *testing.T) {
	t.Parallel()

	_, err := onRunUpload(testCtx(), &registry.Invocation{
		Job:  testJob(t),
		Step: "upload",
		Args: map[string]cty.Value{
			"artifact": cty.StringVal("never-produced"),
			"url":      cty.StringVal("http://localhost:1"),
		},
	})

	require.Error(t, err)
	require.Contains(t, err.Error(), `no artifact named "never-produced"`)
}
