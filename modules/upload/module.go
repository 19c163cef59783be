// Package upload pushes an artifact produced by an earlier step in the same
// job to a pre-signed URL via HTTP PUT.
package upload

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/vk/matrixci/internal/ctxlog"
	"github.com/vk/matrixci/internal/registry"
	"github.com/vk/matrixci/internal/result"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// httpClient is shared across all upload executions to reuse TCP connections.
var httpClient = &http.Client{}

// onRunUpload is the handler for the 'upload' action. It resolves the named
// artifact from the steps that already ran in this job.
func onRunUpload(ctx context.Context, inv *registry.Invocation) (*result.Artifact, error) {
	logger := ctxlog.FromContext(ctx).With("action", "upload", "job", inv.Job.ID(), "step", inv.Step)

	name, err := inv.StringArg("artifact")
	if err != nil {
		return nil, err
	}
	url, err := inv.StringArg("url")
	if err != nil {
		return nil, err
	}

	var source *result.Artifact
	for i := range inv.Artifacts {
		if inv.Artifacts[i].Name == name {
			source = &inv.Artifacts[i]
			break
		}
	}
	if source == nil {
		return nil, fmt.Errorf("no artifact named %q was produced by an earlier step", name)
	}

	file, err := os.Open(source.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact '%s': %w", source.Path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file stats for '%s': %w", source.Path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, file)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(source.Path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = stat.Size()

	logger.Info("Uploading artifact.", "source", source.Path, "size", stat.Size(), "contentType", contentType)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upload failed with status: %s", resp.Status)
	}
	logger.Info("Successfully uploaded artifact.", "status", resp.Status)

	return &result.Artifact{Name: name, Path: url, ContentType: contentType}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("upload", onRunUpload)
}
