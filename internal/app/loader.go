package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/matrixci/internal/config"
	"github.com/vk/matrixci/internal/fsutil"
	"github.com/vk/matrixci/internal/hcl"
	"github.com/vk/matrixci/internal/yaml"
)

// LoaderForPath picks the pipeline loader by file extension. A directory is
// probed for .hcl files first, then .yaml/.yml; mixing both formats in one
// directory is rejected rather than silently preferring one.
func LoaderForPath(path string) (config.Loader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", path, err)
	}

	if !info.IsDir() {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".hcl":
			return hcl.NewLoader(), nil
		case ".yaml", ".yml":
			return yaml.NewLoader(), nil
		default:
			return nil, fmt.Errorf("unsupported pipeline file extension: %s", path)
		}
	}

	hclFiles, err := fsutil.FindFilesByExtensions(path, ".hcl")
	if err != nil {
		return nil, err
	}
	yamlFiles, err := fsutil.FindFilesByExtensions(path, ".yaml", ".yml")
	if err != nil {
		return nil, err
	}

	switch {
	case len(hclFiles) > 0 && len(yamlFiles) > 0:
		return nil, fmt.Errorf("directory %s mixes .hcl and .yaml pipeline files", path)
	case len(hclFiles) > 0:
		return hcl.NewLoader(), nil
	case len(yamlFiles) > 0:
		return yaml.NewLoader(), nil
	default:
		return nil, fmt.Errorf("no pipeline files found in %s", path)
	}
}
