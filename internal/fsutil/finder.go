// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtensions recursively searches the given root path for all
// files ending with any of the specified extensions. The result is sorted
// lexicographically so that callers see files in a stable order regardless
// of the underlying filesystem.
func FindFilesByExtensions(rootPath string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension must be provided")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range extensions {
			if strings.HasSuffix(d.Name(), ext) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// CollectFiles resolves each path to the matching files beneath it. A path
// naming a file is taken as-is; a directory is searched recursively with
// FindFilesByExtensions. A missing path is an error: a pipeline pointing at
// nothing is a configuration mistake, not an empty pipeline.
func CollectFiles(paths []string, extensions ...string) ([]string, error) {
	var all []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			all = append(all, path)
			continue
		}
		found, err := FindFilesByExtensions(path, extensions...)
		if err != nil {
			return nil, err
		}
		all = append(all, found...)
	}
	return all, nil
}
