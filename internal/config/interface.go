package config

import "context"

// Loader is the interface for a format-specific pipeline loader. A loader
// reads every pipeline file reachable from the given paths, translates the
// content into the format-agnostic model, and validates it.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Pipeline, error)
}
