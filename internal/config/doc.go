// Package config defines the format-agnostic pipeline model and the Loader
// interface that format-specific front ends (HCL, YAML) implement. The rest
// of the engine consumes only this model and never touches raw files.
package config
