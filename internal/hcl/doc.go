// Package hcl provides the HCL implementation of the config.Loader
// interface: file discovery, parsing, and translation into the
// format-agnostic pipeline model. Guard and argument expressions are kept
// as raw hcl.Expression values and resolved later, per job.
package hcl
