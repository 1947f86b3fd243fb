// Package datactx populates render contexts from data files.
//
// The engine itself never decides what goes into a Context; that is the
// caller's job. This package is the file-based caller used by the CLI: it
// merges YAML, TOML and JSON files (later files override earlier ones) plus
// inline key=value overrides into a single Context.
package datactx
