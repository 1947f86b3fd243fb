// Package filesystem provides implementations of the types.FS interface.
//
// Two implementations are available: an OS-backed filesystem for production
// use, and an afero-backed filesystem that lets tests run scaffold
// expansion against an in-memory tree.
package filesystem
