// Package scaffold expands a directory tree of templates into a concrete
// project tree.
//
// A scaffold is a source directory whose file names, directory names and
// file contents may all contain template syntax. Loading builds an immutable
// Tree; expansion renders every name and content against one context and
// writes the result under a destination root. Files without any template
// markers are copied byte for byte, so binary assets pass through untouched.
//
// Expansion is two-phase: the whole tree is rendered into a plan first, and
// nothing is written until the plan is known to be collision free. A write
// failure midway leaves best-effort partial output; there is no rollback.
// Expanding into overlapping destination roots concurrently is undefined
// behavior and must be prevented by the caller.
package scaffold
