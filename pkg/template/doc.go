// Package template implements the rendering engine for forge templates.
//
// A template is literal text interleaved with interpolations ({{ expr }})
// and block tags ({% for %} / {% if %}). Parsing produces an immutable AST
// that can be rendered any number of times against different contexts;
// parsing is a pure function of its input and rendering never mutates the
// context, so a parsed Template is safe for concurrent renders.
//
// Path resolution is partial: looking up a name that was never bound, or
// indexing past the end of a sequence, yields the Undefined sentinel rather
// than an error. Templates branch on this with "is defined" and the default
// filter, which is how optional sections are expressed without any
// exception-style control flow.
package template
