package scaffold

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/forge/pkg/errors"
	"github.com/arthur-debert/forge/pkg/template"
)

// Node is one entry of a scaffold tree: a directory or a file. Names and
// contents that carry template syntax hold a parsed template; everything
// else stays literal.
type Node struct {
	// Name is the literal base name; nil NameTemplate means the name needs
	// no rendering
	Name         string
	NameTemplate *template.Template

	IsDir    bool
	Children []*Node

	// ContentTemplate is set for template files, Raw for verbatim assets
	ContentTemplate *template.Template
	Raw             []byte

	// SourcePath is the path relative to the scaffold root, for reporting
	SourcePath string
}

// Tree is the parsed, immutable form of a scaffold directory. Built once,
// read-only during expansion, reusable across expansions.
type Tree struct {
	SourceRoot string
	Roots      []*Node
}

// ignored filters out artifacts that show up in real scaffold checkouts
func ignored(name string, isDir bool) bool {
	if isDir {
		return name == ".git"
	}
	return name == ".DS_Store"
}

// Load reads the scaffold directory at root and parses every templated
// name and file body
func (e *Expander) Load(root string) (*Tree, error) {
	info, err := e.fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrSourceNotFound,
				"scaffold root %q does not exist", root).
				WithDetail("path", root)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "reading scaffold root %q", root)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrInvalidInput,
			"scaffold root %q is not a directory", root).
			WithDetail("path", root)
	}

	roots, err := e.loadDir(root, "")
	if err != nil {
		return nil, err
	}
	e.logger.Debug().Str("root", root).Msg("Scaffold tree loaded")
	return &Tree{SourceRoot: root, Roots: roots}, nil
}

func (e *Expander) loadDir(abs, rel string) ([]*Node, error) {
	entries, err := e.fs.ReadDir(abs)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "reading directory %q", abs)
	}

	var nodes []*Node
	for _, entry := range entries {
		name := entry.Name()
		if ignored(name, entry.IsDir()) {
			continue
		}
		srcRel := filepath.Join(rel, name)
		node := &Node{
			Name:       name,
			IsDir:      entry.IsDir(),
			SourcePath: srcRel,
		}

		if template.HasTemplateSyntax([]byte(name)) {
			tmpl, err := e.engine.ParseNamed(srcRel+" (name)", name)
			if err != nil {
				return nil, err
			}
			node.NameTemplate = tmpl
		}

		if entry.IsDir() {
			children, err := e.loadDir(filepath.Join(abs, name), srcRel)
			if err != nil {
				return nil, err
			}
			node.Children = children
		} else {
			data, err := e.fs.ReadFile(filepath.Join(abs, name))
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrFileAccess, "reading %q", srcRel)
			}
			if template.HasTemplateSyntax(data) {
				tmpl, err := e.engine.ParseNamed(srcRel, string(data))
				if err != nil {
					return nil, err
				}
				node.ContentTemplate = tmpl
			} else {
				node.Raw = data
			}
		}

		nodes = append(nodes, node)
	}
	return nodes, nil
}
