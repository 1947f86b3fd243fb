package scaffold

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/forge/pkg/errors"
	"github.com/arthur-debert/forge/pkg/logging"
	"github.com/arthur-debert/forge/pkg/template"
	"github.com/arthur-debert/forge/pkg/types"
)

// Expander expands scaffold trees through a filesystem abstraction. It is
// the only part of the engine that touches the filesystem.
type Expander struct {
	fs     types.FS
	engine *template.Engine
	logger zerolog.Logger
}

// NewExpander creates an expander over the given filesystem
func NewExpander(fsys types.FS) *Expander {
	return &Expander{
		fs:     fsys,
		engine: template.NewEngine(),
		logger: logging.GetLogger("scaffold"),
	}
}

// Options control a single expansion
type Options struct {
	// DryRun plans the expansion and reports what would be written without
	// touching the destination
	DryRun bool
}

// ExpansionReport describes what an expansion produced
type ExpansionReport struct {
	// Files are the concrete file paths written, in the order written
	Files []string
	// Dirs are the concrete directories created
	Dirs []string
	// Verbatim counts files copied without rendering
	Verbatim int
	// DryRun reports whether the expansion was planned only
	DryRun bool
}

// plannedEntry is one concrete path the expansion will produce
type plannedEntry struct {
	dest     string
	isDir    bool
	data     []byte
	verbatim bool
	source   string
}

// ExpandPath loads the scaffold at root and expands it under dest
func (e *Expander) ExpandPath(root string, ctx *types.Context, dest string, opts Options) (*ExpansionReport, error) {
	tree, err := e.Load(root)
	if err != nil {
		return nil, err
	}
	return e.Expand(tree, ctx, dest, opts)
}

// Expand renders every name and content of the tree against ctx and writes
// the result under dest. The plan is checked for path collisions before
// anything is written: two templated names collapsing to the same concrete
// path fail with a COLLISION error and produce no output at all.
func (e *Expander) Expand(tree *Tree, ctx *types.Context, dest string, opts Options) (*ExpansionReport, error) {
	defer logging.LogDuration(time.Now(), "scaffold expansion")

	var plan []plannedEntry
	seen := make(map[string]string)
	if err := e.plan(tree.Roots, ctx, dest, &plan, seen); err != nil {
		return nil, err
	}

	report := &ExpansionReport{DryRun: opts.DryRun}
	for _, entry := range plan {
		if entry.isDir {
			report.Dirs = append(report.Dirs, entry.dest)
		} else {
			report.Files = append(report.Files, entry.dest)
			if entry.verbatim {
				report.Verbatim++
			}
		}
	}

	if opts.DryRun {
		e.logger.Info().Int("files", len(report.Files)).Msg("Dry run, nothing written")
		return report, nil
	}

	if err := e.fs.MkdirAll(dest, 0o755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "creating destination %q", dest)
	}
	for _, entry := range plan {
		if entry.isDir {
			if err := e.fs.MkdirAll(entry.dest, 0o755); err != nil {
				return nil, errors.Wrapf(err, errors.ErrDirCreate, "creating %q", entry.dest).
					WithDetail("source", entry.source)
			}
			continue
		}
		if err := e.fs.WriteFile(entry.dest, entry.data, 0o644); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileWrite, "writing %q", entry.dest).
				WithDetail("source", entry.source)
		}
		e.logger.Trace().Str("path", entry.dest).Msg("File written")
	}

	e.logger.Debug().
		Int("files", len(report.Files)).
		Int("dirs", len(report.Dirs)).
		Int("verbatim", report.Verbatim).
		Msg("Scaffold expanded")
	return report, nil
}

func (e *Expander) plan(nodes []*Node, ctx *types.Context, destDir string, plan *[]plannedEntry, seen map[string]string) error {
	for _, node := range nodes {
		name, err := e.concreteName(node, ctx)
		if err != nil {
			return err
		}
		dest := filepath.Join(destDir, name)

		if prev, dup := seen[dest]; dup {
			return errors.Newf(errors.ErrCollision,
				"path %q produced by both %q and %q", dest, prev, node.SourcePath).
				WithDetail("path", dest).
				WithDetail("sources", []string{prev, node.SourcePath})
		}
		seen[dest] = node.SourcePath

		if node.IsDir {
			*plan = append(*plan, plannedEntry{dest: dest, isDir: true, source: node.SourcePath})
			if err := e.plan(node.Children, ctx, dest, plan, seen); err != nil {
				return err
			}
			continue
		}

		entry := plannedEntry{dest: dest, source: node.SourcePath}
		if node.ContentTemplate != nil {
			rendered, err := node.ContentTemplate.Render(ctx)
			if err != nil {
				return err
			}
			entry.data = []byte(rendered)
		} else {
			entry.data = node.Raw
			entry.verbatim = true
		}
		*plan = append(*plan, entry)
	}
	return nil
}

// concreteName renders a node's name template, when it has one, and checks
// that the result is a usable single path element
func (e *Expander) concreteName(node *Node, ctx *types.Context) (string, error) {
	if node.NameTemplate == nil {
		return node.Name, nil
	}
	name, err := node.NameTemplate.Render(ctx)
	if err != nil {
		return "", err
	}
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", errors.Newf(errors.ErrRender,
			"name template %q rendered invalid file name %q", node.Name, name).
			WithDetail("source", node.SourcePath)
	}
	// {{name}}.js with name empty or unbound renders ".js"; a name whose
	// dynamic parts all contributed nothing is a data error, not a file name
	if name == node.NameTemplate.StaticText() {
		return "", errors.Newf(errors.ErrRender,
			"name template %q rendered %q: every templated part is empty", node.Name, name).
			WithDetail("source", node.SourcePath)
	}
	return name, nil
}
