package template

import (
	stderrors "errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/forge/pkg/errors"
	"github.com/arthur-debert/forge/pkg/logging"
	"github.com/arthur-debert/forge/pkg/types"
)

// Engine holds the filter table and parses templates against it. A single
// Engine can serve any number of concurrent parses and renders.
type Engine struct {
	filters FilterTable
	logger  zerolog.Logger
}

// NewEngine creates an engine with the default filter table
func NewEngine() *Engine {
	return &Engine{
		filters: DefaultFilters(),
		logger:  logging.GetLogger("template"),
	}
}

// Template is the parsed, immutable form of one template. It may be reused
// across many renders with different contexts.
type Template struct {
	name   string
	root   *BlockNode
	engine *Engine
}

// Name returns the name the template was parsed under
func (t *Template) Name() string {
	return t.name
}

// StaticText returns the concatenation of the template's top-level literal
// runs: the output a render produces when every dynamic part contributes
// nothing
func (t *Template) StaticText() string {
	var sb strings.Builder
	for _, n := range t.root.Nodes {
		if text, ok := n.(*TextNode); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String()
}

// Render walks the tree against ctx and returns the rendered document.
// ctx must not be mutated while the call is in flight.
func (t *Template) Render(ctx *types.Context) (string, error) {
	r := &renderer{name: t.name, engine: t.engine}
	return r.render(t.root, ctx)
}

// Parse parses an anonymous template
func (e *Engine) Parse(source string) (*Template, error) {
	return e.ParseNamed("<inline>", source)
}

// ParseNamed parses a template under the given name, which is carried into
// every error the template later produces
func (e *Engine) ParseNamed(name, source string) (*Template, error) {
	tokens, err := lex(source)
	if err != nil {
		var fe *errors.ForgeError
		if stderrors.As(err, &fe) {
			fe.WithDetail("template", name)
		}
		return nil, err
	}
	p := &parser{name: name, tokens: tokens, engine: e}
	root, _, err := p.parseBlock(nil)
	if err != nil {
		return nil, err
	}
	e.logger.Trace().Str("template", name).Int("nodes", len(root.Nodes)).Msg("Template parsed")
	return &Template{name: name, root: root, engine: e}, nil
}

// Render parses and renders in one step
func (e *Engine) Render(source string, ctx *types.Context) (string, error) {
	t, err := e.Parse(source)
	if err != nil {
		return "", err
	}
	return t.Render(ctx)
}

var defaultEngine = NewEngine()

// Parse parses a template with the default engine
func Parse(source string) (*Template, error) {
	return defaultEngine.Parse(source)
}

// ParseNamed parses a named template with the default engine
func ParseNamed(name, source string) (*Template, error) {
	return defaultEngine.ParseNamed(name, source)
}

// Render parses and renders a template with the default engine
func Render(source string, ctx *types.Context) (string, error) {
	return defaultEngine.Render(source, ctx)
}
