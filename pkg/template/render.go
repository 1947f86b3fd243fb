package template

import (
	"strings"

	"github.com/arthur-debert/forge/pkg/errors"
	"github.com/arthur-debert/forge/pkg/types"
)

type renderer struct {
	name   string
	engine *Engine
}

// render walks the tree against a fresh scope over ctx. Output is all or
// nothing: on any error the partially built buffer is discarded.
func (r *renderer) render(root *BlockNode, ctx *types.Context) (string, error) {
	var out strings.Builder
	if err := r.renderBlock(root, newScope(ctx), &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

func (r *renderer) renderBlock(b *BlockNode, sc *scope, out *strings.Builder) error {
	for _, n := range b.Nodes {
		switch node := n.(type) {
		case *TextNode:
			out.WriteString(node.Text)

		case *InterpNode:
			v := resolvePath(node.Path, sc)
			v, err := applyFilters(r.engine.filters, v, node.Filters)
			if err != nil {
				return r.locate(err, node.Raw, node.Pos)
			}
			s, err := v.Display()
			if err != nil {
				return r.locate(err, node.Raw, node.Pos)
			}
			out.WriteString(s)

		case *ForNode:
			coll := resolvePath(node.Collection, sc)
			if coll.Kind() != types.KindSequence {
				// Missing or non-sequence collections contribute no output;
				// optional list sections depend on this
				continue
			}
			for _, item := range coll.Items() {
				if err := r.renderBlock(node.Body, sc.child(node.Var, item), out); err != nil {
					return err
				}
			}

		case *IfNode:
			matched := false
			for _, branch := range node.Branches {
				if evalCondition(branch.Cond, sc) {
					if err := r.renderBlock(branch.Body, sc, out); err != nil {
						return err
					}
					matched = true
					break
				}
			}
			if !matched && node.Else != nil {
				if err := r.renderBlock(node.Else, sc, out); err != nil {
					return err
				}
			}

		case *BlockNode:
			if err := r.renderBlock(node, sc, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// locate wraps an evaluation error with the template name, the expression
// and its position, preserving the inner error code
func (r *renderer) locate(err error, raw string, pos Position) error {
	code := errors.GetErrorCode(err)
	if code == errors.ErrUnknown {
		code = errors.ErrRender
	}
	return errors.Wrapf(err, code, "template %s: {{ %s }} at %s", r.name, raw, pos).
		WithDetail("template", r.name).
		WithDetail("expression", raw).
		WithDetail("position", pos.String())
}
