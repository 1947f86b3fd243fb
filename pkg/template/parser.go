package template

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/forge/pkg/errors"
)

type parser struct {
	name   string
	tokens []token
	pos    int
	engine *Engine
}

// blockTag is a {% %} token split into its tag name and remainder
type blockTag struct {
	name string
	rest string
	pos  Position
}

func splitTag(tok token) blockTag {
	content := tok.content
	idx := strings.IndexAny(content, " \t")
	if idx == -1 {
		return blockTag{name: content, pos: tok.pos}
	}
	return blockTag{
		name: content[:idx],
		rest: strings.TrimSpace(content[idx:]),
		pos:  tok.pos,
	}
}

func (p *parser) syntaxErrorf(pos Position, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return errors.Newf(errors.ErrSyntax, "%s at %s", msg, pos).
		WithDetail("template", p.name).
		WithDetail("position", pos.String())
}

// parseBlock consumes tokens until one of the terminator tags or, when none
// are given, the end of input. Returns the block and the terminating tag.
func (p *parser) parseBlock(terminators []string) (*BlockNode, *blockTag, error) {
	block := &BlockNode{}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++

		switch tok.typ {
		case tokenText:
			block.Nodes = append(block.Nodes, &TextNode{Text: tok.content, Pos: tok.pos})

		case tokenVar:
			if tok.content == "" {
				return nil, nil, p.syntaxErrorf(tok.pos, "empty interpolation")
			}
			path, filters, err := parseInterpolation(tok.content)
			if err != nil {
				return nil, nil, p.syntaxErrorf(tok.pos, "invalid expression {{ %s }}: %v", tok.content, err)
			}
			for _, f := range filters {
				if _, ok := p.engine.filters[f.Name]; !ok {
					return nil, nil, p.syntaxErrorf(tok.pos, "unknown filter %q", f.Name)
				}
			}
			block.Nodes = append(block.Nodes, &InterpNode{
				Path:    path,
				Filters: filters,
				Raw:     tok.content,
				Pos:     tok.pos,
			})

		case tokenBlock:
			tag := splitTag(tok)
			switch tag.name {
			case "":
				return nil, nil, p.syntaxErrorf(tok.pos, "empty tag")
			case "for":
				node, err := p.parseFor(tag)
				if err != nil {
					return nil, nil, err
				}
				block.Nodes = append(block.Nodes, node)
			case "if":
				node, err := p.parseIf(tag)
				if err != nil {
					return nil, nil, err
				}
				block.Nodes = append(block.Nodes, node)
			default:
				for _, term := range terminators {
					if tag.name == term {
						return block, &tag, nil
					}
				}
				switch tag.name {
				case "endfor", "endif", "elif", "else":
					return nil, nil, p.syntaxErrorf(tok.pos, "unexpected {%% %s %%}", tag.name)
				default:
					return nil, nil, p.syntaxErrorf(tok.pos, "unknown tag %q", tag.name)
				}
			}
		}
	}

	if len(terminators) > 0 {
		return nil, nil, p.syntaxErrorf(p.lastPos(), "unclosed block: expected {%% %s %%}", terminators[len(terminators)-1])
	}
	return block, nil, nil
}

func (p *parser) lastPos() Position {
	if len(p.tokens) == 0 {
		return Position{1, 1}
	}
	return p.tokens[len(p.tokens)-1].pos
}

func (p *parser) parseFor(tag blockTag) (*ForNode, error) {
	loopVar, path, err := parseForHeader(tag.rest)
	if err != nil {
		return nil, p.syntaxErrorf(tag.pos, "invalid for tag: %v", err)
	}
	body, term, err := p.parseBlock([]string{"endfor"})
	if err != nil {
		return nil, err
	}
	if term.rest != "" {
		return nil, p.syntaxErrorf(term.pos, "unexpected content after endfor")
	}
	return &ForNode{Var: loopVar, Collection: path, Body: body, Pos: tag.pos}, nil
}

func (p *parser) parseIf(tag blockTag) (*IfNode, error) {
	cond, err := parseCondition(tag.rest)
	if err != nil {
		return nil, p.syntaxErrorf(tag.pos, "invalid condition: %v", err)
	}

	node := &IfNode{Pos: tag.pos}
	for {
		body, term, err := p.parseBlock([]string{"elif", "else", "endif"})
		if err != nil {
			return nil, err
		}
		node.Branches = append(node.Branches, IfBranch{Cond: cond, Body: body})

		switch term.name {
		case "endif":
			if term.rest != "" {
				return nil, p.syntaxErrorf(term.pos, "unexpected content after endif")
			}
			return node, nil
		case "elif":
			cond, err = parseCondition(term.rest)
			if err != nil {
				return nil, p.syntaxErrorf(term.pos, "invalid condition: %v", err)
			}
		case "else":
			if term.rest != "" {
				return nil, p.syntaxErrorf(term.pos, "unexpected content after else")
			}
			elseBody, term2, err := p.parseBlock([]string{"endif"})
			if err != nil {
				return nil, err
			}
			if term2.rest != "" {
				return nil, p.syntaxErrorf(term2.pos, "unexpected content after endif")
			}
			node.Else = elseBody
			return node, nil
		}
	}
}
