package template

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/arthur-debert/forge/pkg/types"
)

// The expression grammar inside tags is deliberately small: dotted/indexed
// paths, a pipeline of filters with literal arguments, and the condition
// operators is/not/and/or. Anything beyond that is a syntax error, not a
// missing feature.

type exprTokenType int

const (
	exprIdent exprTokenType = iota
	exprNumber
	exprString
	exprDot
	exprPipe
	exprLParen
	exprRParen
	exprComma
	exprLBracket
	exprRBracket
)

type exprToken struct {
	typ exprTokenType
	val string
}

func tokenizeExpr(s string) ([]exprToken, error) {
	var toks []exprToken
	runes := []rune(s)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			i++
		case r == '.':
			toks = append(toks, exprToken{exprDot, "."})
			i++
		case r == '|':
			toks = append(toks, exprToken{exprPipe, "|"})
			i++
		case r == '(':
			toks = append(toks, exprToken{exprLParen, "("})
			i++
		case r == ')':
			toks = append(toks, exprToken{exprRParen, ")"})
			i++
		case r == ',':
			toks = append(toks, exprToken{exprComma, ","})
			i++
		case r == '[':
			toks = append(toks, exprToken{exprLBracket, "["})
			i++
		case r == ']':
			toks = append(toks, exprToken{exprRBracket, "]"})
			i++
		case r == '\'' || r == '"':
			lit, n, err := scanStringLiteral(runes[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, exprToken{exprString, lit})
			i += n
		case unicode.IsDigit(r) || (r == '-' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			i++
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			toks = append(toks, exprToken{exprNumber, string(runes[start:i])})
		case isIdentStart(r):
			start := i
			for i < len(runes) && isIdentPart(runes[i]) {
				i++
			}
			toks = append(toks, exprToken{exprIdent, string(runes[start:i])})
		default:
			return nil, fmt.Errorf("unexpected character %q", r)
		}
	}
	return toks, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// scanStringLiteral consumes a quoted string starting at runes[0], returning
// the unescaped value and the number of runes consumed
func scanStringLiteral(runes []rune) (string, int, error) {
	quote := runes[0]
	var sb strings.Builder
	i := 1
	for i < len(runes) {
		r := runes[i]
		switch r {
		case quote:
			return sb.String(), i + 1, nil
		case '\\':
			if i+1 >= len(runes) {
				return "", 0, fmt.Errorf("unterminated string literal")
			}
			i++
			switch runes[i] {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '\\', '\'', '"':
				sb.WriteRune(runes[i])
			default:
				return "", 0, fmt.Errorf("unsupported escape \\%c", runes[i])
			}
			i++
		default:
			sb.WriteRune(r)
			i++
		}
	}
	return "", 0, fmt.Errorf("unterminated string literal")
}

type exprParser struct {
	toks []exprToken
	pos  int
}

func newExprParser(content string) (*exprParser, error) {
	toks, err := tokenizeExpr(content)
	if err != nil {
		return nil, err
	}
	return &exprParser{toks: toks}, nil
}

func (p *exprParser) atEnd() bool {
	return p.pos >= len(p.toks)
}

func (p *exprParser) peek() (exprToken, bool) {
	if p.atEnd() {
		return exprToken{}, false
	}
	return p.toks[p.pos], true
}

func (p *exprParser) next() (exprToken, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

func (p *exprParser) accept(typ exprTokenType) bool {
	if tok, ok := p.peek(); ok && tok.typ == typ {
		p.pos++
		return true
	}
	return false
}

// acceptKeyword consumes the next token if it is the given bare identifier
func (p *exprParser) acceptKeyword(kw string) bool {
	if tok, ok := p.peek(); ok && tok.typ == exprIdent && tok.val == kw {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) expectIdent() (string, error) {
	tok, ok := p.next()
	if !ok {
		return "", fmt.Errorf("expected identifier, found end of expression")
	}
	if tok.typ != exprIdent {
		return "", fmt.Errorf("expected identifier, found %q", tok.val)
	}
	return tok.val, nil
}

func (p *exprParser) expectEnd() error {
	if tok, ok := p.peek(); ok {
		return fmt.Errorf("unexpected %q after expression", tok.val)
	}
	return nil
}

// parsePath parses a dotted/indexed accessor: a, a.b.c, items.0, items[0],
// config["key"]
func (p *exprParser) parsePath() (Path, error) {
	name, err := p.expectIdent()
	if err != nil {
		return Path{}, err
	}
	path := Path{
		Segments: []Segment{{Key: name}},
		Raw:      name,
	}

	for {
		switch {
		case p.accept(exprDot):
			tok, ok := p.next()
			if !ok {
				return Path{}, fmt.Errorf("expected name after '.' in %q", path.Raw)
			}
			switch tok.typ {
			case exprIdent:
				path.Segments = append(path.Segments, Segment{Key: tok.val})
				path.Raw += "." + tok.val
			case exprNumber:
				idx, convErr := strconv.Atoi(tok.val)
				if convErr != nil {
					return Path{}, fmt.Errorf("invalid index %q in path", tok.val)
				}
				path.Segments = append(path.Segments, Segment{Index: idx, IsIndex: true})
				path.Raw += "." + tok.val
			default:
				return Path{}, fmt.Errorf("expected name after '.' in %q, found %q", path.Raw, tok.val)
			}
		case p.accept(exprLBracket):
			tok, ok := p.next()
			if !ok {
				return Path{}, fmt.Errorf("expected index after '[' in %q", path.Raw)
			}
			switch tok.typ {
			case exprNumber:
				idx, convErr := strconv.Atoi(tok.val)
				if convErr != nil {
					return Path{}, fmt.Errorf("invalid index %q in path", tok.val)
				}
				path.Segments = append(path.Segments, Segment{Index: idx, IsIndex: true})
				path.Raw += "[" + tok.val + "]"
			case exprString:
				path.Segments = append(path.Segments, Segment{Key: tok.val})
				path.Raw += "[" + strconv.Quote(tok.val) + "]"
			default:
				return Path{}, fmt.Errorf("expected index after '[' in %q, found %q", path.Raw, tok.val)
			}
			if !p.accept(exprRBracket) {
				return Path{}, fmt.Errorf("missing ']' in %q", path.Raw)
			}
		default:
			return path, nil
		}
	}
}

// parseLiteral parses a literal filter argument: a quoted string, a number,
// true/false or null. Computed arguments are not part of the grammar.
func (p *exprParser) parseLiteral() (types.Value, error) {
	tok, ok := p.next()
	if !ok {
		return types.Undefined, fmt.Errorf("expected filter argument, found end of expression")
	}
	switch tok.typ {
	case exprString:
		return types.String(tok.val), nil
	case exprNumber:
		n, err := strconv.ParseFloat(tok.val, 64)
		if err != nil {
			return types.Undefined, fmt.Errorf("invalid number %q", tok.val)
		}
		return types.Number(n), nil
	case exprIdent:
		switch tok.val {
		case "true":
			return types.Bool(true), nil
		case "false":
			return types.Bool(false), nil
		case "null", "none":
			return types.Null(), nil
		}
		return types.Undefined, fmt.Errorf("filter arguments must be literals, found %q", tok.val)
	default:
		return types.Undefined, fmt.Errorf("filter arguments must be literals, found %q", tok.val)
	}
}

// parseFilters parses a trailing pipeline: | name | name(arg, ...)
func (p *exprParser) parseFilters() ([]FilterCall, error) {
	var filters []FilterCall
	for p.accept(exprPipe) {
		name, err := p.expectIdent()
		if err != nil {
			return nil, fmt.Errorf("expected filter name after '|': %w", err)
		}
		call := FilterCall{Name: name}
		if p.accept(exprLParen) {
			if tok, ok := p.peek(); !ok || tok.typ != exprRParen {
				for {
					arg, argErr := p.parseLiteral()
					if argErr != nil {
						return nil, argErr
					}
					call.Args = append(call.Args, arg)
					if !p.accept(exprComma) {
						break
					}
				}
			}
			if !p.accept(exprRParen) {
				return nil, fmt.Errorf("missing ')' in filter %s", name)
			}
		}
		filters = append(filters, call)
	}
	return filters, nil
}

// parseInterpolation parses the content of a {{ }} tag
func parseInterpolation(content string) (Path, []FilterCall, error) {
	p, err := newExprParser(content)
	if err != nil {
		return Path{}, nil, err
	}
	path, err := p.parsePath()
	if err != nil {
		return Path{}, nil, err
	}
	filters, err := p.parseFilters()
	if err != nil {
		return Path{}, nil, err
	}
	if err := p.expectEnd(); err != nil {
		return Path{}, nil, err
	}
	return path, filters, nil
}

// parseForHeader parses the remainder of a {% for %} tag: "<var> in <path>"
func parseForHeader(rest string) (string, Path, error) {
	p, err := newExprParser(rest)
	if err != nil {
		return "", Path{}, err
	}
	loopVar, err := p.expectIdent()
	if err != nil {
		return "", Path{}, fmt.Errorf("expected loop variable: %w", err)
	}
	if !p.acceptKeyword("in") {
		return "", Path{}, fmt.Errorf("expected 'in' after loop variable %q", loopVar)
	}
	path, err := p.parsePath()
	if err != nil {
		return "", Path{}, err
	}
	if err := p.expectEnd(); err != nil {
		return "", Path{}, err
	}
	return loopVar, path, nil
}

// parseCondition parses the remainder of an {% if %} or {% elif %} tag.
// Precedence, tightest first: is-tests, not, and, or.
func parseCondition(rest string) (Condition, error) {
	p, err := newExprParser(rest)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return cond, nil
}

func (p *exprParser) parseOr() (Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = CondOr{Left: left, Right: right}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (Condition, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("and") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = CondAnd{Left: left, Right: right}
	}
	return left, nil
}

func (p *exprParser) parseNot() (Condition, error) {
	if p.acceptKeyword("not") {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return CondNot{Inner: inner}, nil
	}
	return p.parseCondPrimary()
}

func (p *exprParser) parseCondPrimary() (Condition, error) {
	path, err := p.parsePath()
	if err != nil {
		return nil, err
	}
	if !p.acceptKeyword("is") {
		return CondTruthy{Path: path}, nil
	}
	negate := p.acceptKeyword("not")
	testName, err := p.expectIdent()
	if err != nil {
		return nil, fmt.Errorf("expected test name after 'is': %w", err)
	}
	var cond Condition
	switch Test(testName) {
	case TestDefined, TestIterable, TestString:
		cond = CondTest{Path: path, Test: Test(testName)}
	default:
		return nil, fmt.Errorf("unknown test %q", testName)
	}
	if negate {
		cond = CondNot{Inner: cond}
	}
	return cond, nil
}
