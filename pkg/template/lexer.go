package template

import (
	"strings"

	"github.com/arthur-debert/forge/pkg/errors"
)

const (
	openVar    = "{{"
	closeVar   = "}}"
	openBlock  = "{%"
	closeBlock = "%}"
)

type tokenType int

const (
	tokenText tokenType = iota
	tokenVar
	tokenBlock
)

// token is one lexed unit: a run of literal text, the trimmed inner content
// of a {{ }} interpolation, or the trimmed inner content of a {% %} tag
type token struct {
	typ     tokenType
	content string
	pos     Position
}

// HasTemplateSyntax reports whether data contains any template markers.
// Used by the scaffold expander to copy binary and plain assets verbatim
// without running them through the parser.
func HasTemplateSyntax(data []byte) bool {
	return strings.Contains(string(data), openVar) || strings.Contains(string(data), openBlock)
}

type lexer struct {
	source string
	line   int
	col    int
}

// lex splits source into text, interpolation and block tokens. A block tag
// that sits alone on a line consumes the line: its leading indentation and
// trailing newline are dropped so control tags leave no trace in the output.
// Whitespace everywhere else is preserved verbatim.
func lex(source string) ([]token, error) {
	lx := &lexer{source: source, line: 1, col: 1}
	return lx.run()
}

func (lx *lexer) run() ([]token, error) {
	var tokens []token
	src := lx.source
	i := 0

	for i < len(src) {
		// Find the nearest opening delimiter of either form
		v := strings.Index(src[i:], openVar)
		b := strings.Index(src[i:], openBlock)
		if v == -1 && b == -1 {
			tokens = append(tokens, token{tokenText, src[i:], Position{lx.line, lx.col}})
			break
		}

		next := i + v
		isBlock := false
		if b != -1 && (v == -1 || b < v) {
			next = i + b
			isBlock = true
		}

		if next > i {
			tokens = append(tokens, token{tokenText, src[i:next], Position{lx.line, lx.col}})
			lx.advance(src[i:next])
		}

		openPos := Position{lx.line, lx.col}
		closeDelim := closeVar
		if isBlock {
			closeDelim = closeBlock
		}
		end := findTagClose(src[next+2:], closeDelim)
		if end == -1 {
			return nil, errors.Newf(errors.ErrSyntax, "unterminated tag at %s", openPos).
				WithDetail("position", openPos.String())
		}

		content := strings.TrimSpace(src[next+2 : next+2+end])
		typ := tokenVar
		if isBlock {
			typ = tokenBlock
		}
		tokens = append(tokens, token{typ, content, openPos})

		lx.advance(src[next : next+2+end+2])
		i = next + 2 + end + 2

		if isBlock {
			tokens, i = lx.trimOwnLine(tokens, next, i)
		}
	}

	return tokens, nil
}

// findTagClose returns the index of the closing delimiter in s, skipping
// over quoted runs so that a string literal may contain "}}" or "%}".
// Returns -1 when the tag never closes; an unterminated string literal runs
// to the end of input and reads as an unterminated tag.
func findTagClose(s, delim string) int {
	i := 0
	for i < len(s) {
		switch c := s[i]; c {
		case '\'', '"':
			i++
			for i < len(s) {
				if s[i] == '\\' && i+1 < len(s) {
					i += 2
					continue
				}
				if s[i] == c {
					i++
					break
				}
				i++
			}
		default:
			if strings.HasPrefix(s[i:], delim) {
				return i
			}
			i++
		}
	}
	return -1
}

// trimOwnLine detects a block tag that occupies a whole line by itself:
// nothing but indentation between the previous newline and the tag, and
// nothing but spaces before the next newline (or end of input). When both
// hold, the indentation is stripped from the preceding text token and the
// scan position moves past the newline.
func (lx *lexer) trimOwnLine(tokens []token, tagStart, after int) ([]token, int) {
	src := lx.source

	if !onlyIndentBefore(src, tagStart) {
		return tokens, after
	}

	j := after
	for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
		j++
	}
	switch {
	case j >= len(src):
		// tag ends the input
	case src[j] == '\n':
		j++
	case src[j] == '\r' && j+1 < len(src) && src[j+1] == '\n':
		j += 2
	default:
		return tokens, after
	}
	lx.advance(src[after:j])

	// The text token before the tag, if any, ends at tagStart; its tail is
	// exactly the indentation to drop
	if len(tokens) >= 2 {
		prev := &tokens[len(tokens)-2]
		if prev.typ == tokenText {
			trimmed := strings.TrimRight(prev.content, " \t")
			if trimmed == "" {
				tokens = append(tokens[:len(tokens)-2], tokens[len(tokens)-1])
			} else {
				prev.content = trimmed
			}
		}
	}
	return tokens, j
}

// onlyIndentBefore reports whether everything between the last newline and
// pos is spaces or tabs (or pos is at the start of the source)
func onlyIndentBefore(src string, pos int) bool {
	for k := pos - 1; k >= 0; k-- {
		switch src[k] {
		case ' ', '\t':
			continue
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

// advance updates the line/column counters over consumed input
func (lx *lexer) advance(s string) {
	for _, r := range s {
		if r == '\n' {
			lx.line++
			lx.col = 1
		} else {
			lx.col++
		}
	}
}
