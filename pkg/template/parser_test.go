package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/forge/pkg/errors"
)

func mustParse(t *testing.T, source string) *Template {
	t.Helper()
	tmpl, err := Parse(source)
	require.NoError(t, err)
	return tmpl
}

func TestParseLiteralOnly(t *testing.T) {
	tmpl := mustParse(t, "no tags here")
	require.Len(t, tmpl.root.Nodes, 1)
	text, ok := tmpl.root.Nodes[0].(*TextNode)
	require.True(t, ok)
	assert.Equal(t, "no tags here", text.Text)
}

func TestParseInterpolation(t *testing.T) {
	tmpl := mustParse(t, `{{ game.title | default("Untitled") | upper }}`)
	require.Len(t, tmpl.root.Nodes, 1)
	interp, ok := tmpl.root.Nodes[0].(*InterpNode)
	require.True(t, ok)

	require.Len(t, interp.Path.Segments, 2)
	assert.Equal(t, "game", interp.Path.Segments[0].Key)
	assert.Equal(t, "title", interp.Path.Segments[1].Key)

	require.Len(t, interp.Filters, 2)
	assert.Equal(t, "default", interp.Filters[0].Name)
	require.Len(t, interp.Filters[0].Args, 1)
	assert.Equal(t, "Untitled", interp.Filters[0].Args[0].Str())
	assert.Equal(t, "upper", interp.Filters[1].Name)
	assert.Empty(t, interp.Filters[1].Args)
}

func TestParseIndexedPaths(t *testing.T) {
	tests := []struct {
		source string
	}{
		{"{{ items.0 }}"},
		{"{{ items[0] }}"},
		{"{{ items[0].name }}"},
		{`{{ config["key"] }}`},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			mustParse(t, tt.source)
		})
	}
}

func TestParseForLoop(t *testing.T) {
	tmpl := mustParse(t, "{% for scene in game.scenes %}{{ scene }}{% endfor %}")
	require.Len(t, tmpl.root.Nodes, 1)
	loop, ok := tmpl.root.Nodes[0].(*ForNode)
	require.True(t, ok)
	assert.Equal(t, "scene", loop.Var)
	assert.Equal(t, "game.scenes", loop.Collection.Raw)
	require.Len(t, loop.Body.Nodes, 1)
}

func TestParseIfElifElse(t *testing.T) {
	tmpl := mustParse(t, "{% if a %}1{% elif b %}2{% elif c %}3{% else %}4{% endif %}")
	require.Len(t, tmpl.root.Nodes, 1)
	node, ok := tmpl.root.Nodes[0].(*IfNode)
	require.True(t, ok)
	assert.Len(t, node.Branches, 3)
	require.NotNil(t, node.Else)
	require.Len(t, node.Else.Nodes, 1)
}

func TestParseConditions(t *testing.T) {
	tests := []struct {
		name   string
		source string
		check  func(t *testing.T, cond Condition)
	}{
		{
			name:   "truthy",
			source: "{% if player %}x{% endif %}",
			check: func(t *testing.T, cond Condition) {
				_, ok := cond.(CondTruthy)
				assert.True(t, ok)
			},
		},
		{
			name:   "is defined",
			source: "{% if player is defined %}x{% endif %}",
			check: func(t *testing.T, cond Condition) {
				test, ok := cond.(CondTest)
				require.True(t, ok)
				assert.Equal(t, TestDefined, test.Test)
			},
		},
		{
			name:   "iterable and not string",
			source: "{% if controls is iterable and controls is not string %}x{% endif %}",
			check: func(t *testing.T, cond Condition) {
				and, ok := cond.(CondAnd)
				require.True(t, ok)
				left, ok := and.Left.(CondTest)
				require.True(t, ok)
				assert.Equal(t, TestIterable, left.Test)
				not, ok := and.Right.(CondNot)
				require.True(t, ok)
				right, ok := not.Inner.(CondTest)
				require.True(t, ok)
				assert.Equal(t, TestString, right.Test)
			},
		},
		{
			name:   "or with not",
			source: "{% if not a or b %}x{% endif %}",
			check: func(t *testing.T, cond Condition) {
				or, ok := cond.(CondOr)
				require.True(t, ok)
				_, ok = or.Left.(CondNot)
				assert.True(t, ok)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := mustParse(t, tt.source)
			node, ok := tmpl.root.Nodes[0].(*IfNode)
			require.True(t, ok)
			tt.check(t, node.Branches[0].Cond)
		})
	}
}

func TestParseNestedBlocks(t *testing.T) {
	source := `{% for section in doc.sections %}{% if section.items %}{% for item in section.items %}{{ item }}{% endfor %}{% endif %}{% endfor %}`
	tmpl := mustParse(t, source)
	outer, ok := tmpl.root.Nodes[0].(*ForNode)
	require.True(t, ok)
	cond, ok := outer.Body.Nodes[0].(*IfNode)
	require.True(t, ok)
	inner, ok := cond.Branches[0].Body.Nodes[0].(*ForNode)
	require.True(t, ok)
	assert.Equal(t, "item", inner.Var)
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unclosed for", "{% for x in items %}{{ x }}"},
		{"unclosed if", "{% if x %}body"},
		{"mismatched endfor", "{% if x %}body{% endfor %}"},
		{"mismatched endif", "{% for x in items %}{{ x }}{% endif %}"},
		{"stray endif", "text{% endif %}"},
		{"stray else", "{% else %}"},
		{"unknown tag", "{% include \"other\" %}"},
		{"unknown filter", "{{ name | shout }}"},
		{"empty interpolation", "{{ }}"},
		{"missing in", "{% for x items %}{% endfor %}"},
		{"unknown test", "{% if x is numeric %}{% endif %}"},
		{"computed filter arg", "{{ items | join(sep) }}"},
		{"trailing garbage", "{{ name extra }}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.source)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrSyntax),
				"expected SYNTAX error, got %v", err)
		})
	}
}

func TestParseErrorReportsPosition(t *testing.T) {
	_, err := Parse("line one\nline two {% bogus %}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	details := errors.GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Contains(t, details["position"], "line 2")
}

func TestTemplateStaticText(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"{{name}}.js", ".js"},
		{"{{a}}-{{b}}.txt", "-.txt"},
		{"{% if x %}a{% endif %}.md", ".md"},
		{"{{name}}", ""},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, mustParse(t, tt.source).StaticText())
		})
	}
}

func TestParseIsDeterministic(t *testing.T) {
	source := "{% for x in items %}{{ x | default(\"-\") }}{% endfor %}"
	a := mustParse(t, source)
	b := mustParse(t, source)
	assert.Equal(t, a.root, b.root)
}
