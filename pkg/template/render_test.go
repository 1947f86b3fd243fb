package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/forge/pkg/errors"
	"github.com/arthur-debert/forge/pkg/types"
)

func mustRender(t *testing.T, source string, ctx *types.Context) string {
	t.Helper()
	out, err := Render(source, ctx)
	require.NoError(t, err)
	return out
}

func TestRenderLiteralIdentity(t *testing.T) {
	sources := []string{
		"",
		"plain text",
		"multi\nline\n\ttext  with   spacing\n",
		"braces { } and % stay put",
	}
	for _, src := range sources {
		assert.Equal(t, src, mustRender(t, src, types.NewContext()))
	}
}

func TestRenderInterpolation(t *testing.T) {
	ctx := types.NewContext().
		Set("name", types.String("Ada")).
		Set("count", types.Int(3)).
		Set("ratio", types.Number(1.5)).
		Set("on", types.Bool(true)).
		Set("off", types.Bool(false)).
		Set("nothing", types.Null())

	tests := []struct {
		source string
		want   string
	}{
		{"Hello {{ name }}!", "Hello Ada!"},
		{"{{ count }}", "3"},
		{"{{ ratio }}", "1.5"},
		{"{{ on }}", "true"},
		{"{{ off }}", "false"},
		{"{{ nothing }}", ""},
		{"{{ missing }}", ""},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, mustRender(t, tt.source, ctx))
		})
	}
}

func TestRenderNestedPaths(t *testing.T) {
	player := types.NewMapping().
		Set("name", types.String("Rex")).
		Set("stats", types.Map(types.NewMapping().Set("speed", types.Int(200))))
	ctx := types.NewContext().
		Set("player", types.Map(player)).
		Set("scenes", types.Sequence(types.String("boot"), types.String("menu")))

	tests := []struct {
		source string
		want   string
	}{
		{"{{ player.name }}", "Rex"},
		{"{{ player.stats.speed }}", "200"},
		{"{{ scenes.0 }}", "boot"},
		{"{{ scenes[1] }}", "menu"},
		// Partial resolution: every miss is Undefined, which displays empty
		{"{{ player.missing }}", ""},
		{"{{ player.missing.deeper }}", ""},
		{"{{ scenes.5 }}", ""},
		{"{{ scenes.name }}", ""},
		{"{{ player.name.inner }}", ""},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, mustRender(t, tt.source, ctx))
		})
	}
}

func TestRenderDefaultFilter(t *testing.T) {
	ctx := types.NewContext().
		Set("present", types.String("here")).
		Set("empty", types.String("")).
		Set("nothing", types.Null())

	tests := []struct {
		source string
		want   string
	}{
		{`{{ missing | default("X") }}`, "X"},
		{`{{ nothing | default("X") }}`, "X"},
		{`{{ present | default("X") }}`, "here"},
		// Empty string is bound, so default does not apply
		{`{{ empty | default("X") }}`, ""},
		{`{{ missing | default(42) }}`, "42"},
		{`{{ missing | default(true) }}`, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, mustRender(t, tt.source, ctx))
		})
	}
}

func TestRenderHelloGuest(t *testing.T) {
	source := `Hello {{ user.name | default("Guest") }}!`

	ctx := types.NewContext().Set("user", types.Map(types.NewMapping()))
	assert.Equal(t, "Hello Guest!", mustRender(t, source, ctx))

	ctx = types.NewContext().
		Set("user", types.Map(types.NewMapping().Set("name", types.String("Ada"))))
	assert.Equal(t, "Hello Ada!", mustRender(t, source, ctx))
}

func TestRenderForLoop(t *testing.T) {
	seq := types.Sequence(types.String("a"), types.String("b"), types.String("c"))

	tests := []struct {
		name string
		ctx  *types.Context
		want string
	}{
		{"elements in order", types.NewContext().Set("s", seq), "abc"},
		{"empty sequence", types.NewContext().Set("s", types.Sequence()), ""},
		{"undefined collection", types.NewContext(), ""},
		{"non-sequence collection", types.NewContext().Set("s", types.String("abc")), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustRender(t, "{% for x in s %}{{ x }}{% endfor %}", tt.ctx))
		})
	}
}

func TestRenderLoopScoping(t *testing.T) {
	ctx := types.NewContext().
		Set("x", types.String("outer")).
		Set("title", types.String("Doc")).
		Set("s", types.Sequence(types.String("1"), types.String("2")))

	// Outer names stay visible; the loop variable shadows only itself
	out := mustRender(t, "{% for x in s %}{{ title }}:{{ x }} {% endfor %}{{ x }}", ctx)
	assert.Equal(t, "Doc:1 Doc:2 outer", out)
}

func TestRenderNestedLoops(t *testing.T) {
	rows := types.Sequence(
		types.Sequence(types.String("a"), types.String("b")),
		types.Sequence(types.String("c")),
	)
	ctx := types.NewContext().Set("rows", rows)
	out := mustRender(t, "{% for row in rows %}{% for cell in row %}{{ cell }}{% endfor %};{% endfor %}", ctx)
	assert.Equal(t, "ab;c;", out)
}

func TestRenderLoopOverMappings(t *testing.T) {
	levels := types.Sequence(
		types.Map(types.NewMapping().Set("name", types.String("Cave"))),
		types.Map(types.NewMapping().Set("name", types.String("Sky"))),
	)
	ctx := types.NewContext().Set("levels", levels)
	out := mustRender(t, "{% for level in levels %}- {{ level.name }}\n{% endfor %}", ctx)
	assert.Equal(t, "- Cave\n- Sky\n", out)
}

func TestRenderIfChains(t *testing.T) {
	tests := []struct {
		name string
		ctx  *types.Context
		want string
	}{
		{"first branch", types.NewContext().Set("a", types.Bool(true)), "A"},
		{"second branch", types.NewContext().Set("b", types.Bool(true)), "B"},
		{"else branch", types.NewContext(), "C"},
	}
	source := "{% if a %}A{% elif b %}B{% else %}C{% endif %}"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustRender(t, source, tt.ctx))
		})
	}
}

func TestRenderIfWithoutElseIsSilent(t *testing.T) {
	out := mustRender(t, "a{% if missing %}hidden{% endif %}b", types.NewContext())
	assert.Equal(t, "ab", out)
}

func TestRenderIsDefined(t *testing.T) {
	source := "{% if name is defined %}yes{% else %}no{% endif %}"

	assert.Equal(t, "no", mustRender(t, source, types.NewContext()))
	// Bound to null still counts as defined
	assert.Equal(t, "yes", mustRender(t, source, types.NewContext().Set("name", types.Null())))
	assert.Equal(t, "yes", mustRender(t, source, types.NewContext().Set("name", types.String(""))))
}

func TestRenderIterableNotString(t *testing.T) {
	// One field, two shapes: a single description or a list of them
	source := "{% if controls is iterable and controls is not string %}{% for c in controls %}[{{ c }}]{% endfor %}{% else %}[{{ controls }}]{% endif %}"

	listCtx := types.NewContext().
		Set("controls", types.Sequence(types.String("arrows"), types.String("space")))
	assert.Equal(t, "[arrows][space]", mustRender(t, source, listCtx))

	scalarCtx := types.NewContext().Set("controls", types.String("arrows"))
	assert.Equal(t, "[arrows]", mustRender(t, source, scalarCtx))
}

func TestRenderTruthiness(t *testing.T) {
	source := "{% if v %}t{% else %}f{% endif %}"
	tests := []struct {
		name  string
		value types.Value
		want  string
	}{
		{"true", types.Bool(true), "t"},
		{"false", types.Bool(false), "f"},
		{"zero", types.Int(0), "f"},
		{"nonzero", types.Int(7), "t"},
		{"empty string", types.String(""), "f"},
		{"string", types.String("x"), "t"},
		{"null", types.Null(), "f"},
		{"empty sequence", types.Sequence(), "f"},
		{"sequence", types.Sequence(types.Int(1)), "t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := types.NewContext().Set("v", tt.value)
			assert.Equal(t, tt.want, mustRender(t, source, ctx))
		})
	}
}

func TestRenderJoin(t *testing.T) {
	ctx := types.NewContext().
		Set("s", types.Sequence(types.String("a"), types.String("b"), types.String("c"))).
		Set("nums", types.Sequence(types.Int(1), types.Int(2)))

	assert.Equal(t, "a, b, c", mustRender(t, `{{ s | join(", ") }}`, ctx))
	assert.Equal(t, "1-2", mustRender(t, `{{ nums | join("-") }}`, ctx))
	// A separator containing the closing delimiter stays inside the tag
	assert.Equal(t, "a}}b}}c", mustRender(t, `{{ s | join("}}") }}`, ctx))
	assert.Equal(t, "", mustRender(t, `{{ empty | join(", ") }}`,
		types.NewContext().Set("empty", types.Sequence())))
}

func TestRenderJoinOnNonSequenceFails(t *testing.T) {
	ctx := types.NewContext().Set("s", types.String("abc"))
	_, err := Render(`{{ s | join(", ") }}`, ctx)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFilterType),
		"expected FILTER_TYPE error, got %v", err)
}

func TestRenderCompositeWithoutFilterFails(t *testing.T) {
	ctx := types.NewContext().
		Set("seq", types.Sequence(types.String("a"))).
		Set("map", types.Map(types.NewMapping().Set("k", types.Int(1))))

	for _, source := range []string{"{{ seq }}", "{{ map }}"} {
		_, err := Render(source, ctx)
		require.Error(t, err, "source %q", source)
		assert.True(t, errors.IsErrorCode(err, errors.ErrRender),
			"expected RENDER error, got %v", err)
	}
}

func TestRenderErrorCarriesLocation(t *testing.T) {
	ctx := types.NewContext().Set("s", types.Int(5))
	tmpl, err := ParseNamed("docs/design.md", "line\n{{ s | join(\",\") }}")
	require.NoError(t, err)

	_, err = tmpl.Render(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "docs/design.md")
	assert.Contains(t, err.Error(), "line 2")

	details := errors.GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "docs/design.md", details["template"])
}

func TestRenderErrorReturnsNoPartialOutput(t *testing.T) {
	ctx := types.NewContext().Set("bad", types.Sequence(types.Int(1)))
	out, err := Render("long prefix that should not leak {{ bad }}", ctx)
	require.Error(t, err)
	assert.Equal(t, "", out)
}

func TestRenderIdempotent(t *testing.T) {
	ctx := types.NewContext().
		Set("title", types.String("Starfall")).
		Set("scenes", types.Sequence(types.String("boot"), types.String("play")))
	tmpl := mustParse(t, "# {{ title }}\n{% for s in scenes %}- {{ s }}\n{% endfor %}")

	first, err := tmpl.Render(ctx)
	require.NoError(t, err)
	second, err := tmpl.Render(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderConcurrentSharedTemplate(t *testing.T) {
	tmpl := mustParse(t, "Hello {{ name }}!")

	done := make(chan string, 20)
	for i := 0; i < 20; i++ {
		name := strings.Repeat("x", i+1)
		go func(name string) {
			out, err := tmpl.Render(types.NewContext().Set("name", types.String(name)))
			if err != nil {
				done <- "error"
				return
			}
			done <- out
		}(name)
	}
	for i := 0; i < 20; i++ {
		out := <-done
		assert.NotEqual(t, "error", out)
		assert.True(t, strings.HasPrefix(out, "Hello "))
	}
}

func TestRenderDocumentEndToEnd(t *testing.T) {
	source := `# {{ game.title }}

{% if game.tagline is defined %}> {{ game.tagline }}
{% endif %}
## Mechanics
{% for m in game.mechanics %}- {{ m.name }}: {{ m.detail | default("TBD") }}
{% endfor %}
Keys: {{ game.keys | join(", ") }}
`
	mechanics := types.Sequence(
		types.Map(types.NewMapping().
			Set("name", types.String("Jump")).
			Set("detail", types.String("double jump"))),
		types.Map(types.NewMapping().Set("name", types.String("Dash"))),
	)
	game := types.NewMapping().
		Set("title", types.String("Starfall")).
		Set("mechanics", mechanics).
		Set("keys", types.Sequence(types.String("arrows"), types.String("space")))
	ctx := types.NewContext().Set("game", types.Map(game))

	want := `# Starfall

## Mechanics
- Jump: double jump
- Dash: TBD
Keys: arrows, space
`
	assert.Equal(t, want, mustRender(t, source, ctx))
}
