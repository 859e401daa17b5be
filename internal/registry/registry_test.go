package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/pandocdeps/internal/ctxlog"
	"github.com/specialistvlad/pandocdeps/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubst(t *testing.T) {
	t.Parallel()

	env := NewEnvironment(map[string]string{
		"PANDOC":      "/usr/bin/pandoc",
		"PANDOCFLAGS": "--standalone $EXTRA",
		"EXTRA":       "--toc",
		"PANDOCCOM":   "$PANDOC $PANDOCFLAGS -o ${TARGET} ${SOURCES}",
		"LOOP":        "x$LOOP",
	})
	target := &Target{
		Path:    "out/my doc.html",
		Sources: []string{"a.md", "b c.md"},
	}

	testCases := []struct {
		name, text, want string
	}{
		{"recursive", "$PANDOCCOM", "/usr/bin/pandoc --standalone --toc -o 'out/my doc.html' a.md 'b c.md'"},
		{"first source", "$SOURCE", "a.md"},
		{"braces next to text", "${EXTRA}s", "--tocs"},
		{"unknown is empty", "[$NOPE]", "[]"},
		{"literal dollar", "cost $$5 and $", "cost $5 and $"},
		{"unterminated brace", "x ${PANDOC", "x ${PANDOC"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, env.Subst(tc.text, target))
		})
	}

	t.Run("self reference terminates", func(t *testing.T) {
		t.Parallel()
		assert.Contains(t, env.Subst("$LOOP", target), "xxx")
	})

	t.Run("overrides win", func(t *testing.T) {
		t.Parallel()
		overridden := &Target{Path: "x.pdf", Overrides: map[string]string{"EXTRA": "--citeproc"}}
		assert.Equal(t, "--standalone --citeproc", env.Subst("$PANDOCFLAGS", overridden))
	})

	t.Run("without target specials are empty", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "-o ", env.Subst("-o $TARGET", nil))
	})
}

func TestSetDefault(t *testing.T) {
	t.Parallel()

	env := NewEnvironment(map[string]string{"PANDOCFLAGS": "--toc"})
	env.SetDefault("PANDOCFLAGS", "--standalone")
	env.SetDefault("PANDOCCOMSTR", "")
	env.Set("PANDOC", "pandoc")

	assert.Equal(t, map[string]string{"PANDOCFLAGS": "--toc", "PANDOCCOMSTR": "", "PANDOC": "pandoc"}, env.Vars())
}

func TestCommandAndDescribe(t *testing.T) {
	t.Parallel()

	env := NewEnvironment(map[string]string{"COM": "pandoc -o $TARGET $SOURCES", "COMSTR": ""})
	b := &Builder{Name: "Pandoc", Action: "$COM", ActionStr: "$COMSTR"}
	target := &Target{Path: "a b.html", Sources: []string{"x.md"}}

	args, err := env.Command(b, target)
	require.NoError(t, err)
	assert.Equal(t, []string{"pandoc", "-o", "a b.html", "x.md"}, args)
	assert.Equal(t, "pandoc -o 'a b.html' x.md", env.Describe(b, target))

	env.Set("COMSTR", "Converting $TARGET")
	assert.Equal(t, "Converting 'a b.html'", env.Describe(b, target))

	_, err = env.Command(&Builder{Name: "Broken", Action: "echo 'unterminated"}, target)
	assert.Error(t, err)

	_, err = env.Command(&Builder{Name: "Empty", Action: "$NOTHING"}, target)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	env := NewEnvironment(map[string]string{"COM": "$PANDOC $FLAGS -o $TARGET", "FLAGS": "$MORE"})
	env.AddBuilder(&Builder{Name: "Pandoc", Action: "$COM"})
	env.AddBuilder(&Builder{Name: "Nothing"})

	err := env.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "builder 'Nothing': action is empty")
	assert.Contains(t, err.Error(), "variable 'PANDOC' is not defined")
	assert.Contains(t, err.Error(), "variable 'MORE' is not defined")

	ok := NewEnvironment(map[string]string{"COM": "cat $SOURCES > $TARGET"})
	ok.AddBuilder(&Builder{Name: "Cat", Action: "$COM"})
	assert.NoError(t, ok.Validate())
}

func TestAddBuilder_PanicsOnDuplicate(t *testing.T) {
	t.Parallel()

	env := NewEnvironment(nil)
	env.AddBuilder(&Builder{Name: "Pandoc", Action: "x"})
	assert.Panics(t, func() { env.AddBuilder(&Builder{Name: "Pandoc", Action: "y"}) })

	b, ok := env.Builder("Pandoc")
	require.True(t, ok)
	assert.Equal(t, "x", b.Action)
}

func TestScan_WithoutScanner(t *testing.T) {
	t.Parallel()

	env := NewEnvironment(nil)
	res, err := env.Scan(context.Background(), &Builder{Name: "Cat", Action: "cat"}, &Target{Path: "out"})
	require.NoError(t, err)
	assert.Empty(t, res.Dependencies())

	called := false
	b := &Builder{Name: "Scanned", Action: "x", Scanner: func(context.Context, *Environment, *Target) (*scanner.Result, error) {
		called = true
		return &scanner.Result{Declared: []string{"dep"}}, nil
	}}
	res, err = env.Scan(context.Background(), b, &Target{Path: "out"})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, []string{"dep"}, res.Dependencies())
}

type stubTool struct {
	name   string
	err    error
	action string
}

func (s *stubTool) Name() string { return s.name }

func (s *stubTool) Generate(env *Environment) error {
	if s.err != nil {
		return s.err
	}
	env.AddBuilder(&Builder{Name: s.name, Action: s.action})
	return nil
}

func (s *stubTool) Exists(*Environment) bool { return true }

func TestRegistry(t *testing.T) {
	t.Parallel()
	ctx := ctxlog.Discard(context.Background())

	t.Run("generates in order", func(t *testing.T) {
		t.Parallel()
		r := New()
		r.Register(&stubTool{name: "b", action: "true"})
		r.Register(&stubTool{name: "a", action: "true"})
		assert.Panics(t, func() { r.Register(&stubTool{name: "a"}) })

		env := NewEnvironment(nil)
		require.NoError(t, r.Generate(ctx, env))
		assert.Equal(t, []string{"a", "b"}, env.BuilderNames())

		names := []string{}
		for _, tool := range r.Tools() {
			names = append(names, tool.Name())
		}
		assert.Equal(t, []string{"b", "a"}, names)

		_, ok := r.Tool("a")
		assert.True(t, ok)
	})

	t.Run("wraps tool errors", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		r := New()
		r.Register(&stubTool{name: "broken", err: boom})
		err := r.Generate(ctx, NewEnvironment(nil))
		assert.ErrorIs(t, err, boom)
		assert.ErrorContains(t, err, "tool 'broken'")
	})

	t.Run("validates the environment", func(t *testing.T) {
		t.Parallel()
		r := New()
		r.Register(&stubTool{name: "dangling", action: "$UNSET"})
		assert.Error(t, r.Generate(ctx, NewEnvironment(nil)))
	})
}
