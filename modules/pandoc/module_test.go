package pandoc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/specialistvlad/pandocdeps/internal/converter"
	"github.com/specialistvlad/pandocdeps/internal/ctxlog"
	"github.com/specialistvlad/pandocdeps/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notFound(string) (string, error) { return "", errors.New("not found") }

func TestGenerate_SetsDefaults(t *testing.T) {
	t.Parallel()

	env := registry.NewEnvironment(map[string]string{VarFlags: "--toc"})
	env.SetWhereIs(func(name string) (string, error) { return "/usr/bin/" + name, nil })

	m := &Module{}
	require.NoError(t, m.Generate(env))

	assert.Equal(t, map[string]string{
		VarPandoc:     "/usr/bin/pandoc",
		VarFlags:      "--toc",
		VarCommand:    DefaultCommand,
		VarCommandStr: "",
	}, env.Vars())
	assert.True(t, m.Exists(env))

	b, ok := env.Builder(BuilderName)
	require.True(t, ok)
	assert.NotNil(t, b.Scanner)

	target := &registry.Target{Path: "out/doc.html", Sources: []string{"a.md", "b.md"}}
	args, err := env.Command(b, target)
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/bin/pandoc", "--toc", "-o", "out/doc.html", "a.md", "b.md"}, args)
	assert.Equal(t, "/usr/bin/pandoc --toc -o out/doc.html a.md b.md", env.Describe(b, target))
	assert.NoError(t, env.Validate())
}

func TestGenerate_ExplicitPath(t *testing.T) {
	t.Parallel()

	env := registry.NewEnvironment(map[string]string{VarPandoc: "/opt/pandoc/bin/pandoc"})
	env.SetWhereIs(notFound)

	m := &Module{}
	require.NoError(t, m.Generate(env))
	got, _ := env.Get(VarPandoc)
	assert.Equal(t, "/opt/pandoc/bin/pandoc", got)
}

func TestGenerate_NotFound(t *testing.T) {
	t.Parallel()

	env := registry.NewEnvironment(nil)
	env.SetWhereIs(notFound)

	m := &Module{}
	assert.False(t, m.Exists(env))
	assert.ErrorIs(t, m.Generate(env), converter.ErrNotFound)
	_, ok := env.Builder(BuilderName)
	assert.False(t, ok)
}

func TestScan_UsesSubstitutedCommand(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("uses shell scripts")
	}

	// --- Arrange ---
	dir := t.TempDir()
	tree := `{"pandoc-api-version":[1,23],"meta":{"bibliography":{"t":"MetaInlines","c":[{"t":"Str","c":"refs.bib"}]}},` +
		`"blocks":[{"t":"Para","c":[{"t":"Image","c":[["",[],[]],[],["img/a.png",""]]}]}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tree.json"), []byte(tree), 0o644))
	fake := filepath.Join(dir, "pandoc")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\ncat \""+filepath.Join(dir, "tree.json")+"\"\n"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "chapters"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chapters", "one.md"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), nil, 0o644))

	env := registry.NewEnvironment(map[string]string{
		VarPandoc:                 fake,
		VarSkipIntermediateImages: "false",
	})
	m := &Module{}
	require.NoError(t, m.Generate(env))
	b, _ := env.Builder(BuilderName)

	target := &registry.Target{
		Path:      "book.html",
		Sources:   []string{"chapters/one.md"},
		Overrides: map[string]string{VarFlags: "--standalone -c style.css"},
		Dir:       dir,
	}

	// --- Act ---
	res, err := env.Scan(ctxlog.Discard(context.Background()), b, target)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{
		"style.css",
		filepath.Join("chapters", "img", "a.png"),
		filepath.Join("chapters", "refs.bib"),
	}, res.Dependencies())
	assert.Equal(t, "html", res.Format)
}

func TestScan_InvalidSkipSetting(t *testing.T) {
	t.Parallel()

	env := registry.NewEnvironment(map[string]string{VarPandoc: "pandoc", VarSkipIntermediateImages: "sometimes"})
	m := &Module{}
	require.NoError(t, m.Generate(env))
	b, _ := env.Builder(BuilderName)

	_, err := env.Scan(ctxlog.Discard(context.Background()), b, &registry.Target{Path: "x.html", Sources: []string{"x.md"}})
	assert.ErrorContains(t, err, VarSkipIntermediateImages)
}

func TestDataDir_PrefersVariable(t *testing.T) {
	t.Parallel()

	env := registry.NewEnvironment(map[string]string{VarDataDir: "/share/pandoc"})
	assert.Equal(t, "/share/pandoc", dataDir(ctxlog.Discard(context.Background()), env, "pandoc"))
}

func TestDataDir_AsksTheExecutableEveryTime(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("uses shell scripts")
	}

	// --- Arrange ---
	dir := t.TempDir()
	current := filepath.Join(dir, "current")
	fake := filepath.Join(dir, "pandoc")
	script := "#!/bin/sh\nprintf 'pandoc 3.1\\nUser data directory: %s\\n' \"$(cat " + current + ")\"\n"
	require.NoError(t, os.WriteFile(fake, []byte(script), 0o755))
	env := registry.NewEnvironment(nil)
	ctx := ctxlog.Discard(context.Background())

	// --- Act & Assert ---
	require.NoError(t, os.WriteFile(current, []byte("/first"), 0o644))
	assert.Equal(t, "/first", dataDir(ctx, env, fake))

	require.NoError(t, os.WriteFile(current, []byte("/second"), 0o644))
	assert.Equal(t, "/second", dataDir(ctx, env, fake))
}
