package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/pandocdeps/internal/config"
	"github.com/specialistvlad/pandocdeps/internal/ctxlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testLoader() *Loader {
	return &Loader{Environ: func() []string { return []string{"LANG_CODE=de", "BROKEN"} }}
}

func testContext() context.Context {
	return ctxlog.Discard(context.Background())
}

func TestLoad_FullBuildFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := t.TempDir()
	dir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	writeFile(t, filepath.Join(dir, "chapters", "02.md"), "")
	writeFile(t, filepath.Join(dir, "chapters", "01.md"), "")
	writeFile(t, filepath.Join(dir, "chapters", "notes.txt"), "")
	writeFile(t, filepath.Join(dir, "build.hcl"), `
pandoc {
  path                     = "bin/pandoc"
  flags                    = ["--standalone", "--toc"]
  command                  = "$PANDOC $PANDOCFLAGS -o $TARGET $SOURCES"
  command_str              = "pandoc $TARGET"
  data_dir                 = "share"
  skip_intermediate_images = true
}

document "out/book.html" {
  sources   = glob("chapters/*.md")
  flags     = concat(["--bibliography", "refs.bib"], ["--metadata", format("lang=%s", lower(upper(env.LANG_CODE)))])
  variables = { TITLE = join("-", ["a", "b"]) }
}
`)

	// --- Act ---
	model, err := testLoader().Load(testContext(), filepath.Join(dir, "build.hcl"))

	// --- Assert ---
	require.NoError(t, err)
	file := filepath.Join(dir, "build.hcl")
	flags := []string{"--standalone", "--toc"}
	commandStr := "pandoc $TARGET"
	want := &config.Model{
		Tool: &config.ToolSettings{
			Path:                   filepath.Join(dir, "bin", "pandoc"),
			Flags:                  &flags,
			Command:                "$PANDOC $PANDOCFLAGS -o $TARGET $SOURCES",
			CommandStr:             &commandStr,
			DataDir:                filepath.Join(dir, "share"),
			SkipIntermediateImages: true,
			FSInfo:                 config.FSInfo{FilePath: file},
		},
		Documents: []*config.Document{{
			Target:    filepath.Join("out", "book.html"),
			Sources:   []string{filepath.Join("chapters", "01.md"), filepath.Join("chapters", "02.md")},
			Flags:     []string{"--bibliography", "refs.bib", "--metadata", "lang=de"},
			Variables: map[string]string{"TITLE": "a-b"},
			Dir:       dir,
			FSInfo:    config.FSInfo{FilePath: file},
		}},
	}
	if diff := cmp.Diff(want, model); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_DefaultsAndDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.hcl"), `document "a.html" { sources = ["a.md"] }`)
	writeFile(t, filepath.Join(dir, "sub", "b.hcl"), `
pandoc {
  path  = "pandoc"
  flags = []
}
document "a.html" { sources = ["b.md"] }
`)
	writeFile(t, filepath.Join(dir, "README.md"), "not a build file")

	model, err := testLoader().Load(testContext(), dir, filepath.Join(dir, "a.hcl"), filepath.Join(dir, "missing"))
	require.NoError(t, err)

	require.Len(t, model.Documents, 2)
	assert.Equal(t, "a.html", model.Documents[0].Target)
	assert.Equal(t, "a.html", model.Documents[1].Target)
	assert.NotEqual(t, model.Documents[0].Path(), model.Documents[1].Path())
	assert.Nil(t, model.Documents[0].Flags)

	require.NotNil(t, model.Tool)
	assert.Equal(t, "pandoc", model.Tool.Path)
	require.NotNil(t, model.Tool.Flags)
	assert.Empty(t, *model.Tool.Flags)
	assert.Nil(t, model.Tool.CommandStr)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "duplicate target",
			files:   map[string]string{"a.hcl": `document "x.html" { sources = ["a.md"] }`, "b.hcl": `document "./x.html" { sources = ["b.md"] }`},
			wantErr: `document "x.html" already defined`,
		},
		{
			name:    "no sources",
			files:   map[string]string{"a.hcl": `document "x.html" { sources = [] }`},
			wantErr: "has no sources",
		},
		{
			name:    "glob without matches",
			files:   map[string]string{"a.hcl": `document "x.html" { sources = glob("*.md") }`},
			wantErr: "has no sources",
		},
		{
			name:    "two pandoc blocks",
			files:   map[string]string{"a.hcl": "pandoc {}\npandoc {}\n"},
			wantErr: "pandoc block already defined",
		},
		{
			name:    "unknown attribute",
			files:   map[string]string{"a.hcl": `document "x.html" { sorces = ["a.md"] }`},
			wantErr: "failed to decode",
		},
		{
			name:    "syntax error",
			files:   map[string]string{"a.hcl": `document "x.html" {`},
			wantErr: "failed to parse",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			for name, content := range tc.files {
				writeFile(t, filepath.Join(dir, name), content)
			}
			_, err := testLoader().Load(testContext(), dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_NoFiles(t *testing.T) {
	t.Parallel()

	_, err := testLoader().Load(testContext(), t.TempDir())
	assert.ErrorIs(t, err, config.ErrNoFiles)
}
