package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/pandocdeps/internal/cmdline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses shell scripts")
	}
}

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
}

func TestDetect(t *testing.T) {
	t.Parallel()

	found := func(string) (string, error) { return "/usr/bin/pandoc", nil }
	missing := func(string) (string, error) { return "", errors.New("not found") }

	path, err := Detect("/opt/pandoc", missing)
	require.NoError(t, err)
	assert.Equal(t, "/opt/pandoc", path)

	path, err = Detect("", found)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/pandoc", path)

	_, err = Detect("", missing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseVersion(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		out     string
		want    *Info
		wantErr error
	}{
		{
			name: "pandoc 3",
			out: "pandoc 3.1.11\r\nFeatures: +server +lua\nScripting engine: Lua 5.4\n" +
				"User data directory: /home/me/.local/share/pandoc\nCopyright (C) 2006-2023 John MacFarlane.\n",
			want: &Info{Version: "3.1.11", DataDir: "/home/me/.local/share/pandoc"},
		},
		{
			name: "pandoc 2 with alternatives",
			out:  "pandoc.exe 2.19.2\nCompiled with pandoc-types 1.22.2\nDefault user data directory: C:\\Users\\me\\AppData\\Roaming\\pandoc or C:\\Users\\me\\.pandoc\n",
			want: &Info{Version: "2.19.2", DataDir: "C:\\Users\\me\\AppData\\Roaming\\pandoc"},
		},
		{
			name: "no data directory line",
			out:  "pandoc 1.19\n",
			want: &Info{Version: "1.19"},
		},
		{name: "not pandoc", out: "cat (GNU coreutils) 9.1\n", wantErr: ErrIncompatible},
		{name: "empty", out: "", wantErr: ErrIncompatible},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseVersion([]byte(tc.out))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ParseVersion() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	dir := t.TempDir()
	fake := filepath.Join(dir, "pandoc")
	writeScript(t, fake, "echo 'pandoc 3.2'\necho 'User data directory: /data'\n")

	info, err := Probe(context.Background(), fake)
	require.NoError(t, err)
	assert.Equal(t, &Info{Path: fake, Version: "3.2", DataDir: "/data"}, info)

	_, err = Probe(context.Background(), filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	failing := filepath.Join(dir, "broken")
	writeScript(t, failing, "exit 3\n")
	_, err = Probe(context.Background(), failing)
	assert.ErrorIs(t, err, ErrIncompatible)
}

func TestFindFilter(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	dir := t.TempDir()
	writeScript(t, filepath.Join(dir, "exec-filter"), "cat\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.py"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.txt"), nil, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data", "filters"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "filters", "cite.R"), nil, 0o644))

	testCases := []struct {
		name, filter, dataDir string
		want                  []string
	}{
		{"executable in dir", "exec-filter", "", []string{"./exec-filter"}},
		{"script needs interpreter", "plain.py", "", []string{"python", "plain.py"}},
		{"unknown extension", "plain.txt", "", []string{"plain.txt"}},
		{"data directory", "cite.R", "data", []string{"Rscript", filepath.Join("data", "filters", "cite.R")}},
		{"left to PATH", "pandoc-crossref", "data", []string{"pandoc-crossref"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, FindFilter(tc.filter, tc.dataDir, dir))
		})
	}
}

func TestJSONPipeline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.py"), nil, 0o644))

	t.Run("single stage without filters", func(t *testing.T) {
		t.Parallel()
		pl := JSONPipeline(JSONRequest{
			Pandoc:  "pandoc",
			Plan:    cmdline.Split([]string{"--standalone", "-o", "out.html", "doc.md"}, []string{"doc.md"}),
			Sources: []string{"doc.md"},
			Format:  "html",
			Dir:     dir,
		})
		assert.Equal(t, "pandoc --standalone --to json doc.md", pl.String())
		assert.Equal(t, dir, pl.Dir)
	})

	t.Run("filters become stages", func(t *testing.T) {
		t.Parallel()
		args := []string{
			"-f", "markdown", "--data-dir", "dd", "--toc", "-F", "a.py", "--citeproc",
			"--filter", "b", "--data-dir=dd", "--number-sections", "-t", "latex", "x.md", "y.md",
		}
		sources := []string{"x.md", "y.md"}
		pl := JSONPipeline(JSONRequest{
			Pandoc:  "pandoc",
			Plan:    cmdline.Split(args, sources),
			Sources: sources,
			Format:  "latex",
			DataDir: "dd",
			Dir:     dir,
		})

		want := []Stage{
			{Args: []string{"pandoc", "-f", "markdown", "--toc", "--data-dir=dd", "--to", "json", "x.md", "y.md"}},
			{Args: []string{"python", "a.py", "latex"}},
			{Args: []string{"pandoc", "--from", "json", "--to", "json", "--data-dir=dd", "--citeproc"}},
			{Args: []string{"b", "latex"}},
			{Args: []string{"pandoc", "--from", "json", "--to", "json", "--data-dir=dd", "--number-sections"}},
		}
		if diff := cmp.Diff(want, pl.Stages); diff != "" {
			t.Errorf("stages mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("trailing filter ends the pipeline", func(t *testing.T) {
		t.Parallel()
		pl := JSONPipeline(JSONRequest{
			Pandoc:  "pandoc",
			Plan:    cmdline.Split([]string{"doc.md", "-Fb"}, []string{"doc.md"}),
			Sources: []string{"doc.md"},
			Format:  "html",
		})
		assert.Equal(t, "pandoc --to json doc.md | b html", pl.String())
	})
}

func TestPipelineRun(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in.txt"), []byte("hello\n"), 0o644))

	t.Run("stages are chained", func(t *testing.T) {
		t.Parallel()
		pl := &Pipeline{Dir: dir, Stages: []Stage{
			{Args: []string{"cat", "in.txt"}},
			{Args: []string{"tr", "a-z", "A-Z"}},
			{Args: []string{"sed", "s/$/!/"}},
		}}
		out, err := pl.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "HELLO!\n", string(out))
	})

	t.Run("failing stage reports stderr", func(t *testing.T) {
		t.Parallel()
		pl := &Pipeline{Dir: dir, Stages: []Stage{
			{Args: []string{"cat", "in.txt"}},
			{Args: []string{"sh", "-c", "cat >/dev/null; echo boom >&2; exit 2"}},
		}}
		_, err := pl.Run(context.Background())
		require.Error(t, err)

		var stageErr *StageError
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, 1, stageErr.Index)
		assert.Equal(t, "boom", stageErr.Stderr)
	})

	t.Run("missing program", func(t *testing.T) {
		t.Parallel()
		pl := &Pipeline{Dir: dir, Stages: []Stage{
			{Args: []string{"cat", "in.txt"}},
			{Args: []string{filepath.Join(dir, "no-such-program")}},
		}}
		_, err := pl.Run(context.Background())
		var stageErr *StageError
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, 1, stageErr.Index)
	})

	t.Run("empty pipeline", func(t *testing.T) {
		t.Parallel()
		_, err := (&Pipeline{}).Run(context.Background())
		assert.Error(t, err)
	})
}
