package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/specialistvlad/pandocdeps/internal/config"
	"github.com/specialistvlad/pandocdeps/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance for system testing. It returns
// the app, its report output and its log output.
func SetupAppTest(t *testing.T, cfg *Config, loader config.Loader, tools ...registry.Tool) (*App, *SafeBuffer, *SafeBuffer) {
	t.Helper()

	out := &SafeBuffer{}
	logs := &SafeBuffer{}
	cfg.LogLevel = "debug"
	testApp := NewApp(out, logs, cfg, loader, tools...)

	t.Cleanup(func() {
		if os.Getenv("PANDOCDEPS_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	return testApp, out, logs
}

// FakePandoc writes a shell script into dir that stands in for pandoc. It
// answers --version, prints tree when asked for JSON, and otherwise
// concatenates its positional arguments into the -o file. Tests using it
// are skipped on Windows.
func FakePandoc(t *testing.T, dir, tree string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses shell scripts")
	}

	treePath := filepath.Join(dir, "tree.json")
	if err := os.WriteFile(treePath, []byte(tree), 0o644); err != nil {
		t.Fatal(err)
	}
	script := fmt.Sprintf(`#!/bin/sh
case "$*" in
  *--version*) printf 'pandoc 3.1.9\nUser data directory: /nonexistent/pandoc\n'; exit 0 ;;
  *"--to json"*) cat %q; exit 0 ;;
esac
out=""
srcs=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift ;;
    -*) ;;
    *) srcs="$srcs $1" ;;
  esac
  shift
done
cat $srcs > "$out"
`, treePath)

	path := filepath.Join(dir, "pandoc")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}
