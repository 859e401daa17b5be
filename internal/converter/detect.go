package converter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"regexp"
	"strings"
)

// Name is the executable searched for when no explicit path is configured.
const Name = "pandoc"

var (
	// ErrNotFound is returned when no pandoc executable can be located.
	ErrNotFound = errors.New("could not find pandoc")
	// ErrIncompatible is returned when the located executable does not
	// report itself as pandoc.
	ErrIncompatible = errors.New("pandoc executable is not usable")
)

// Info is what `pandoc --version` reports.
type Info struct {
	Path    string `json:"path" yaml:"path"`
	Version string `json:"version" yaml:"version"`
	// DataDir is the user data directory; it may not exist.
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// Detect returns explicit when it is set, otherwise whatever whereIs finds
// for Name. whereIs follows exec.LookPath and may be nil.
func Detect(explicit string, whereIs func(string) (string, error)) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if whereIs == nil {
		whereIs = exec.LookPath
	}
	path, err := whereIs(Name)
	if err != nil || path == "" {
		return "", ErrNotFound
	}
	return path, nil
}

var (
	versionLine = regexp.MustCompile(`^pandoc(?:\.exe)?\s+(\S+)`)
	dataDirLine = regexp.MustCompile(`^\s*(?:Default )?[Uu]ser data directory:\s*(.*)$`)
)

// Probe runs `path --version` and parses its output.
func Probe(ctx context.Context, path string) (*Info, error) {
	cmd := exec.CommandContext(ctx, path, "--version")
	out, err := cmd.Output()
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
		}
		return nil, fmt.Errorf("%w: %s --version: %v", ErrIncompatible, path, err)
	}

	info, err := ParseVersion(out)
	if err != nil {
		return nil, err
	}
	info.Path = path
	return info, nil
}

// ParseVersion parses the output of `pandoc --version`. When the data
// directory line lists alternatives the first one is used.
func ParseVersion(out []byte) (*Info, error) {
	info := &Info{}
	sc := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if first {
			first = false
			m := versionLine.FindStringSubmatch(line)
			if m == nil {
				return nil, fmt.Errorf("%w: unexpected version line %q", ErrIncompatible, line)
			}
			info.Version = m[1]
			continue
		}
		if m := dataDirLine.FindStringSubmatch(line); m != nil && info.DataDir == "" {
			dir, _, _ := strings.Cut(m[1], " or ")
			info.DataDir = strings.TrimSpace(dir)
		}
	}
	if first {
		return nil, fmt.Errorf("%w: empty version output", ErrIncompatible)
	}
	return info, nil
}
