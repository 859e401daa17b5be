package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/specialistvlad/pandocdeps/internal/cmdline"
)

// Stage is one process of a pipeline. Args[0] is the program.
type Stage struct {
	Args []string
}

func (s Stage) String() string {
	return shellquote.Join(s.Args...)
}

// Pipeline is a chain of processes, each reading the previous one's output.
type Pipeline struct {
	Stages []Stage
	// Dir is the working directory of every stage.
	Dir string
}

// String renders the pipeline the way a shell would read it.
func (p *Pipeline) String() string {
	parts := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		parts[i] = s.String()
	}
	return strings.Join(parts, " | ")
}

// StageError reports a stage that could not be started or exited with an
// error.
type StageError struct {
	Index  int
	Stage  Stage
	Stderr string
	Err    error
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("stage %d (%s): %v", e.Index, e.Stage, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *StageError) Unwrap() error { return e.Err }

// Run starts every stage, connects them with OS pipes and returns the
// output of the last stage once all of them have exited.
func (p *Pipeline) Run(ctx context.Context) ([]byte, error) {
	if len(p.Stages) == 0 {
		return nil, errors.New("pipeline has no stages")
	}

	cmds := make([]*exec.Cmd, len(p.Stages))
	stderrs := make([]bytes.Buffer, len(p.Stages))
	for i, s := range p.Stages {
		if len(s.Args) == 0 {
			return nil, fmt.Errorf("stage %d has no program", i)
		}
		cmd := exec.CommandContext(ctx, s.Args[0], s.Args[1:]...)
		cmd.Dir = p.Dir
		cmd.Stderr = &stderrs[i]
		cmds[i] = cmd
	}

	// The parent's copies of the pipe ends are closed once every stage has
	// been started, so each reader sees EOF when its writer exits.
	var ends []*os.File
	closeEnds := func() {
		for _, f := range ends {
			_ = f.Close()
		}
		ends = nil
	}
	for i := 0; i < len(cmds)-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			closeEnds()
			return nil, fmt.Errorf("failed to create pipe: %w", err)
		}
		ends = append(ends, r, w)
		cmds[i].Stdout = w
		cmds[i+1].Stdin = r
	}
	var stdout bytes.Buffer
	cmds[len(cmds)-1].Stdout = &stdout

	var errs []error
	started := 0
	for i, cmd := range cmds {
		if err := cmd.Start(); err != nil {
			errs = append(errs, &StageError{Index: i, Stage: p.Stages[i], Err: err})
			break
		}
		started++
	}
	closeEnds()

	for i := 0; i < started; i++ {
		if err := cmds[i].Wait(); err != nil {
			errs = append(errs, &StageError{
				Index:  i,
				Stage:  p.Stages[i],
				Stderr: strings.TrimSpace(stderrs[i].String()),
				Err:    err,
			})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return stdout.Bytes(), nil
}

// JSONRequest describes a pipeline that writes a document as a JSON tree.
type JSONRequest struct {
	// Pandoc is the converter executable.
	Pandoc string
	// Plan is the build command line split around its filters.
	Plan cmdline.Plan
	// Sources are the input documents, relative to Dir.
	Sources []string
	// Format is the output format filters are told about.
	Format string
	// DataDir is the --data-dir of the command line, passed to every
	// pandoc stage.
	DataDir string
	// FilterDataDir is where filters are looked up when not found as given.
	FilterDataDir string
	Dir           string
}

// JSONPipeline turns a split command line into stages. Without JSON filters
// it is a single pandoc process; otherwise pandoc stages alternate with the
// filters in command-line order and exchange the tree as JSON.
func JSONPipeline(req JSONRequest) *Pipeline {
	pl := &Pipeline{Dir: req.Dir}
	dataDir := func(args []string) []string {
		if req.DataDir == "" {
			return args
		}
		return append(args, "--data-dir="+req.DataDir)
	}

	for i, seg := range req.Plan.Segments {
		switch {
		case i == 0:
			args := []string{req.Pandoc}
			args = append(args, req.Plan.From...)
			args = append(args, seg.Args...)
			args = dataDir(args)
			args = append(args, "--to", "json")
			args = append(args, req.Sources...)
			pl.Stages = append(pl.Stages, Stage{Args: args})
		case len(seg.Args) > 0:
			args := dataDir([]string{req.Pandoc, "--from", "json", "--to", "json"})
			args = append(args, seg.Args...)
			pl.Stages = append(pl.Stages, Stage{Args: args})
		}

		if seg.Filter != "" {
			args := FindFilter(seg.Filter, req.FilterDataDir, req.Dir)
			args = append(args, req.Format)
			pl.Stages = append(pl.Stages, Stage{Args: args})
		}
	}

	if len(pl.Stages) == 0 {
		args := dataDir([]string{req.Pandoc})
		args = append(args, "--to", "json")
		args = append(args, req.Sources...)
		pl.Stages = append(pl.Stages, Stage{Args: args})
	}
	return pl
}
