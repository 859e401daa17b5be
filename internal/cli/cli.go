package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/specialistvlad/pandocdeps/internal/app"
	"github.com/specialistvlad/pandocdeps/internal/hcl"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// EnvPrefix prefixes the environment variables that set flags, e.g.
// PANDOCDEPS_LOG_LEVEL for --log-level.
const EnvPrefix = "PANDOCDEPS"

// Exit codes.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

// Execute runs the command line in args. Reports are written to outW, logs
// and help for errors to errW. A non-nil error is always an *ExitError.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	if strings.HasPrefix(err.Error(), "unknown command") {
		return usageError(err)
	}
	return &ExitError{Code: ExitFailure, Message: err.Error()}
}

// NewRootCommand builds the command tree. Every flag can also be set through
// the environment or a settings file.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "pandocdeps",
		Short: "Pandoc builds with implicit dependency scanning",
		Long: `pandocdeps builds documents with pandoc and reports the files each
document depends on: files named by command-line flags, images referenced by
the document and bibliographies named in its metadata.

Documents are declared in HCL build files:

  pandoc {
    flags = ["--standalone"]
  }

  document "out/book.html" {
    sources = glob("chapters/*.md")
    flags   = ["--bibliography", "refs.bib"]
  }`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return readSettings(v)
		},
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := root.PersistentFlags()
	flags.String("config", "", "settings file providing defaults for these flags (yaml, json or toml)")
	flags.StringSliceP("file", "f", []string{"."}, "build file or directory of build files")
	flags.String("pandoc", "", "pandoc executable, overriding the build files and PATH")
	flags.String("log-level", "info", "logging level: debug, info, warn or error")
	flags.String("log-format", "text", "log format: text or json")
	flags.StringP("output", "o", string(app.OutputYAML), "report format: yaml or json")
	flags.Int("workers", app.DefaultWorkerCount, "number of documents processed concurrently")
	flags.Int("healthcheck-port", 0, "port of the watch health endpoint; 0 disables it")
	flags.Duration("debounce", app.DefaultDebounce, "quiet period before watch rebuilds")
	bindFlags(v, flags)

	newApp := func() (*app.App, error) {
		cfg, err := newConfig(v)
		if err != nil {
			return nil, usageError(err)
		}
		return app.NewApp(outW, errW, cfg, hcl.NewLoader()), nil
	}

	root.AddCommand(
		newScanCommand(newApp),
		newBuildCommand(newApp),
		newWatchCommand(newApp),
		newCheckCommand(newApp),
		newVersionCommand(outW),
	)
	return root
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	flags.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

// readSettings loads the --config file, if any.
func readSettings(v *viper.Viper) error {
	path := v.GetString("config")
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return usageError(fmt.Errorf("error reading settings file: %w", err))
	}
	return nil
}

func newConfig(v *viper.Viper) (*app.Config, error) {
	return app.NewConfig(app.Config{
		BuildPaths:      v.GetStringSlice("file"),
		Pandoc:          v.GetString("pandoc"),
		LogLevel:        strings.ToLower(v.GetString("log-level")),
		LogFormat:       strings.ToLower(v.GetString("log-format")),
		OutputFormat:    strings.ToLower(v.GetString("output")),
		WorkerCount:     v.GetInt("workers"),
		HealthcheckPort: v.GetInt("healthcheck-port"),
		Debounce:        v.GetDuration("debounce"),
	})
}

// noArgs is cobra.NoArgs reported as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError(err)
	}
	return nil
}

type appFactory func() (*app.App, error)

func newScanCommand(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [TARGET...]",
		Short: "Report the dependencies of documents without building them",
		Long: `Scan runs each document through pandoc's reader and filters and reports
the files it depends on. Without arguments every document is scanned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			reports, err := a.Scan(cmd.Context(), args...)
			if err != nil {
				return err
			}
			return a.Output(reports)
		},
	}
}

func newBuildCommand(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "build [TARGET...]",
		Short: "Build documents",
		Long: `Build scans each document and runs pandoc once all of its inputs exist.
Every document is attempted; the command fails if any of them failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			outcomes, buildErr := a.Build(cmd.Context(), args...)
			if outcomes != nil {
				if err := a.Output(outcomes); err != nil {
					return err
				}
			}
			return buildErr
		},
	}
}

func newWatchCommand(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Build documents and rebuild them when their inputs change",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.Watch(cmd.Context())
		},
	}
}

func newCheckCommand(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that pandoc can be found and run",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			report, checkErr := a.Check(cmd.Context())
			if report != nil {
				if err := a.Output(report); err != nil {
					return err
				}
			}
			return checkErr
		},
	}
}

func newVersionCommand(outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  noArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(outW, "pandocdeps %s\n", Version)
			fmt.Fprintf(outW, "  Go: %s\n", runtime.Version())
		},
	}
}
