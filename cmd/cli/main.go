package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/pandocdeps/internal/cli"
)

// main is the entrypoint for the pandocdeps application.
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	cancel()
	os.Exit(code)
}

// run encapsulates the main application logic for easier testing and error
// handling. It returns the process exit code.
func run(ctx context.Context, outW, errW io.Writer, args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(errW, "A critical error occurred: %v\n", r)
			code = cli.ExitFailure
		}
	}()

	err := cli.Execute(ctx, args, outW, errW)
	if err == nil {
		return 0
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(errW, exitErr.Message)
		return exitErr.Code
	}
	fmt.Fprintln(errW, err)
	return cli.ExitFailure
}
