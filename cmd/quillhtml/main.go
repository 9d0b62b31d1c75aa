package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], DefaultEnv())
	stop()
	os.Exit(code)
}

// run dispatches args to a command and returns the process exit code.
func run(ctx context.Context, args []string, env *Environment) int {
	configureMaxProcs(args, env)

	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	switch cmd := args[0]; cmd {
	case cmdHTML, cmdDelta, cmdMarkdown:
		err := runConvert(ctx, cmd, args[1:], env)
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(env.Stderr, "error: %v\n", err)
		}
		return exitCodeFor(err)
	case "doctor":
		return runDoctorCmd(args[1:], env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "quillhtml %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(args[1:], env)
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}

// configureMaxProcs sets GOMAXPROCS from the container CPU quota before
// the worker pool is sized. Its log line shows only with --verbose.
func configureMaxProcs(args []string, env *Environment) {
	logf := func(string, ...any) {}
	if slices.Contains(args, "-v") || slices.Contains(args, "--verbose") {
		logf = func(format string, a ...any) {
			fmt.Fprintf(env.Stderr, format+"\n", a...)
		}
	}
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	_, _ = maxprocs.Set(maxprocs.Logger(logf))
}
