// Package main is the entry point for the histsync application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/histsync/internal/config"
	"github.com/joe/histsync/internal/logging"
	"github.com/joe/histsync/internal/syncengine"
	"github.com/joe/histsync/internal/tui"
	"github.com/joe/histsync/pkg/formatters"
)

// Exit codes.
const (
	exitOK           = 0
	exitNotStarted   = 1
	exitFileFailures = 2
	exitCancelled    = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitNotStarted
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings := config.NewSettingsStore(cfg.SettingsFile)

	var console io.Writer = os.Stderr
	if cfg.InteractiveMode {
		// The terminal belongs to the UI.
		console = nil
	}

	logger, closer, err := logging.New(logging.Options{
		File:    cfg.LogFile,
		Console: console,
		Verbose: cfg.Verbose,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitNotStarted
	}
	defer closer.Close()

	if cfg.InteractiveMode {
		result, err := tui.Run(cfg, tui.Options{Context: ctx, Settings: settings, Logger: logger}, isTerminal(os.Stdout))
		return exitCode(result, err)
	}

	if err := settings.Save(cfg.Settings()); err != nil {
		logger.Warn("Could not save settings", "path", settings.Path(), "error", err)
	}

	result, err := runHeadless(ctx, cfg, logger)
	if result != nil {
		printSummary(os.Stdout, result)
	}

	if err != nil && !errors.Is(err, syncengine.ErrRunCancelled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	return exitCode(result, err)
}

func runHeadless(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*syncengine.Result, error) {
	engine, err := syncengine.NewEngineFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	engine.Logger = logger

	return engine.Run(ctx)
}

func exitCode(result *syncengine.Result, err error) int {
	switch {
	case errors.Is(err, syncengine.ErrRunCancelled):
		return exitCancelled
	case err != nil:
		return exitNotStarted
	case result != nil && result.HasFailures():
		return exitFileFailures
	default:
		return exitOK
	}
}

func printSummary(w io.Writer, result *syncengine.Result) {
	fmt.Fprintf(w, "%s (%s in %s)\n",
		result.Summary(),
		formatters.FormatBytes(result.BytesCopied),
		formatters.FormatDuration(result.Duration),
	)

	for _, fileErr := range result.Errors {
		fmt.Fprintf(w, "  failed: %s: %v\n", fileErr.RelPath, fileErr.Err)
	}

	if result.DirectoriesFailed > 0 {
		fmt.Fprintf(w, "  %d folder(s) could not be mirrored, see the log\n", result.DirectoriesFailed)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
