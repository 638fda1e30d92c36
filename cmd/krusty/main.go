package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/diillson/krusty/logging"
	"github.com/diillson/krusty/shell"
	"github.com/diillson/krusty/version"
	"go.uber.org/zap"
)

func main() {
	opts, err := Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		PrintUsage()
		os.Exit(2)
	}

	if opts.Version {
		info := version.GetCurrentVersion()
		fmt.Println(version.FormatVersionInfo(info, true))
		return
	}

	logger, err := logging.New("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "krusty: could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	sessionID := logging.NewSessionID()
	sessionLogger := logging.WithSession(logger, sessionID)
	if opts.Verbose {
		version.PrintStartupVersionInfo()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handleGracefulShutdown(cancel, sessionLogger)

	sh, err := shell.New(shell.Options{
		Logger:        sessionLogger,
		ConfigPath:    opts.ConfigPath,
		Verbose:       opts.Verbose,
		MetricsAddr:   opts.MetricsAddr,
		SyntaxColor:   opts.Highlight,
		NoInteractive: opts.Exec,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "krusty: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = sh.Close() }()

	if opts.Exec {
		os.Exit(sh.RunOnce(ctx, opts.ExecLine))
	}

	os.Exit(sh.RunInteractive(ctx))
}

// handleGracefulShutdown cancels ctx on SIGINT/SIGTERM so any
// in-flight external command's watchdog sees cancellation.
func handleGracefulShutdown(cancelFunc context.CancelFunc, logger *zap.Logger) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancelFunc()
	}()
}
