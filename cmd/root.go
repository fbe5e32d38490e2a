package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/timvw/gdbdrive/internal/config"
	"github.com/timvw/gdbdrive/internal/transport"
)

var (
	// Global flags.
	flagConfig  string
	flagGDB     string
	flagGDBArgs []string
	flagPipe    bool
	flagTimeout string
	flagLogFile string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "gdbdrive",
	Short: "Script gdb over core dumps, then hand the session to you",
	Long: `gdbdrive drives gdb as a child process. It loads a binary and its core,
configures sysroot, shared library and source paths, and then either prints
what it found (threads, backtraces, a per-thread summary) or hands the
terminal over so you continue in gdb where the script left off.

Press Ctrl-] during a handoff to give control back to gdbdrive.

Configuration is loaded from .gdbdrive.yaml, ~/.config/gdbdrive/config.yaml
or --config, and GDBDRIVE_* environment variables.`,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .gdbdrive.yaml, then ~/.config/gdbdrive/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagGDB, "gdb", "", "gdb executable (default: gdb)")
	rootCmd.PersistentFlags().StringArrayVar(&flagGDBArgs, "gdb-arg", nil, "extra argument passed to gdb (repeatable)")
	rootCmd.PersistentFlags().BoolVar(&flagPipe, "pipe", false, "talk to gdb over pipes instead of a pty (faster, no handoff)")
	rootCmd.PersistentFlags().StringVar(&flagTimeout, "timeout", "", "per-command timeout, e.g. 30s; 0 waits forever")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "write everything gdb prints to this file")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log every gdb command to stderr")
}

// loadConfig loads the config file and environment, then applies flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("gdb") {
		cfg.GDB = flagGDB
	}
	if flags.Changed("gdb-arg") {
		cfg.GDBArgs = append(cfg.GDBArgs, flagGDBArgs...)
	}
	if flagPipe {
		cfg.Transport = transport.KindPipe
	}
	if flags.Changed("timeout") {
		if err := cfg.SetTimeout(flagTimeout); err != nil {
			return nil, err
		}
	}
	if flags.Changed("log-file") {
		cfg.LogFile = flagLogFile
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	if !flagVerbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
