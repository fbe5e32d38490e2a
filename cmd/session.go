package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/gdbdrive/internal/config"
	"github.com/timvw/gdbdrive/internal/gdb"
	telem "github.com/timvw/gdbdrive/internal/otel"
	"github.com/timvw/gdbdrive/internal/transport"
)

// session is a gdb with a binary and core loaded and paths configured.
type session struct {
	cfg *config.Config
	gdb *gdb.Driver
	log *slog.Logger

	tel     *telem.Telemetry
	logFile *os.File
}

// openSession starts gdb and loads binary and, when non-empty, core.
func openSession(ctx context.Context, cmd *cobra.Command, binary, core string) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.ConfigFile != "" {
		fmt.Fprintf(os.Stderr, "config: loaded %s\n", cfg.ConfigFile)
	}

	s := &session{cfg: cfg, log: newLogger()}

	// Wire build version into OTEL service metadata
	telem.Version = Version

	// Initialize OTEL (no-op if no endpoint configured)
	s.tel, err = telem.Init(ctx, telem.OTELConfig{
		Endpoint:  cfg.OTELEndpoint,
		Headers:   cfg.OTELHeaders,
		GDB:       cfg.GDB,
		Transport: cfg.Transport,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: otel init failed: %v\n", err)
	}

	var topts []transport.Option
	if cfg.LogFile != "" {
		s.logFile, err = os.Create(cfg.LogFile)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("session log: %w", err)
		}
		topts = append(topts, transport.WithLog(s.logFile))
	}

	t, err := transport.Start(cfg.Transport, cfg.GDB, cfg.GDBArgs, topts...)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("starting %s: %w", cfg.GDB, err)
	}

	opts := []gdb.Option{
		gdb.WithPrompt(cfg.Prompt),
		gdb.WithTimeout(cfg.TimeoutDuration),
		gdb.WithDenylist(cfg.EffectiveDenylist()),
		gdb.WithHandoffMarker(cfg.HandoffMarker),
		gdb.WithLogger(s.log),
		gdb.WithOutput(os.Stdout),
	}
	if s.tel != nil {
		opts = append(opts, gdb.WithTelemetry(s.tel))
	}
	s.gdb, err = gdb.New(ctx, t, opts...)
	if err != nil {
		_ = t.Close()
		s.Close()
		return nil, err
	}

	if err := s.setup(ctx, binary, core); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) setup(ctx context.Context, binary, core string) error {
	if s.cfg.Sysroot != "" {
		if err := s.gdb.SetSysroot(ctx, s.cfg.Sysroot); err != nil {
			return err
		}
	}
	if len(s.cfg.SolibSearchPaths) > 0 {
		if err := s.gdb.SetSolibSearchPath(ctx, s.cfg.SolibSearchPaths); err != nil {
			return err
		}
	}

	reply, err := s.gdb.LoadBinary(ctx, binary)
	if err != nil {
		return err
	}
	s.log.Debug("binary loaded", "path", binary, "reply", reply)

	if core != "" {
		reply, err = s.gdb.LoadCore(ctx, core)
		if err != nil {
			return err
		}
		s.log.Debug("core loaded", "path", core, "reply", reply)
	}
	return nil
}

// sourceMapping applies the configured source substitution, if any.
func (s *session) sourceMapping(ctx context.Context) error {
	if s.cfg.SourceRoot == "" {
		return nil
	}
	return s.gdb.SetCurrentSourceDir(ctx, s.cfg.SourceRoot, s.cfg.SourceSuffix)
}

// Close stops gdb and flushes telemetry.
func (s *session) Close() {
	if s.gdb != nil {
		_ = s.gdb.Close()
	}
	if s.tel != nil {
		s.tel.Shutdown(context.Background())
	}
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}

// targetArgs splits "<binary> [core]".
func targetArgs(args []string) (binary, core string) {
	binary = args[0]
	if len(args) > 1 {
		core = args[1]
	}
	return binary, core
}
