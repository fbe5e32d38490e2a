package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/gdbdrive/internal/model"
)

var (
	flagInspectEachThread bool
	flagInspectMain       bool
	flagInspectSummary    bool
	flagInspectSourceRoot string
	flagInspectSuffix     string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <binary> [core]",
	Short: "Prepare a gdb session and hand it over",
	Long: `Load the binary and core, note the thread and frame gdb starts on, find
main() on the main thread and map the compiled source tree onto
--source-root. Then hand the terminal over, at the starting location or at
main() with --main. With --each-thread you get one handoff per thread.

Press Ctrl-] to leave a handoff.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		binary, core := targetArgs(args)
		s, err := openSession(ctx, cmd, binary, core)
		if err != nil {
			return err
		}
		defer s.Close()

		if cmd.Flags().Changed("source-root") {
			s.cfg.SourceRoot = flagInspectSourceRoot
		}
		if cmd.Flags().Changed("source-suffix") {
			s.cfg.SourceSuffix = flagInspectSuffix
		}

		start, err := s.gdb.Location(ctx)
		if err != nil {
			return fmt.Errorf("reading start location: %w", err)
		}

		mainLoc, err := s.gdb.SetLocationMain(ctx)
		if err != nil {
			return err
		}
		if err := s.sourceMapping(ctx); err != nil {
			return err
		}

		if flagInspectSummary {
			if err := s.gdb.PrintThreadsSummary(ctx, os.Stdout, nil); err != nil {
				return err
			}
		}

		if flagInspectEachThread {
			return s.gdb.InteractEachThread(ctx, nil)
		}

		loc := start
		if flagInspectMain {
			loc = mainLoc
		}
		return handoff(cmd, s, &loc)
	},
}

// handoff interacts at loc and reports how the handoff ended on stderr.
func handoff(cmd *cobra.Command, s *session, loc *model.Location) error {
	outcome, err := s.gdb.Interact(cmd.Context(), loc)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "handoff: %s\n", outcome.Result)
	return nil
}

func init() {
	inspectCmd.Flags().BoolVar(&flagInspectEachThread, "each-thread", false, "hand over once per thread, last listed first")
	inspectCmd.Flags().BoolVar(&flagInspectMain, "main", false, "start at main() instead of where gdb stopped")
	inspectCmd.Flags().BoolVar(&flagInspectSummary, "summary", false, "print the thread summary before handing over")
	inspectCmd.Flags().StringVar(&flagInspectSourceRoot, "source-root", "", "directory holding the sources today")
	inspectCmd.Flags().StringVar(&flagInspectSuffix, "source-suffix", "", "trailing part of the compilation directory that also exists under --source-root")
	rootCmd.AddCommand(inspectCmd)
}
