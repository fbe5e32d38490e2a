package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/gdbdrive/internal/model"
	"github.com/timvw/gdbdrive/internal/stack"
)

var (
	flagBTThread int
	flagBTPrune  bool
)

var backtraceCmd = &cobra.Command{
	Use:     "backtrace <binary> [core]",
	Aliases: []string{"bt"},
	Short:   "Print a thread's backtrace",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		binary, core := targetArgs(args)
		s, err := openSession(ctx, cmd, binary, core)
		if err != nil {
			return err
		}
		defer s.Close()

		if flagBTThread > 0 {
			if err := s.gdb.SetThread(ctx, flagBTThread); err != nil {
				return err
			}
		}
		frames, err := s.gdb.Backtrace(ctx)
		if err != nil {
			return err
		}

		if flagBTPrune {
			c := stack.New(s.cfg.EffectiveDenylist())
			front := c.PruneFront(&frames)
			back := c.PruneBack(&frames)
			if front+back > 0 {
				fmt.Fprintf(os.Stderr, "pruned %d innermost and %d outermost frames\n", front, back)
			}
		}
		stack.PopulateSignatures(frames)
		printFrames(os.Stdout, frames)
		return nil
	},
}

func printFrames(w io.Writer, frames model.Stack) {
	for _, f := range frames {
		fmt.Fprintf(w, "#%-3d %s", f.Num, f.Signature)
		switch {
		case f.Filename != nil && f.Line != nil:
			fmt.Fprintf(w, " at %s:%d", *f.Filename, *f.Line)
		case f.Library != nil:
			fmt.Fprintf(w, " from %s", *f.Library)
		}
		fmt.Fprintln(w)
	}
}

func init() {
	backtraceCmd.Flags().IntVar(&flagBTThread, "thread", 0, "thread number to select first (default: gdb's current thread)")
	backtraceCmd.Flags().BoolVar(&flagBTPrune, "prune", false, "strip runtime frames from both ends")
	rootCmd.AddCommand(backtraceCmd)
}
