package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var threadsCmd = &cobra.Command{
	Use:   "threads <binary> [core]",
	Short: "List threads",
	Long: `List the inferior's threads, one per line: gdb's thread number and the
kernel thread id, separated by a tab.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		binary, core := targetArgs(args)
		s, err := openSession(ctx, cmd, binary, core)
		if err != nil {
			return err
		}
		defer s.Close()

		for th, err := range s.gdb.Threads(ctx) {
			if err != nil {
				return fmt.Errorf("failed to list threads: %w", err)
			}
			fmt.Printf("%d\t%d\n", th.Num, th.TID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(threadsCmd)
}
