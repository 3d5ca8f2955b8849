package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/flowdecoder/internal/config"
	"github.com/five82/flowdecoder/internal/logtail"
)

const defaultLogLines = 50

// NewLogsCommand creates the logs command.
func NewLogsCommand(global *GlobalOptions) *cobra.Command {
	var (
		lines int
		raw   bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the tail of the flowdecoder log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(global.ConfigPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			tail, err := logtail.Read(cfg.Log.Path, lines)
			if err != nil {
				return err
			}
			if !raw {
				tail = logtail.FormatLines(tail)
			}
			for _, line := range tail {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", defaultLogLines, "Number of lines to show (0 for all)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON records unchanged")
	return cmd
}
