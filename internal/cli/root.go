// Package cli defines the flowdecoder command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/five82/flowdecoder/internal/app"
)

// GlobalOptions are shared by every command.
type GlobalOptions struct {
	ConfigPath string
	PrefsPath  string
	Backend    string
}

func (g *GlobalOptions) appOptions() app.Options {
	return app.Options{
		ConfigPath: g.ConfigPath,
		PrefsPath:  g.PrefsPath,
		Backend:    g.Backend,
	}
}

// NewRootCommand creates the root command. Without a subcommand it starts the TUI.
func NewRootCommand(version string) *cobra.Command {
	global := &GlobalOptions{}

	cmd := &cobra.Command{
		Use:   "flowdecoder",
		Short: "Decode percent-encoded JSON",
		Long: "flowdecoder percent-decodes text and pretty-prints the JSON inside it.\n" +
			"The editor state survives restarts for the length of the login session.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), global.appOptions())
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&global.ConfigPath, "config", "", "config file (default ~/.config/flowdecoder/config.toml)")
	flags.StringVar(&global.PrefsPath, "prefs", "", "preferences file (default ~/.config/flowdecoder/prefs.toml)")
	flags.StringVar(&global.Backend, "store", "", "session backend: sqlite, redis or memory")

	cmd.AddCommand(NewDecodeCommand(global))
	cmd.AddCommand(NewStateCommand(global))
	cmd.AddCommand(NewResetCommand(global))
	cmd.AddCommand(NewLogsCommand(global))

	return cmd
}
