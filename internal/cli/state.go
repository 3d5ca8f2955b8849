package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/five82/flowdecoder/internal/app"
	"github.com/five82/flowdecoder/internal/session"
)

// sessionView is the printable form of the persisted state.
type sessionView struct {
	CurrentText   string `json:"currentText" yaml:"currentText"`
	OriginalInput string `json:"originalInput" yaml:"originalInput"`
	IsDecoded     bool   `json:"isDecoded" yaml:"isDecoded"`
	HasResult     bool   `json:"hasResult" yaml:"hasResult"`
}

func viewOf(st session.State) sessionView {
	return sessionView{
		CurrentText:   st.CurrentText,
		OriginalInput: st.OriginalInput,
		IsDecoded:     st.IsDecoded,
		HasResult:     st.HasResult,
	}
}

// NewStateCommand creates the state command.
func NewStateCommand(global *GlobalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the persisted editor session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if output != formatJSON && output != formatYAML {
				return fmt.Errorf("unknown output format %q (want json or yaml)", output)
			}
			a, err := app.Open(cmd.Context(), global.appOptions())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			st, err := a.Editor.Store().Load(cmd.Context())
			if err != nil {
				return err
			}
			return printState(cmd, viewOf(st), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatJSON, "Output format: json or yaml")
	return cmd
}

func printState(cmd *cobra.Command, v sessionView, output string) error {
	out := cmd.OutOrStdout()
	if output == formatYAML {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode state: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}

// NewResetCommand creates the reset command.
func NewResetCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the persisted editor session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			a, err := app.Open(cmd.Context(), global.appOptions())
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			if err := a.Editor.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "State reset")
			return nil
		},
	}
}
