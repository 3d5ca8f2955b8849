package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/flowdecoder/internal/app"
	"github.com/five82/flowdecoder/internal/codec"
	"github.com/five82/flowdecoder/internal/config"
	"github.com/five82/flowdecoder/internal/editor"
)

// Output formats.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// DecodeOptions holds options for the decode command.
type DecodeOptions struct {
	Output  string
	Copy    bool
	Save    bool
	Lenient bool
}

// clipboard is swapped out in tests.
var clipboard editor.Clipboard = editor.SystemClipboard{}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(global *GlobalOptions) *cobra.Command {
	opts := &DecodeOptions{}

	cmd := &cobra.Command{
		Use:   "decode [INPUT]",
		Short: "Percent-decode and pretty-print JSON",
		Long: "Decode percent-encoded JSON given as an argument or on stdin and print it\n" +
			"indented. With --save the result becomes the current editor session.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return runDecode(cmd, global, opts, input)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", formatJSON, "Output format: json or yaml")
	cmd.Flags().BoolVar(&opts.Copy, "copy", false, "Copy the formatted result to the clipboard")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Store the result in the editor session")
	cmd.Flags().BoolVar(&opts.Lenient, "lenient", false, "Accept raw characters that percent-encoding forbids")

	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func runDecode(cmd *cobra.Command, global *GlobalOptions, opts *DecodeOptions, input string) error {
	if opts.Output != formatJSON && opts.Output != formatYAML {
		return fmt.Errorf("unknown output format %q (want json or yaml)", opts.Output)
	}
	if strings.TrimSpace(input) == "" {
		return errors.New("nothing to decode: the input is empty")
	}

	var (
		res codec.Result
		err error
	)
	if opts.Save {
		res, err = decodeAndSave(cmd, global, opts, input)
	} else {
		res, err = decodeOnly(global, opts, input)
	}
	if err != nil {
		if codec.Classify(err) != codec.KindUnknown {
			return errors.New(codec.Message(err))
		}
		return err
	}

	out := res.Formatted
	if opts.Output == formatYAML {
		if out, err = codec.ToYAML(res.Formatted); err != nil {
			return err
		}
		out = strings.TrimRight(out, "\n")
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)

	if opts.Copy {
		if err := clipboard.WriteAll(out); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
	}
	return nil
}

// decodeOnly runs the codec with the configured indent and strictness without
// touching the session.
func decodeOnly(global *GlobalOptions, opts *DecodeOptions, input string) (codec.Result, error) {
	cfg, err := config.Load(global.ConfigPath)
	if err != nil {
		return codec.Result{}, fmt.Errorf("load config: %w", err)
	}
	return codec.Decode(input, codec.Options{
		Indent:  cfg.Editor.Indent,
		Lenient: opts.Lenient || !cfg.Editor.Strict,
	})
}

func decodeAndSave(cmd *cobra.Command, global *GlobalOptions, opts *DecodeOptions, input string) (res codec.Result, err error) {
	appOpts := global.appOptions()
	appOpts.Lenient = opts.Lenient
	a, err := app.Open(cmd.Context(), appOpts)
	if err != nil {
		return codec.Result{}, err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := a.Editor.Store().Load(cmd.Context()); err != nil {
		a.Logger.Warn("load session before save failed", "error", err)
	}
	return a.Editor.Decode(cmd.Context(), input)
}
