// Package editor implements the user-facing actions of the decoder on top of
// the session store and the toast queue. It holds no UI code; the TUI and the
// CLI both drive it.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/five82/flowdecoder/internal/codec"
	"github.com/five82/flowdecoder/internal/session"
	"github.com/five82/flowdecoder/internal/toast"
)

// User-facing messages.
const (
	msgEmptyInput  = "Nothing to decode: the input is empty"
	msgEmptyCopy   = "Nothing to copy"
	msgCopied      = "Copied to clipboard"
	msgCopyFailed  = "Copy failed"
	msgReset       = "State reset"
	msgSaveFailed  = "Could not save state"
	msgLoadFailed  = "Could not restore the previous session"
	msgClearFailed = "Could not clear saved state"
	msgNoResult    = "No decoded result to show"
)

// Options configure an Editor.
type Options struct {
	Codec     codec.Options
	Clipboard Clipboard
	Logger    *slog.Logger
}

// Editor owns the session manager and toast queue for one running instance.
type Editor struct {
	store     *session.Manager
	toasts    *toast.Queue
	clipboard Clipboard
	codec     codec.Options
	logger    *slog.Logger
}

// View is what the UI should display for the current state.
type View struct {
	// Text is the textarea content (raw input, or the result in result mode).
	Text string
	// ShowResult selects the formatted result view.
	ShowResult bool
	// HasResult reports whether a result can be toggled back into view.
	HasResult bool
}

// New returns an Editor. store and toasts are required.
func New(store *session.Manager, toasts *toast.Queue, opts Options) (*Editor, error) {
	if store == nil {
		return nil, errors.New("editor requires a session manager")
	}
	if toasts == nil {
		return nil, errors.New("editor requires a toast queue")
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = SystemClipboard{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{
		store:     store,
		toasts:    toasts,
		clipboard: clip,
		codec:     opts.Codec,
		logger:    logger.With("component", "editor"),
	}, nil
}

// Store returns the session manager.
func (e *Editor) Store() *session.Manager { return e.store }

// Toasts returns the toast queue.
func (e *Editor) Toasts() *toast.Queue { return e.toasts }

// Restore loads the persisted state. A load failure is reported once and the
// editor continues with the empty state. Outside result mode the restored
// text is the original input, falling back to the current text.
func (e *Editor) Restore(ctx context.Context) View {
	st, err := e.store.Load(ctx)
	if err != nil {
		e.toasts.Error(msgLoadFailed)
	}
	v := viewOf(st)
	if !st.IsDecoded && st.OriginalInput != "" {
		v.Text = st.OriginalInput
	}
	return v
}

// View derives the display from the current state.
func (e *Editor) View() View {
	return viewOf(e.store.Get())
}

func viewOf(st session.State) View {
	return View{
		Text:       st.CurrentText,
		ShowResult: st.HasResult && st.IsDecoded,
		HasResult:  st.HasResult,
	}
}

// Input records an edit of the input text. The write is debounced.
func (e *Editor) Input(text string) {
	if e.store.Get().IsDecoded {
		e.store.UpdateDebounced(session.Partial{CurrentText: session.Text(text)})
		return
	}
	e.store.UpdateDebounced(session.Partial{
		CurrentText:   session.Text(text),
		OriginalInput: session.Text(text),
	})
}

// Decode percent-decodes and formats text. Every failure produces exactly one
// toast. On a JSON error the decoded text replaces the input so the user can
// fix it.
func (e *Editor) Decode(ctx context.Context, text string) (codec.Result, error) {
	if strings.TrimSpace(text) == "" {
		e.toasts.Warning(msgEmptyInput)
		return codec.Result{Input: text}, nil
	}

	res, err := codec.Decode(text, e.codec)
	switch codec.Classify(err) {
	case codec.KindUnknown:
		if err != nil {
			e.toasts.Error(codec.Message(err))
			return res, err
		}
		e.save(ctx, session.Partial{
			OriginalInput: session.Text(text),
			CurrentText:   session.Text(res.Formatted),
			IsDecoded:     session.Flag(true),
			HasResult:     session.Flag(true),
		})
		return res, nil

	case codec.KindPercentEncoding:
		e.logger.Debug("percent decoding failed", "error", err)
		e.toasts.Error(codec.Message(err))
		return res, err

	default:
		e.logger.Debug("json parse failed", "error", err)
		e.toasts.Error(codec.Message(err))
		e.save(ctx, session.Partial{
			OriginalInput: session.Text(text),
			CurrentText:   session.Text(res.Decoded),
			IsDecoded:     session.Flag(false),
			HasResult:     session.Flag(false),
		})
		return res, err
	}
}

// Copy writes the visible text to the clipboard.
func (e *Editor) Copy() error {
	text := strings.TrimSpace(e.View().Text)
	if text == "" {
		e.toasts.Warning(msgEmptyCopy)
		return nil
	}
	if err := e.clipboard.WriteAll(text); err != nil {
		e.logger.Warn("clipboard write failed", "error", err)
		e.toasts.Error(msgCopyFailed, toast.WithAction("Retry", func() { _ = e.Copy() }, false))
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	e.toasts.Success(msgCopied)
	return nil
}

// Reset clears memory and durable state.
func (e *Editor) Reset(ctx context.Context) error {
	if err := e.store.Clear(ctx); err != nil {
		e.toasts.Error(msgClearFailed)
		return err
	}
	e.toasts.Info(msgReset)
	return nil
}

// ShowInput switches from the result back to the raw input.
func (e *Editor) ShowInput(ctx context.Context) {
	st := e.store.Get()
	if !st.IsDecoded {
		return
	}
	e.save(ctx, session.Partial{
		CurrentText: session.Text(st.OriginalInput),
		IsDecoded:   session.Flag(false),
	})
}

// ShowResult switches to the formatted result. The result is re-derived from
// the original input, since CurrentText holds the input while it is shown.
func (e *Editor) ShowResult(ctx context.Context) {
	st := e.store.Get()
	if st.IsDecoded {
		return
	}
	if !st.HasResult {
		e.toasts.Info(msgNoResult)
		return
	}
	res, err := codec.Decode(st.OriginalInput, e.codec)
	if err != nil {
		// The input was edited after the last decode.
		e.toasts.Warning(msgNoResult)
		return
	}
	e.save(ctx, session.Partial{
		CurrentText: session.Text(res.Formatted),
		IsDecoded:   session.Flag(true),
	})
}

// Toggle flips between input and result.
func (e *Editor) Toggle(ctx context.Context) {
	if e.store.Get().IsDecoded {
		e.ShowInput(ctx)
		return
	}
	e.ShowResult(ctx)
}

// Flush persists a pending debounced edit, typically before exit.
func (e *Editor) Flush(ctx context.Context) error {
	return e.store.Flush(ctx)
}

func (e *Editor) save(ctx context.Context, p session.Partial) {
	if err := e.store.Update(ctx, p); err != nil {
		e.toasts.Error(msgSaveFailed)
	}
}
