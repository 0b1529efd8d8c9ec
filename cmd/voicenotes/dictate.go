package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/voicenotes"
	"github.com/aretw0/voicenotes/pkg/dictation"
	"github.com/aretw0/voicenotes/pkg/dictation/adapters/lines"
)

// closeTimeout bounds the final save after an interrupt.
const closeTimeout = 10 * time.Second

var (
	dictateLang  string
	dictateStdin bool
)

var dictateCmd = &cobra.Command{
	Use:   "dictate <id>",
	Short: "Dictate into a note until interrupted",
	Long: `Starts continuous dictation into the note. Transcripts come from the
configured recognizer command, or from standard input with --stdin (one
segment per line, a blank line ends a capture run). Press Ctrl+C to stop;
the note is saved on exit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var extra []voicenotes.Option
		var stdin *lines.Provider
		if dictateStdin {
			stdin = lines.NewProvider(ctx, os.Stdin)
			extra = append(extra, voicenotes.WithProviders(stdin))
		}
		app, err := openApp(ctx, extra...)
		if err != nil {
			return err
		}
		defer app.Close()

		ed, err := app.OpenEditor(ctx, args[0])
		if err != nil {
			return err
		}
		// Runs on every exit path, including interrupts.
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
			defer cancel()
			if err := ed.Close(closeCtx); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
		}()

		session := app.NewSession(ctx, func(transcript string) {
			ed.Transcribe(transcript)
			if !quiet {
				fmt.Fprintf(os.Stderr, "\r%s", transcript)
			}
		}, dictation.WithMessageHandler(func(msg string) {
			fmt.Fprintln(os.Stderr, "\n"+msg)
		}))

		language := dictateLang
		if language == "" {
			if n, ok := app.Store.Get(args[0]); ok && n.Language != "" {
				language = n.Language
			}
		}
		if err := ed.Dictate(session, language); err != nil {
			return err
		}

		var exhausted <-chan struct{}
		if stdin != nil {
			exhausted = stdin.Exhausted()
		}
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				fmt.Fprintln(os.Stderr)
				return nil
			case <-exhausted:
				fmt.Fprintln(os.Stderr)
				return nil
			case <-ticker.C:
				if session.Status() == dictation.StateIdle {
					fmt.Fprintln(os.Stderr)
					return session.LastError()
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(dictateCmd)
	dictateCmd.Flags().StringVar(&dictateLang, "lang", "", "Dictation language (default: the note's language)")
	dictateCmd.Flags().BoolVar(&dictateStdin, "stdin", false, "Read transcript lines from standard input")
}
