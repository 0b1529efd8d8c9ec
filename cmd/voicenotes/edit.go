package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	editTitle   string
	editContent string
	editAppend  string
	editLang    string
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a note's title, content or language",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if !flags.Changed("title") && !flags.Changed("content") && !flags.Changed("append") && !flags.Changed("lang") {
			return errors.New("nothing to change: pass --title, --content, --append or --lang")
		}

		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		ed, err := app.OpenEditor(ctx, args[0])
		if err != nil {
			return err
		}
		var edits []error
		if flags.Changed("title") {
			edits = append(edits, ed.SetTitle(editTitle))
		}
		if flags.Changed("content") {
			edits = append(edits, ed.SetContent(editContent))
		}
		if flags.Changed("append") {
			edits = append(edits, ed.SetContent(joinLines(ed.Content(), editAppend)))
		}
		if flags.Changed("lang") {
			edits = append(edits, ed.SetLanguage(editLang))
		}
		if err := errors.Join(edits...); err != nil {
			_ = ed.Close(ctx)
			return err
		}
		return ed.Close(ctx)
	},
}

func joinLines(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n" + b
}

func init() {
	rootCmd.AddCommand(editCmd)
	editCmd.Flags().StringVar(&editTitle, "title", "", "New title")
	editCmd.Flags().StringVar(&editContent, "content", "", "Replace the content")
	editCmd.Flags().StringVar(&editAppend, "append", "", "Append a line to the content")
	editCmd.Flags().StringVar(&editLang, "lang", "", "Note language (BCP-47 tag)")
}
