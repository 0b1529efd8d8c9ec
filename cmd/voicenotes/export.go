package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/voicenotes"
	"github.com/aretw0/voicenotes/pkg/core"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a note to a .txt file named after its title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var extra []voicenotes.Option
		if exportOut != "" {
			extra = append(extra, voicenotes.WithExportDir(exportOut))
		}
		app, err := openApp(ctx, extra...)
		if err != nil {
			return err
		}
		defer app.Close()

		n, ok := app.Store.Get(args[0])
		if !ok {
			return fmt.Errorf("export %q: %w", args[0], core.ErrNotFound)
		}
		a, err := app.Store.ExportNote(ctx, n)
		if err != nil {
			return err
		}
		fmt.Println(app.Sink.PathFor(a))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Export directory (default: exports in the data directory)")
}
