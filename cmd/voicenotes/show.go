package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/voicenotes/pkg/core"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a note as plain text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		n, ok := app.Store.Get(args[0])
		if !ok {
			return fmt.Errorf("show %q: %w", args[0], core.ErrNotFound)
		}
		fmt.Println(core.ExportPayload(n))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
