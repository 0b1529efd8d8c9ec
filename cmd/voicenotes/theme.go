package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/voicenotes/pkg/core"
)

var themeCmd = &cobra.Command{
	Use:       "theme [light|dark|toggle]",
	Short:     "Show or change the theme preference",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"light", "dark", "toggle"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		prefs := app.Preferences
		switch {
		case len(args) == 0:
		case args[0] == "toggle":
			prefs.Toggle(ctx)
		default:
			if err := prefs.SetTheme(ctx, core.Theme(args[0])); err != nil {
				return err
			}
		}
		fmt.Println(prefs.Theme())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
}
