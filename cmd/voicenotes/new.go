package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	newContent  string
	newLanguage string
)

var newCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create a note and print its id",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		n := app.CreateNote(ctx, strings.Join(args, " "), newContent, newLanguage)
		fmt.Println(n.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVar(&newContent, "content", "", "Initial content")
	newCmd.Flags().StringVar(&newLanguage, "lang", "", "Note language (BCP-47 tag)")
}
