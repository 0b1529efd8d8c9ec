package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/voicenotes"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()
		return printNotes(app.Store.Notes(), listJSON)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find notes whose title or content contains the query (case-insensitive)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()
		return printNotes(app.Store.SearchNotes(args[0]), listJSON)
	},
}

func printNotes(notes []voicenotes.Note, asJSON bool) error {
	if asJSON {
		if notes == nil {
			notes = []voicenotes.Note{}
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(notes)
	}
	for _, n := range notes {
		fmt.Printf("%s  %s  %s\n", n.ID, n.UpdatedAt.Local().Format(time.DateTime), n.Title)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	searchCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
