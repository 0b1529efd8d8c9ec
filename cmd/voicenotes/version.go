package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/voicenotes"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of voicenotes",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("voicenotes version %s\n", strings.TrimSpace(voicenotes.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
