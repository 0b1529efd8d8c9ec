package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print note changes, including those made by other processes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close()

		src, err := app.Events(ctx)
		if err != nil {
			return err
		}
		if err := src.Start(ctx); err != nil {
			return err
		}
		for e := range src.Events() {
			fmt.Printf("%s  %s\n", time.Now().Format(time.TimeOnly), e)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
