package main

import (
	"github.com/spf13/cobra"

	"github.com/teslashibe/facelight/pkg/client"
	"github.com/teslashibe/facelight/pkg/presence"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live readings from the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.New(cfg.APIURL, cfg.APITimeout)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return c.Watch(cmd.Context(), func(snap presence.Snapshot) {
			printLine(out, snap)
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
