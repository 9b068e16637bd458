package main

import (
	"github.com/spf13/cobra"

	"github.com/teslashibe/facelight/pkg/client"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the server's latest reading",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client.New(cfg.APIURL, cfg.APITimeout)
		if err != nil {
			return err
		}
		snap, err := c.Status(cmd.Context())
		if err != nil {
			return err
		}
		printSnapshot(cmd.OutOrStdout(), snap)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
