package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teslashibe/facelight/pkg/client"
)

var monitorCmd = &cobra.Command{
	Use:       "monitor on|off",
	Short:     "Start or stop background monitoring on the server",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := parseOnOff(args[0])
		if err != nil {
			return err
		}

		c, err := client.New(cfg.APIURL, cfg.APITimeout)
		if err != nil {
			return err
		}
		snap, err := c.SetMonitoring(cmd.Context(), enabled)
		if err != nil {
			return err
		}
		printSnapshot(cmd.OutOrStdout(), snap)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}
