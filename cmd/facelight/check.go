package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/teslashibe/facelight/pkg/client"
)

var checkLocal bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one presence check and set brightness",
	Long: `Run one presence check. By default the check runs on the facelight
server; with --local it opens the camera in this process.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkLocal, "local", false, "run the check in-process instead of through the API")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if checkLocal {
		eng, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		res := eng.checker.Check(cmd.Context())
		if res.Failed() {
			return res.Err
		}
		printCheck(out, client.CheckResult{Faces: res.Faces, Brightness: res.Brightness}, res.ActuatorErr)
		return nil
	}

	c, err := client.New(cfg.APIURL, cfg.APITimeout)
	if err != nil {
		return err
	}
	res, err := c.Check(cmd.Context())
	if err != nil {
		return err
	}
	var actErr error
	if res.ActuatorError != "" {
		actErr = errors.New(res.ActuatorError)
	}
	printCheck(out, res, actErr)
	return nil
}
