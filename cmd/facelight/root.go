package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/facelight/internal/config"
	"github.com/teslashibe/facelight/internal/log"
)

// Version is the application version.
const Version = "0.1.0"

var (
	// cfg is loaded once by the root command before any subcommand runs
	cfg config.Config

	envFile  string
	logLevel string
	apiURL   string
)

var rootCmd = &cobra.Command{
	Use:           "facelight",
	Short:         "Dim the display when nobody is in front of the webcam",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		c, err := config.Load(files...)
		if err != nil {
			return err
		}

		// Flags win over the environment
		if cmd.Flags().Changed("log-level") {
			c.LogLevel = logLevel
		}
		if cmd.Flags().Changed("api-url") {
			c.APIURL = apiURL
		}
		if err := c.Validate(); err != nil {
			return err
		}

		log.InitWithOptions(log.Options{Level: c.LogLevel, File: c.LogFile})
		cfg = c
		return nil
	},
}

// Execute runs the CLI with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load settings from this .env file (default: ./.env if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "facelight server URL for client commands (default: FACELIGHT_API_URL or http://localhost:8000)")
}
