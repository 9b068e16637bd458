package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/facelight/internal/log"
	"github.com/teslashibe/facelight/pkg/publish"
	"github.com/teslashibe/facelight/pkg/web"
)

var (
	serveAddr    string
	serveMonitor bool
	serveBackend string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the presence API, status feed and monitor loop",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: FACELIGHT_ADDR or :8000)")
	serveCmd.Flags().BoolVar(&serveMonitor, "monitor", false, "start monitoring immediately")
	serveCmd.Flags().StringVar(&serveBackend, "backend", "", "brightness backend: sysfs, command, dryrun")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Web.Addr = serveAddr
	}
	if serveMonitor {
		cfg.Monitor.AutoStart = true
	}
	if serveBackend != "" {
		cfg.Brightness.Backend = serveBackend
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	g, ctx := errgroup.WithContext(cmd.Context())

	if cfg.MQTT.Enabled() {
		client, err := publish.Connect(cfg.MQTT)
		if err != nil {
			return err
		}
		pub := publish.New(client, cfg.MQTT)
		defer pub.Close()

		eng.state.Observe(pub.Observe)
		g.Go(func() error {
			pub.Start(ctx)
			return nil
		})
		log.Info("📡 publishing state", "topic", cfg.MQTT.StateTopic())
	}

	srv := web.NewServer(cfg.Web, eng.state, eng.checker, eng.monitor)
	g.Go(func() error {
		return srv.Run(ctx)
	})

	if cfg.Monitor.AutoStart {
		eng.monitor.Start()
	}
	g.Go(func() error {
		<-ctx.Done()
		eng.monitor.Stop()
		return nil
	})

	log.Info("✅ facelight running",
		"addr", cfg.Web.Addr,
		"interval", cfg.Monitor.Interval,
		"backend", cfg.Brightness.Backend,
		"models", len(cfg.Detection.Models))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("👋 shut down")
	return nil
}
