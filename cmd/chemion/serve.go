package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/srg/chemion/internal/api"
	"github.com/srg/chemion/internal/dispatch"
	"github.com/srg/chemion/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the glasses over HTTP",
	Long: `Run an HTTP server that owns a single glasses session.

  GET  /discover     list named peripherals in range
  POST /connect      bind to device_address (form or JSON)
  GET  /disconnect   release the binding
  POST /display      write encoded packets {"glasses_frame": [[...]]}
  POST /encode       encode a pixel frame {"glasses_frame": [[...]]}
  GET  /status       current binding`,
	RunE: runServe,
}

var (
	serveListen  string
	serveVerbose bool
)

func init() {
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Listen address (default: listen_addr from config)")
	serveCmd.Flags().BoolVarP(&serveVerbose, "verbose", "v", false, "Verbose output")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := configureLogger(cmd, cfg, "verbose")
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	addr := cfg.ListenAddr
	if serveListen != "" {
		addr = serveListen
	}

	manager := newTransport(logger)
	defer closeTransport(manager, logger)
	sess := session.New(manager, cfg.SessionOptions(), logger)
	router := api.NewRouter(sess, dispatch.New(sess, cfg.PacketInterval, logger), logger)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving glasses on %s (Ctrl+C to stop)\n", addr)
	if err := api.Serve(ctx, addr, router, logger); err != nil {
		return err
	}

	if sess.IsConnected() {
		if err := sess.Disconnect(context.Background()); err != nil {
			logger.WithField("error", err).Warn("Failed to disconnect on shutdown")
		}
	}
	return nil
}
