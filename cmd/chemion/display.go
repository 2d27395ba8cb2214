package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/chemion/internal/dispatch"
	"github.com/srg/chemion/internal/protocol"
	"github.com/srg/chemion/internal/session"
)

var displayCmd = &cobra.Command{
	Use:   "display [frame.json|-]",
	Short: "Show a frame on a pair of glasses",
	Long: `Connect to the glasses at --address, write one frame and disconnect.

The frame is validated and encoded before any Bluetooth activity, so a bad
frame never reaches the glasses.`,
	Example: `  chemion display --address C8:FD:19:3A:2F:01 smiley.json
  chemion display --address C8:FD:19:3A:2F:01 --clear`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDisplay,
}

var (
	displayAddress  string
	displayClear    bool
	displayInterval time.Duration
	displayVerbose  bool
)

func init() {
	displayCmd.Flags().StringVarP(&displayAddress, "address", "a", "", "Address of the glasses (see 'chemion scan')")
	displayCmd.Flags().BoolVar(&displayClear, "clear", false, "Send a blank frame instead of reading one")
	displayCmd.Flags().DurationVar(&displayInterval, "interval", 0, "Pause between packets (default: packet_interval from config)")
	displayCmd.Flags().BoolVarP(&displayVerbose, "verbose", "v", false, "Verbose output")
}

func runDisplay(cmd *cobra.Command, args []string) error {
	if displayAddress == "" {
		return fmt.Errorf("--address is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := configureLogger(cmd, cfg, "verbose")
	if err != nil {
		return err
	}

	var frame protocol.Frame
	switch {
	case displayClear:
		frame = protocol.NewFrame(protocol.DisplayWidth, protocol.DisplayHeight)
	case len(args) == 1:
		if frame, err = readFrame(args[0], cmd.InOrStdin()); err != nil {
			return err
		}
	default:
		return ErrNoFrame
	}

	packets, err := protocol.Encode(frame)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	interval := cfg.PacketInterval
	if cmd.Flags().Changed("interval") {
		interval = displayInterval
	}

	manager := newTransport(logger)
	defer closeTransport(manager, logger)
	sess := session.New(manager, cfg.SessionOptions(), logger)
	dispatcher := dispatch.New(sess, interval, logger)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	progress := NewProgressPrinter(out, "Connecting to "+displayAddress)
	progress.Start()
	err = sess.Connect(ctx, displayAddress)
	progress.Stop()
	if err != nil {
		return err
	}
	defer func() {
		// Disconnect even if ctx was cancelled
		if err := sess.Disconnect(context.WithoutCancel(ctx)); err != nil {
			logger.WithField("error", err).Warn("Failed to disconnect")
		}
	}()

	if err := dispatcher.Display(ctx, packets); err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintf(out, "Frame sent to %s (%d packets)\n", displayAddress, len(packets))
	return nil
}
