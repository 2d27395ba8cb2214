package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/srg/chemion/internal/protocol"
)

var encodeCmd = &cobra.Command{
	Use:   "encode <frame.json|->",
	Short: "Encode a pixel frame into glasses packets",
	Long: `Encode a pixel frame into the packets the glasses expect, without
touching Bluetooth.

The frame is JSON, either {"glasses_frame": [[0,1,2,3], ...]} or a bare
array of rows. Each pixel is an intensity from 0 (off) to 3 (brightest).`,
	Example: `  chemion encode smiley.json
  echo '[[3,3,3,3]]' | chemion encode - --format json
  chemion encode smiley.json --preview`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

var (
	encodeFormat  string
	encodePreview bool
	encodeNoColor bool
)

func init() {
	encodeCmd.Flags().StringVarP(&encodeFormat, "format", "f", "hex", "Output format (hex, json)")
	encodeCmd.Flags().BoolVarP(&encodePreview, "preview", "p", false, "Draw the frame before the packets")
	encodeCmd.Flags().BoolVar(&encodeNoColor, "no-color", false, "Disable colored preview")
}

func runEncode(cmd *cobra.Command, args []string) error {
	if encodeFormat != "hex" && encodeFormat != "json" {
		return fmt.Errorf("invalid format '%s': must be one of [hex json]", encodeFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := configureLogger(cmd, cfg, "")
	if err != nil {
		return err
	}

	frame, err := readFrame(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	packets, err := protocol.Encode(frame)
	if err != nil {
		return err
	}
	logger.WithField("packets", len(packets)).Debug("Frame encoded")

	out := cmd.OutOrStdout()
	if encodePreview {
		if err := frame.Render(out, !encodeNoColor && !color.NoColor); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}

	if encodeFormat == "json" {
		enc := json.NewEncoder(out)
		return enc.Encode(protocol.PacketRequest{Packets: packets})
	}

	fmt.Fprintln(out, strings.Join(packets.Hex(), "\n"))
	return nil
}
