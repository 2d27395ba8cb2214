package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/chemion/internal/transport"
	"github.com/srg/chemion/internal/transport/goble"
	"github.com/srg/chemion/pkg/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "chemion",
	Short: "Drive Chemion LED glasses over Bluetooth LE",
	Long: `Drive Chemion LED glasses over Bluetooth Low Energy:

- Scan for nearby glasses
- Encode 24x9 pixel frames into the glasses' wire format
- Push frames to a pair of glasses
- Serve the same operations over HTTP for other tools and UIs`,
	Version: formatVersion(version),
}

// newTransport opens the host BLE stack (can be overridden in tests)
var newTransport = func(logger *logrus.Logger) transport.Manager {
	return goble.NewManager(logger)
}

func closeTransport(m transport.Manager, logger *logrus.Logger) {
	if c, ok := m.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.WithField("error", err).Debug("Failed to release BLE device")
		}
	}
}

var (
	logLevelFlag   string
	configPathFlag string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", formatUserError(err))
		os.Exit(1)
	}
}

// loadConfig reads the file named by --config over the defaults
func loadConfig() (*config.Config, error) {
	return config.Load(configPathFlag)
}

func init() {
	// Silence Cobra's "Error:" prefix - main() prints clean errors
	rootCmd.SilenceErrors = true
	rootCmd.SetVersionTemplate(fmt.Sprintf("chemion %s (commit %s, built %s)\n", formatVersion(version), commit, date))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(displayCmd)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "YAML config file")
}
