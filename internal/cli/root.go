// Package cli implements the headless nodemanager command line. It
// drives the same scanner, registry and dispatcher as the GUI, for use
// on machines without a display.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nodemanager/internal/config"
)

var (
	cfgFile string

	versionString = "dev"
	commitString  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "nodemanager",
	Short: "Discover and control nodes on the local network",
	Long: `nodemanager discovers machines exposing the node control API on the
local /24 segment, lists them, and can reboot or shut down the fleet.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .nodemanager.yaml)")
	rootCmd.AddCommand(scanCmd, rebootCmd, shutdownCmd, versionCmd)
}

// SetVersionInfo records build metadata for the version command.
func SetVersionInfo(version, commit string) {
	versionString = version
	commitString = commit
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.ScanPort, _ = flags.GetInt("port")
	}
	if flags.Changed("prefix") {
		cfg.Prefix, _ = flags.GetString("prefix")
	}
	if flags.Changed("workers") {
		cfg.ScanWorkers, _ = flags.GetInt("workers")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().Int("port", 0, "control port to probe (overrides config)")
	cmd.Flags().String("prefix", "", "subnet prefix, e.g. 192.168.1 (default: auto-detect)")
	cmd.Flags().Int("workers", 0, "concurrent probes (overrides config)")
}
