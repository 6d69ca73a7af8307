// Command meter-node counts water-meter pulses on GPIO inputs, persists the
// totals in a wear-leveled storage region, and reports interval deltas to
// an MQTT collector.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "meter-node",
	Short: "Utility meter pulse counting and reporting daemon",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to TOML config file (built-in defaults if empty)")
	rootCmd.AddCommand(runCmd, stateCmd, setCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
