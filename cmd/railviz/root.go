package main

import (
	"github.com/spf13/cobra"

	"railviz/internal/config"
	"railviz/internal/ui"
)

var version = "0.3.0"

var configPath string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "railviz",
		Short: "railviz renders railway interlocking schematics",
		Long: ui.Brand.Sprint("railviz") + " renders interlocking graphs as interactive SVG schematics\n" +
			ui.Subtle.Sprint("Serve live render sessions or render a graph file offline"),
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.SetVersionTemplate("railviz {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: search $"+config.EnvConfigPath+" and standard locations)")

	rootCmd.AddCommand(
		serveCmd(),
		renderCmd(),
		configCmd(),
		versionCmd(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// loadConfig reads --config when given, otherwise searches the standard
// locations. It returns the path used, empty for defaults.
func loadConfig() (*config.Config, string, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}
