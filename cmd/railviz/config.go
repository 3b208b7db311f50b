package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"railviz/internal/config"
	"railviz/internal/ui"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the railviz configuration",
	}
	cmd.AddCommand(configShowCmd(), configInitCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if raw {
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}

			ui.Banner(out, "config")
			if path == "" {
				ui.Field(out, "Source", ui.Subtle.Sprint("defaults (no config file found)"))
			} else {
				ui.Field(out, "Source", path)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, cfg.Summary())
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "yaml", false, "Print the configuration as YAML")
	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", ui.StatusIcon(true), path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
