package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), cfg)
		}

		source := cfgFile
		if _, err := os.Stat(cfgFile); err != nil {
			source = "environment"
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Configuration valid")
		fmt.Fprintf(out, "  Source:   %s\n", source)
		fmt.Fprintf(out, "  Address:  %s\n", cfg.Server.Addr())
		fmt.Fprintf(out, "  Storage:  %s (%s)\n", cfg.Storage.Driver, cfg.Storage.Path)
		fmt.Fprintf(out, "  Metrics:  %v (%s)\n", cfg.Metrics.Enabled, cfg.Metrics.Path)
		fmt.Fprintf(out, "  Theme:    %s (persist: %v)\n", cfg.Settings.Theme, cfg.Settings.ThemePersist)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
