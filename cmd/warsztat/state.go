package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/warsztat/core/runtime"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the whole state as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(_ context.Context, rt *runtime.Runtime) error {
			data, err := rt.Export()
			if err != nil {
				return err
			}
			if exportOut == "" || exportOut == "-" {
				_, err := cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(exportOut, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", exportOut)
			return nil
		})
	},
}

var importYes bool

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Replace the state with an exported document",
	Long: `Replace the whole state with a previously exported JSON document.

The document is parsed before anything is asked; a malformed file leaves the
state untouched. Missing parts are filled with empty defaults.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
			in, err := rt.ImportIntent(data)
			if err != nil {
				return err
			}
			// stdin carries the document, so it cannot carry the answer too.
			yes := importYes || args[0] == "-"
			ran, err := runConfirmed(ctx, cmd, rt, yes, in)
			if err != nil || !ran {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d modules\n", len(rt.Modules()))
			return nil
		})
	},
}

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard all data",
	Long:  "Discard every record and module. The theme setting is kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
			ran, err := runConfirmed(ctx, cmd, rt, resetYes, rt.ResetIntent())
			if err != nil || !ran {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "State reset")
			return nil
		})
	},
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read import: %w", err)
	}
	return data, nil
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	importCmd.Flags().BoolVarP(&importYes, "yes", "y", false, "skip the confirmation")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip the confirmation")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(resetCmd)
}
