package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artpar/warsztat/core/runtime"
	"github.com/artpar/warsztat/core/schema"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "Manage user-defined modules",
	Long: `Manage user-defined modules.

A module is a named partition with its own field schema. Fields are given
as comma-separated "key:type:label:required" entries; type is one of text,
number, date, textarea, checkbox or select[a|b|c].

Examples:
  warsztat modules list
  warsztat modules create Pojazdy --fields "vin:text:VIN:true, rok:number:Rok"
  warsztat modules show pojazdy
  warsztat modules delete pojazdy --yes`,
}

var modulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List modules, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(_ context.Context, rt *runtime.Runtime) error {
			mods := rt.Modules()
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), mods)
			}
			if len(mods) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No modules.")
				return nil
			}

			counts := map[string]int{}
			for _, p := range rt.Partitions() {
				counts[p.Partition] = p.Count
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SLUG\tNAME\tFIELDS\tRECORDS")
			for _, m := range mods {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", m.Slug, m.Name, len(m.Fields), counts[m.Slug])
			}
			return w.Flush()
		})
	},
}

var moduleFields string

var modulesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a module",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
			m, err := rt.CreateModule(ctx, strings.Join(args, " "), moduleFields)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), m)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created module %s (%s)\n", m.Name, m.Slug)
			return printSchema(cmd, m)
		})
	},
}

var modulesShowCmd = &cobra.Command{
	Use:   "show <partition>",
	Short: "Show the schema of a module or built-in partition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(_ context.Context, rt *runtime.Runtime) error {
			m, err := rt.Schema(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), m)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", m.Name, args[0])
			return printSchema(cmd, m)
		})
	},
}

var moduleDeleteYes bool

var modulesDeleteCmd = &cobra.Command{
	Use:   "delete <slug>",
	Short: "Delete a module and its records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
			ran, err := runConfirmed(ctx, cmd, rt, moduleDeleteYes, rt.DeleteModuleIntent(args[0]))
			if err != nil || !ran {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted module %s\n", args[0])
			return nil
		})
	},
}

func printSchema(cmd *cobra.Command, m schema.ModuleSchema) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tLABEL\tTYPE\tREQUIRED\tOPTIONS")
	for _, f := range m.Fields {
		opts := make([]string, len(f.Options))
		for i, o := range f.Options {
			opts[i] = o.Value
		}
		if f.OptionsFrom != "" {
			opts = []string{"<" + f.OptionsFrom + ">"}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", f.Key, f.Label, f.Type.Label(), f.Required, strings.Join(opts, " | "))
	}
	return w.Flush()
}

func init() {
	modulesCreateCmd.Flags().StringVarP(&moduleFields, "fields", "f", "", "field spec (default: name and note)")
	modulesDeleteCmd.Flags().BoolVarP(&moduleDeleteYes, "yes", "y", false, "skip the confirmation")

	modulesCmd.AddCommand(modulesListCmd)
	modulesCmd.AddCommand(modulesCreateCmd)
	modulesCmd.AddCommand(modulesShowCmd)
	modulesCmd.AddCommand(modulesDeleteCmd)
	rootCmd.AddCommand(modulesCmd)
}
