package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artpar/warsztat/core/runtime"
	"github.com/artpar/warsztat/core/schema"
	"github.com/artpar/warsztat/core/state"
)

// listColumns caps the schema fields shown by "records list".
const listColumns = 4

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage records of a partition",
	Long: `Manage the records of a built-in partition (clients, orders, invoices,
stock) or of a module.

Examples:
  warsztat records list orders --q "w toku"
  warsztat records add clients --set name="Jan Kowalski" --set city=Kraków
  warsztat records update stock <id> --set qty=4
  warsztat records delete clients <id> --yes`,
}

var (
	recordQuery string
	recordSets  []string
	recordYes   bool
)

var recordsListCmd = &cobra.Command{
	Use:   "list <partition>",
	Short: "List records, optionally filtered",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(_ context.Context, rt *runtime.Runtime) error {
			m, err := rt.Schema(args[0])
			if err != nil {
				return err
			}
			recs, err := rt.Filter(args[0], recordQuery)
			if err != nil {
				return err
			}
			if jsonOutput {
				if recs == nil {
					recs = []state.Record{}
				}
				return printJSON(cmd.OutOrStdout(), recs)
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No records.")
				return nil
			}
			return printRecords(cmd, m, recs)
		})
	},
}

var recordsGetCmd = &cobra.Command{
	Use:   "get <partition> <id>",
	Short: "Show one record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(_ context.Context, rt *runtime.Runtime) error {
			m, err := rt.Schema(args[0])
			if err != nil {
				return err
			}
			rec, err := rt.Record(args[0], args[1])
			if err != nil {
				return err
			}
			return printRecord(cmd, m, rec)
		})
	},
}

var recordsAddCmd = &cobra.Command{
	Use:   "add <partition>",
	Short: "Create a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := parseAssignments(recordSets)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
			m, err := rt.Schema(args[0])
			if err != nil {
				return err
			}
			rec, err := rt.CreateRecord(ctx, args[0], input)
			if err != nil {
				return err
			}
			return printRecord(cmd, m, rec)
		})
	},
}

var recordsUpdateCmd = &cobra.Command{
	Use:   "update <partition> <id>",
	Short: "Update fields of a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := parseAssignments(recordSets)
		if err != nil {
			return err
		}
		return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
			m, err := rt.Schema(args[0])
			if err != nil {
				return err
			}
			rec, err := rt.UpdateRecord(ctx, args[0], args[1], input)
			if err != nil {
				return err
			}
			return printRecord(cmd, m, rec)
		})
	},
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <partition> <id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
			in, err := rt.DeleteRecordIntent(args[0], args[1])
			if err != nil {
				return err
			}
			ran, err := runConfirmed(ctx, cmd, rt, recordYes, in)
			if err != nil || !ran {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s\n", args[0], args[1])
			return nil
		})
	},
}

// parseAssignments turns key=value pairs into record input.
func parseAssignments(pairs []string) (map[string]any, error) {
	input := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", p)
		}
		input[key] = value
	}
	return input, nil
}

func printRecords(cmd *cobra.Command, m schema.ModuleSchema, recs []state.Record) error {
	fields := m.Fields
	if len(fields) > listColumns {
		fields = fields[:listColumns]
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	header := []string{"ID"}
	for _, f := range fields {
		header = append(header, strings.ToUpper(f.Label))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, r := range recs {
		row := []string{r.ID}
		for _, f := range fields {
			row = append(row, oneLine(r.Text(f.Key)))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func printRecord(cmd *cobra.Command, m schema.ModuleSchema, rec state.Record) error {
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), rec)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "id\t%s\n", rec.ID)
	for _, f := range m.Fields {
		fmt.Fprintf(w, "%s\t%s\n", f.Label, oneLine(rec.Text(f.Key)))
	}
	fmt.Fprintf(w, "createdAt\t%s\n", rec.CreatedAt)
	fmt.Fprintf(w, "updatedAt\t%s\n", rec.UpdatedAt)
	return w.Flush()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func init() {
	recordsListCmd.Flags().StringVarP(&recordQuery, "q", "q", "", "filter term")
	recordsAddCmd.Flags().StringArrayVarP(&recordSets, "set", "s", nil, "field value as key=value (repeatable)")
	recordsUpdateCmd.Flags().StringArrayVarP(&recordSets, "set", "s", nil, "field value as key=value (repeatable)")
	recordsDeleteCmd.Flags().BoolVarP(&recordYes, "yes", "y", false, "skip the confirmation")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsGetCmd)
	recordsCmd.AddCommand(recordsAddCmd)
	recordsCmd.AddCommand(recordsUpdateCmd)
	recordsCmd.AddCommand(recordsDeleteCmd)
	rootCmd.AddCommand(recordsCmd)
}
