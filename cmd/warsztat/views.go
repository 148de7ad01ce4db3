package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artpar/warsztat/core/reports"
	"github.com/artpar/warsztat/core/runtime"
	"github.com/artpar/warsztat/core/search"
	"github.com/artpar/warsztat/core/state"
	"github.com/artpar/warsztat/domain/settings"
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Quick search across all partitions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(_ context.Context, rt *runtime.Runtime) error {
			res := rt.Search(strings.Join(args, " "))
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), res)
			}

			out := cmd.OutOrStdout()
			switch res.Status {
			case search.StatusNoQuery:
				fmt.Fprintln(out, "Wpisz frazę, aby wyszukać.")
				return nil
			case search.StatusNoMatches:
				fmt.Fprintln(out, "Brak wyników.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tTITLE\tSUBTITLE\tTARGET")
			for _, h := range res.Hits {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", h.EntityType, h.Title, h.Subtitle, h.Target)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if res.Total > len(res.Hits) {
				fmt.Fprintf(out, "%d of %d hits shown\n", len(res.Hits), res.Total)
			}
			return nil
		})
	},
}

var routeCmd = &cobra.Command{
	Use:   "route [fragment]",
	Short: "Resolve a location fragment such as #/module/pojazdy",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(_ context.Context, rt *runtime.Runtime) error {
			fragment := ""
			if len(args) == 1 {
				fragment = args[0]
			}
			route := rt.Navigate(fragment)
			tabs := rt.Tabs()

			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"route": route,
					"kind":  route.Kind.String(),
					"tabs":  tabs,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Kind:     %s\n", route.Kind)
			fmt.Fprintf(out, "Fragment: %s\n", route.Fragment)
			if route.Module != "" {
				fmt.Fprintf(out, "Module:   %s\n", route.Module)
			}
			for _, t := range tabs {
				marker := " "
				if t.Active {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\t%s\n", marker, t.Label, t.Href)
			}
			return nil
		})
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the dashboard summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(_ context.Context, rt *runtime.Runtime) error {
			d := rt.Dashboard()
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), d)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sesja od: %s\n", d.SessionCreatedAt)
			fmt.Fprintf(out, "Klienci: %d  Zlecenia: %d  Faktury: %d  Magazyn: %d  Moduły: %d\n",
				d.Counts.Clients, d.Counts.Orders, d.Counts.Invoices, d.Counts.Stock, d.Counts.Modules)
			printTotals(cmd, d.Totals)
			printStatuses(cmd, d.OrdersByStatus)

			if len(d.RecentOrders) > 0 {
				fmt.Fprintln(out, "\nOstatnie zlecenia:")
				var names map[string]string
				rt.State().View(func(st *state.AppState) {
					names = make(map[string]string, len(d.RecentOrders))
					for _, o := range d.RecentOrders {
						names[o.ID] = reports.ClientName(st, o.Text("clientId"))
					}
				})
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				for _, o := range d.RecentOrders {
					fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", o.Text("code"), o.Text("title"), names[o.ID], o.Text("status"))
				}
				w.Flush()
			}
			if len(d.RecentClients) > 0 {
				fmt.Fprintln(out, "\nOstatni klienci:")
				for _, c := range d.RecentClients {
					fmt.Fprintf(out, "  %s\t%s\n", c.Text("name"), c.Text("phone"))
				}
			}
			return nil
		})
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show orders by status and totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(_ context.Context, rt *runtime.Runtime) error {
			r := rt.Report()
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), r)
			}
			printTotals(cmd, r.Totals)
			printStatuses(cmd, r.OrdersByStatus)
			return nil
		})
	},
}

func printTotals(cmd *cobra.Command, t reports.Totals) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Suma zleceń: %s\n", reports.FormatPLN(t.Orders))
	fmt.Fprintf(out, "Suma faktur: %s\n", reports.FormatPLN(t.Invoices))
}

func printStatuses(cmd *cobra.Command, byStatus []reports.StatusCount) {
	if len(byStatus) == 0 {
		return
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tCOUNT\tPERCENT")
	for _, s := range byStatus {
		fmt.Fprintf(w, "%s\t%d\t%d%%\n", s.Status, s.Count, s.Percent)
	}
	w.Flush()
}

var themeCmd = &cobra.Command{
	Use:   "theme [light|dark|toggle]",
	Short: "Show or change the theme",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, func(ctx context.Context, rt *runtime.Runtime) error {
			t := rt.Theme()
			if len(args) == 1 {
				var err error
				if args[0] == "toggle" {
					t, err = rt.ToggleTheme(ctx)
				} else {
					t, err = rt.SetTheme(ctx, settings.Theme(args[0]))
				}
				if err != nil {
					return err
				}
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]string{"theme": t.String(), "label": t.Label()})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", t, t.Label())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(themeCmd)
}
