// Package reports computes the dashboard and report aggregates from a
// state snapshot.
package reports

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/artpar/warsztat/core/state"
)

const (
	// RecentLimit is the number of recent orders and clients on the dashboard.
	RecentLimit = 6

	// NoStatus labels orders without a status.
	NoStatus = "—"

	// NoClient is shown for orders whose client is unknown.
	NoClient = "(brak klienta)"
)

// Counts are the dashboard KPIs.
type Counts struct {
	Clients  int `json:"clients"`
	Orders   int `json:"orders"`
	Invoices int `json:"invoices"`
	Stock    int `json:"stock"`
	Modules  int `json:"modules"`
}

// StatusCount is the number of orders in one status.
type StatusCount struct {
	Status  string `json:"status"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// Totals sums the amount fields.
type Totals struct {
	Orders   float64 `json:"orders"`
	Invoices float64 `json:"invoices"`
}

// Dashboard is the landing page summary.
type Dashboard struct {
	SessionCreatedAt string         `json:"sessionCreatedAt"`
	Counts           Counts         `json:"counts"`
	OrdersByStatus   []StatusCount  `json:"ordersByStatus"`
	Totals           Totals         `json:"totals"`
	RecentOrders     []state.Record `json:"recentOrders"`
	RecentClients    []state.Record `json:"recentClients"`
}

// Report is the reports page summary.
type Report struct {
	OrdersByStatus []StatusCount `json:"ordersByStatus"`
	Totals         Totals        `json:"totals"`
}

// BuildDashboard summarizes st. Orders by status are sorted by count,
// largest first, then by status name.
func BuildDashboard(st *state.AppState) Dashboard {
	byStatus := OrdersByStatus(st.Orders)
	sort.SliceStable(byStatus, func(i, j int) bool {
		if byStatus[i].Count != byStatus[j].Count {
			return byStatus[i].Count > byStatus[j].Count
		}
		return byStatus[i].Status < byStatus[j].Status
	})

	return Dashboard{
		SessionCreatedAt: st.Meta.CreatedAt,
		Counts: Counts{
			Clients:  len(st.Clients),
			Orders:   len(st.Orders),
			Invoices: len(st.Invoices),
			Stock:    len(st.Stock),
			Modules:  len(st.CustomModules),
		},
		OrdersByStatus: byStatus,
		Totals:         totals(st),
		RecentOrders:   recent(st.Orders),
		RecentClients:  recent(st.Clients),
	}
}

// BuildReport summarizes st for the reports page. Orders by status keep
// the order in which statuses first appear.
func BuildReport(st *state.AppState) Report {
	return Report{
		OrdersByStatus: OrdersByStatus(st.Orders),
		Totals:         totals(st),
	}
}

// OrdersByStatus counts orders per status in first-seen order.
func OrdersByStatus(orders []state.Record) []StatusCount {
	out := []StatusCount{}
	index := make(map[string]int)
	for _, o := range orders {
		status := o.Text("status")
		if status == "" {
			status = NoStatus
		}
		i, ok := index[status]
		if !ok {
			i = len(out)
			index[status] = i
			out = append(out, StatusCount{Status: status})
		}
		out[i].Count++
	}
	for i := range out {
		out[i].Percent = int(math.Round(float64(out[i].Count) / float64(len(orders)) * 100))
	}
	return out
}

// Sum adds the numeric value of key across recs; non-numeric values
// count as zero.
func Sum(recs []state.Record, key string) float64 {
	var total float64
	for _, r := range recs {
		total += state.Number(r.Get(key))
	}
	return total
}

// ClientName returns the name of the client with the given id.
func ClientName(st *state.AppState, id string) string {
	for _, c := range st.Clients {
		if c.ID == id {
			return c.Text("name")
		}
	}
	return NoClient
}

// FormatPLN renders an amount the way pl-PL currency formatting does:
// two decimals after a comma, digits grouped by a no-break space from five
// integer digits up, and a trailing "zł".
func FormatPLN(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	s := strconv.FormatFloat(math.Abs(amount), 'f', 2, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	if len(intPart) >= 5 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteString("\u00a0")
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	sign := ""
	if amount < 0 && s != "0.00" {
		sign = "-"
	}
	return sign + intPart + "," + frac + "\u00a0zł"
}

func totals(st *state.AppState) Totals {
	return Totals{
		Orders:   Sum(st.Orders, "amount"),
		Invoices: Sum(st.Invoices, "amount"),
	}
}

func recent(recs []state.Record) []state.Record {
	n := len(recs)
	if n > RecentLimit {
		n = RecentLimit
	}
	out := make([]state.Record, n)
	for i := 0; i < n; i++ {
		out[i] = recs[i].Clone()
	}
	return out
}

