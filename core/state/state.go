// Package state owns the application data graph: the four built-in
// partitions, user-defined module schemas and their partitions.
//
// The Container is the single writer. Every mutation runs inside Update,
// which works on a private copy, flushes it to the document store and only
// then makes it current, so memory and the persisted copy never diverge.
package state

import (
	"time"

	"github.com/artpar/warsztat/core/schema"
)

const (
	// Version is the current document version.
	Version = 1

	// DefaultKey is the document store key holding the state.
	DefaultKey = "warsztatcrm_state_v1"

	// TimeLayout is the timestamp format used throughout the document.
	TimeLayout = "2006-01-02T15:04:05.000Z"
)

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Meta describes the document itself.
type Meta struct {
	CreatedAt string `json:"createdAt"`
	Version   int    `json:"version"`
}

// AppState is the full data graph.
// Every slug in CustomData has a schema in CustomModules and vice versa.
type AppState struct {
	Meta          Meta                  `json:"meta"`
	Clients       []Record              `json:"clients"`
	Orders        []Record              `json:"orders"`
	Invoices      []Record              `json:"invoices"`
	Stock         []Record              `json:"stock"`
	CustomModules []schema.ModuleSchema `json:"customModules"`
	CustomData    map[string][]Record   `json:"customData"`
}

// Initial returns an empty state created at now.
func Initial(now time.Time) AppState {
	return AppState{
		Meta:          Meta{CreatedAt: FormatTime(now), Version: Version},
		Clients:       []Record{},
		Orders:        []Record{},
		Invoices:      []Record{},
		Stock:         []Record{},
		CustomModules: []schema.ModuleSchema{},
		CustomData:    map[string][]Record{},
	}
}

// Partition returns the records of a built-in partition or module slug.
func (s *AppState) Partition(name string) ([]Record, bool) {
	switch name {
	case schema.PartitionClients:
		return s.Clients, true
	case schema.PartitionOrders:
		return s.Orders, true
	case schema.PartitionInvoices:
		return s.Invoices, true
	case schema.PartitionStock:
		return s.Stock, true
	}
	recs, ok := s.CustomData[name]
	return recs, ok
}

// SetPartition replaces the records of an existing partition.
// It reports false when the partition does not exist.
func (s *AppState) SetPartition(name string, recs []Record) bool {
	if recs == nil {
		recs = []Record{}
	}
	switch name {
	case schema.PartitionClients:
		s.Clients = recs
	case schema.PartitionOrders:
		s.Orders = recs
	case schema.PartitionInvoices:
		s.Invoices = recs
	case schema.PartitionStock:
		s.Stock = recs
	default:
		if _, ok := s.CustomData[name]; !ok {
			return false
		}
		s.CustomData[name] = recs
	}
	return true
}

// Module returns the schema registered under slug.
func (s *AppState) Module(slug string) (schema.ModuleSchema, bool) {
	for _, m := range s.CustomModules {
		if m.Slug == slug {
			return m, true
		}
	}
	return schema.ModuleSchema{}, false
}

// Schema returns the schema of a built-in partition or module slug.
func (s *AppState) Schema(partition string) (schema.ModuleSchema, bool) {
	if b, ok := schema.LookupBuiltIn(partition); ok {
		return b.Schema(), true
	}
	return s.Module(partition)
}

// Clone returns a deep copy of s.
func (s AppState) Clone() AppState {
	out := AppState{
		Meta:          s.Meta,
		Clients:       cloneRecords(s.Clients),
		Orders:        cloneRecords(s.Orders),
		Invoices:      cloneRecords(s.Invoices),
		Stock:         cloneRecords(s.Stock),
		CustomModules: make([]schema.ModuleSchema, len(s.CustomModules)),
		CustomData:    make(map[string][]Record, len(s.CustomData)),
	}
	for i, m := range s.CustomModules {
		out.CustomModules[i] = m.Clone()
	}
	for slug, recs := range s.CustomData {
		out.CustomData[slug] = cloneRecords(recs)
	}
	return out
}

func cloneRecords(recs []Record) []Record {
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}
