// Package search implements the quick search across every partition.
//
// Search is computed on demand from the current state. Built-in partitions
// are scanned first using their search projection, then modules in
// registration order using every schema field. Hits are truncated to Limit
// only after all sources were scanned.
package search

import (
	"strings"

	"github.com/artpar/warsztat/core/records"
	"github.com/artpar/warsztat/core/router"
	"github.com/artpar/warsztat/core/schema"
	"github.com/artpar/warsztat/core/state"
	"github.com/artpar/warsztat/ports"
)

// Limit caps the number of returned hits.
const Limit = 20

// Status distinguishes an empty query from a query without matches.
type Status uint8

const (
	StatusNoQuery Status = iota
	StatusMatched
	StatusNoMatches
)

func (s Status) String() string {
	switch s {
	case StatusNoQuery:
		return "no_query"
	case StatusMatched:
		return "matched"
	case StatusNoMatches:
		return "no_matches"
	}
	return "unknown"
}

// MarshalText encodes the status name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Module hit fields.
const (
	ModuleHitTitle          = "Rekord"
	moduleHitSubtitlePrefix = "moduł: "
)

// Hit is one search result.
type Hit struct {
	EntityType string `json:"entityType"`
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	Target     string `json:"target"`

	Partition string `json:"partition"`
	RecordID  string `json:"recordId"`
}

// Result is the outcome of one search.
type Result struct {
	Term   string `json:"term"`
	Status Status `json:"status"`
	Hits   []Hit  `json:"hits"`

	// Total counts every match before truncation.
	Total int `json:"total"`
}

// Index searches a state container.
type Index struct {
	state    *state.Container
	observer ports.Observer
}

// New creates an index over c. observer may be nil.
func New(c *state.Container, observer ports.Observer) *Index {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	return &Index{state: c, observer: observer}
}

// Search matches term, trimmed and lower-cased, as a substring of each
// record's haystack.
func (x *Index) Search(term string) Result {
	var res Result
	x.state.View(func(st *state.AppState) {
		res = Run(st, term)
	})
	x.observer.Searched(res.Status.String(), len(res.Hits))
	return res
}

// Run searches st directly.
func Run(st *state.AppState, term string) Result {
	needle := strings.ToLower(strings.TrimSpace(term))
	res := Result{Term: needle, Hits: []Hit{}}
	if needle == "" {
		res.Status = StatusNoQuery
		return res
	}

	var hits []Hit
	for _, b := range schema.BuiltIns() {
		recs, _ := st.Partition(b.Partition)
		target := router.Href(kindOf(b.Partition))
		for _, r := range recs {
			if !matches(r, b.SearchKeys, needle) {
				continue
			}
			hits = append(hits, Hit{
				EntityType: b.HitType,
				Title:      titleOf(r, b),
				Subtitle:   firstText(r, b.SubtitleKeys),
				Target:     target,
				Partition:  b.Partition,
				RecordID:   r.ID,
			})
		}
	}

	for _, m := range st.CustomModules {
		keys := m.Keys()
		target := router.ModuleHref(m.Slug)
		for _, r := range st.CustomData[m.Slug] {
			if !matches(r, keys, needle) {
				continue
			}
			hits = append(hits, Hit{
				EntityType: m.Name,
				Title:      ModuleHitTitle,
				Subtitle:   moduleHitSubtitlePrefix + m.Slug,
				Target:     target,
				Partition:  m.Slug,
				RecordID:   r.ID,
			})
		}
	}

	res.Total = len(hits)
	if len(hits) > Limit {
		hits = hits[:Limit]
	}
	if len(hits) == 0 {
		res.Status = StatusNoMatches
		return res
	}
	res.Status = StatusMatched
	res.Hits = hits
	return res
}

func matches(r state.Record, keys []string, needle string) bool {
	return strings.Contains(strings.ToLower(records.Haystack(r, keys)), needle)
}

func titleOf(r state.Record, b schema.BuiltIn) string {
	if t := r.Text(b.TitleKey); t != "" {
		return t
	}
	return b.TitleFallback
}

func firstText(r state.Record, keys []string) string {
	for _, k := range keys {
		if t := r.Text(k); t != "" {
			return t
		}
	}
	return ""
}

func kindOf(partition string) router.Kind {
	k, _ := router.ParseKind(partition)
	return k
}
