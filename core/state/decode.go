package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/warsztat/core/schema"
	"github.com/artpar/warsztat/ports"
)

// ErrMalformedInput is returned when a document is empty or not JSON.
var ErrMalformedInput = errors.New("malformed state document")

// document mirrors AppState with pointers so absent members can be told
// apart from empty ones.
type document struct {
	Meta          *Meta                  `json:"meta"`
	Clients       *[]Record              `json:"clients"`
	Orders        *[]Record              `json:"orders"`
	Invoices      *[]Record              `json:"invoices"`
	Stock         *[]Record              `json:"stock"`
	CustomModules *[]schema.ModuleSchema `json:"customModules"`
	CustomData    *map[string][]Record   `json:"customData"`
}

// Decode parses a state document and merges it over a fresh initial state:
// members that are missing, null or of the wrong type fall back to their
// defaults and everything else is kept. The returned repairs describe
// what had to be substituted. Only empty input and JSON syntax errors fail,
// with ErrMalformedInput.
func Decode(data []byte, now time.Time, ids ports.IDGenerator) (AppState, []string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return AppState{}, nil, fmt.Errorf("%w: empty document", ErrMalformedInput)
	}

	var doc document
	var repairs []string
	if err := json.Unmarshal(data, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return AppState{}, nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		repairs = append(repairs, "ignored members of the wrong type: "+typeErr.Error())
	}

	st := Initial(now)
	if doc.Meta != nil {
		st.Meta = *doc.Meta
	} else {
		repairs = append(repairs, "meta missing")
	}
	if st.Meta.CreatedAt == "" {
		st.Meta.CreatedAt = FormatTime(now)
	}
	if st.Meta.Version == 0 {
		st.Meta.Version = Version
	}

	builtins := []struct {
		name string
		src  *[]Record
		dst  *[]Record
	}{
		{schema.PartitionClients, doc.Clients, &st.Clients},
		{schema.PartitionOrders, doc.Orders, &st.Orders},
		{schema.PartitionInvoices, doc.Invoices, &st.Invoices},
		{schema.PartitionStock, doc.Stock, &st.Stock},
	}
	for _, b := range builtins {
		if b.src == nil || *b.src == nil {
			repairs = append(repairs, b.name+" missing")
			continue
		}
		*b.dst = repairRecords(*b.src, now, ids)
	}

	if doc.CustomModules == nil || *doc.CustomModules == nil {
		repairs = append(repairs, "customModules missing")
	} else {
		seen := make(map[string]bool)
		for _, m := range *doc.CustomModules {
			if m.Slug == "" || seen[m.Slug] || schema.IsBuiltIn(m.Slug) {
				repairs = append(repairs, fmt.Sprintf("dropped module %q", m.Slug))
				continue
			}
			seen[m.Slug] = true
			if m.Name == "" {
				m.Name = m.Slug
			}
			st.CustomModules = append(st.CustomModules, m.Normalize())
		}
	}

	var stored map[string][]Record
	if doc.CustomData == nil || *doc.CustomData == nil {
		repairs = append(repairs, "customData missing")
	} else {
		stored = *doc.CustomData
	}
	for _, m := range st.CustomModules {
		recs, ok := stored[m.Slug]
		if !ok || recs == nil {
			if stored != nil {
				repairs = append(repairs, fmt.Sprintf("created partition %q", m.Slug))
			}
			st.CustomData[m.Slug] = []Record{}
			continue
		}
		st.CustomData[m.Slug] = repairRecords(recs, now, ids)
	}
	for slug := range stored {
		if _, ok := st.CustomData[slug]; !ok {
			repairs = append(repairs, fmt.Sprintf("dropped orphan partition %q", slug))
		}
	}

	return st, repairs, nil
}

// repairRecords drops malformed entries and fills in missing identity and
// timestamps.
func repairRecords(recs []Record, now time.Time, ids ports.IDGenerator) []Record {
	out := make([]Record, 0, len(recs))
	ts := FormatTime(now)
	for _, r := range recs {
		if r.malformed {
			continue
		}
		if r.ID == "" {
			r.ID = ids.New()
		}
		if r.CreatedAt == "" {
			r.CreatedAt = ts
		}
		if r.UpdatedAt == "" {
			r.UpdatedAt = r.CreatedAt
		}
		if r.Values == nil {
			r.Values = map[string]any{}
		}
		out = append(out, r)
	}
	return out
}
