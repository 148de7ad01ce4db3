// Package records provides generic CRUD over any partition, built-in or
// user defined. The partition schema drives coercion and validation, and
// every mutation is committed through the state container.
package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/warsztat/core/schema"
	"github.com/artpar/warsztat/core/state"
	"github.com/artpar/warsztat/core/validation"
)

var (
	// ErrNotFound is returned when a record id is absent from its partition.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownPartition is returned for names that are neither a built-in
	// partition nor a registered module slug.
	ErrUnknownPartition = errors.New("unknown partition")
)

// Store performs validated CRUD against the partitions of a container.
type Store struct {
	state *state.Container
}

// New creates a record store over c.
func New(c *state.Container) *Store {
	return &Store{state: c}
}

// Schema returns the schema of a partition.
func (s *Store) Schema(partition string) (schema.ModuleSchema, error) {
	var (
		m  schema.ModuleSchema
		ok bool
	)
	s.state.View(func(st *state.AppState) {
		m, ok = st.Schema(partition)
		if ok {
			m = m.Clone()
		}
	})
	if !ok {
		return schema.ModuleSchema{}, fmt.Errorf("%w: %q", ErrUnknownPartition, partition)
	}
	return m, nil
}

// Create validates input against the partition schema and prepends a new
// record. On a validation error nothing is written.
func (s *Store) Create(ctx context.Context, partition string, input map[string]any) (state.Record, error) {
	var created state.Record

	err := s.state.Update(ctx, func(st *state.AppState) error {
		m, recs, err := lookup(st, partition)
		if err != nil {
			return err
		}

		values, result := validation.ValidateCreate(m.Fields, input)
		if err := result.Err(); err != nil {
			return err
		}

		now := s.state.Now()
		created = state.Record{
			ID:        s.state.NewID(),
			CreatedAt: now,
			UpdatedAt: now,
			Values:    values,
		}

		next := make([]state.Record, 0, len(recs)+1)
		next = append(next, created)
		next = append(next, recs...)
		st.SetPartition(partition, next)
		return nil
	})
	if err != nil {
		return state.Record{}, err
	}
	return created.Clone(), nil
}

// Update merges the validated fields of input into an existing record,
// keeping its id and createdAt and refreshing updatedAt.
func (s *Store) Update(ctx context.Context, partition, id string, input map[string]any) (state.Record, error) {
	var updated state.Record

	err := s.state.Update(ctx, func(st *state.AppState) error {
		m, recs, err := lookup(st, partition)
		if err != nil {
			return err
		}

		idx := indexOf(recs, id)
		if idx < 0 {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, partition, id)
		}

		changes, result := validation.ValidateUpdate(m.Fields, recs[idx].Values, input)
		if err := result.Err(); err != nil {
			return err
		}

		rec := recs[idx]
		for k, v := range changes {
			rec.Values[k] = v
		}
		rec.UpdatedAt = s.state.Now()
		recs[idx] = rec
		updated = rec
		return nil
	})
	if err != nil {
		return state.Record{}, err
	}
	return updated.Clone(), nil
}

// Delete removes the record with the given id. Deleting an absent id is a
// no-op; removed reports whether anything was deleted.
func (s *Store) Delete(ctx context.Context, partition, id string) (removed bool, err error) {
	err = s.state.Update(ctx, func(st *state.AppState) error {
		_, recs, err := lookup(st, partition)
		if err != nil {
			return err
		}

		next := make([]state.Record, 0, len(recs))
		for _, r := range recs {
			if r.ID == id {
				removed = true
				continue
			}
			next = append(next, r)
		}
		if !removed {
			return state.ErrUnchanged
		}
		st.SetPartition(partition, next)
		return nil
	})
	return removed, err
}

// List returns the records of a partition in stored order.
func (s *Store) List(partition string) ([]state.Record, error) {
	return s.Filter(partition, "")
}

// Get returns one record.
func (s *Store) Get(partition, id string) (state.Record, error) {
	var (
		rec state.Record
		err error
	)
	s.state.View(func(st *state.AppState) {
		var recs []state.Record
		if _, recs, err = lookup(st, partition); err != nil {
			return
		}
		idx := indexOf(recs, id)
		if idx < 0 {
			err = fmt.Errorf("%w: %s/%s", ErrNotFound, partition, id)
			return
		}
		rec = recs[idx].Clone()
	})
	return rec, err
}

// Filter returns the records whose list-filter text contains term,
// case-insensitively. An empty term returns every record.
func (s *Store) Filter(partition, term string) ([]state.Record, error) {
	term = strings.ToLower(strings.TrimSpace(term))

	var (
		out []state.Record
		err error
	)
	s.state.View(func(st *state.AppState) {
		var (
			m    schema.ModuleSchema
			recs []state.Record
		)
		if m, recs, err = lookup(st, partition); err != nil {
			return
		}
		keys := FilterKeys(partition, m)
		out = make([]state.Record, 0, len(recs))
		for _, r := range recs {
			if term == "" || strings.Contains(strings.ToLower(Haystack(r, keys)), term) {
				out = append(out, r.Clone())
			}
		}
	})
	return out, err
}

// FilterKeys returns the list-filter projection of a partition: the fixed
// projection for built-ins, every field for modules.
func FilterKeys(partition string, m schema.ModuleSchema) []string {
	if b, ok := schema.LookupBuiltIn(partition); ok {
		return b.FilterKeys
	}
	return m.Keys()
}

// Haystack joins the display text of the given keys with spaces.
func Haystack(r state.Record, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = r.Text(k)
	}
	return strings.Join(parts, " ")
}

// ResolveOptions returns the concrete choices of a select field. Dynamic
// options are built from the source partition: value is the record id and
// label its name, or the id when the name is blank.
func (s *Store) ResolveOptions(f schema.FieldDescriptor) []schema.Option {
	if f.Type != schema.FieldSelect {
		return nil
	}
	if f.OptionsFrom == "" {
		return append([]schema.Option{}, f.Options...)
	}

	var out []schema.Option
	s.state.View(func(st *state.AppState) {
		recs, _ := st.Partition(f.OptionsFrom)
		out = make([]schema.Option, 0, len(recs))
		for _, r := range recs {
			label := r.Text("name")
			if label == "" {
				label = r.ID
			}
			out = append(out, schema.Option{Value: r.ID, Label: label})
		}
	})
	return out
}

func lookup(st *state.AppState, partition string) (schema.ModuleSchema, []state.Record, error) {
	m, ok := st.Schema(partition)
	if !ok {
		return schema.ModuleSchema{}, nil, fmt.Errorf("%w: %q", ErrUnknownPartition, partition)
	}
	recs, ok := st.Partition(partition)
	if !ok {
		return schema.ModuleSchema{}, nil, fmt.Errorf("%w: %q", ErrUnknownPartition, partition)
	}
	return m, recs, nil
}

func indexOf(recs []state.Record, id string) int {
	for i, r := range recs {
		if r.ID == id {
			return i
		}
	}
	return -1
}
