// Package registry manages user-defined modules: their schemas, slugs and
// data partitions. A module and its partition are always added and removed
// together in a single state update.
package registry

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/artpar/warsztat/core/fieldspec"
	"github.com/artpar/warsztat/core/schema"
	"github.com/artpar/warsztat/core/state"
)

// ErrNameRequired is returned by Create when the module name is blank.
var ErrNameRequired = errors.New("module name is required")

// reserved holds slugs taken by built-in partitions and top-level routes.
var reserved = map[string]bool{
	schema.PartitionClients:  true,
	schema.PartitionOrders:   true,
	schema.PartitionInvoices: true,
	schema.PartitionStock:    true,
	"dashboard":              true,
	"reports":                true,
	"modules":                true,
	"module":                 true,
	"settings":               true,
}

// IsReserved reports whether slug can never be assigned to a module.
func IsReserved(slug string) bool {
	return reserved[slug]
}

// Registry creates, deletes and looks up modules in a state container.
type Registry struct {
	state *state.Container
}

// New creates a registry over c.
func New(c *state.Container) *Registry {
	return &Registry{state: c}
}

// Create registers a new module. The slug is derived from name and made
// unique; fieldSpec is parsed with the field-spec mini-language and the
// default fields are used when it yields none. The module is prepended to
// the module list with an empty partition.
func (r *Registry) Create(ctx context.Context, name, fieldSpec string) (schema.ModuleSchema, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return schema.ModuleSchema{}, ErrNameRequired
	}

	fields := fieldspec.Parse(fieldSpec)
	if len(fields) == 0 {
		fields = schema.DefaultFields()
	}

	var created schema.ModuleSchema
	err := r.state.Update(ctx, func(st *state.AppState) error {
		taken := make(map[string]bool, len(st.CustomModules))
		for _, m := range st.CustomModules {
			taken[m.Slug] = true
		}

		created = schema.ModuleSchema{
			Slug:   UniqueSlug(schema.Slugify(name), taken),
			Name:   name,
			Fields: fields,
		}

		modules := make([]schema.ModuleSchema, 0, len(st.CustomModules)+1)
		modules = append(modules, created)
		st.CustomModules = append(modules, st.CustomModules...)
		st.CustomData[created.Slug] = []state.Record{}
		return nil
	})
	if err != nil {
		return schema.ModuleSchema{}, err
	}
	return created.Clone(), nil
}

// Delete removes the module and its partition. Unknown slugs are a no-op;
// removed reports whether anything was deleted.
func (r *Registry) Delete(ctx context.Context, slug string) (removed bool, err error) {
	err = r.state.Update(ctx, func(st *state.AppState) error {
		modules := make([]schema.ModuleSchema, 0, len(st.CustomModules))
		for _, m := range st.CustomModules {
			if m.Slug == slug {
				removed = true
				continue
			}
			modules = append(modules, m)
		}
		if !removed {
			return state.ErrUnchanged
		}
		st.CustomModules = modules
		delete(st.CustomData, slug)
		return nil
	})
	return removed, err
}

// Get returns the module registered under slug.
func (r *Registry) Get(slug string) (schema.ModuleSchema, bool) {
	var (
		m  schema.ModuleSchema
		ok bool
	)
	r.state.View(func(st *state.AppState) {
		m, ok = st.Module(slug)
		if ok {
			m = m.Clone()
		}
	})
	return m, ok
}

// Exists reports whether slug is a registered module.
func (r *Registry) Exists(slug string) bool {
	_, ok := r.Get(slug)
	return ok
}

// List returns every module, newest first.
func (r *Registry) List() []schema.ModuleSchema {
	var out []schema.ModuleSchema
	r.state.View(func(st *state.AppState) {
		out = make([]schema.ModuleSchema, len(st.CustomModules))
		for i, m := range st.CustomModules {
			out[i] = m.Clone()
		}
	})
	return out
}

// Count returns the number of registered modules.
func (r *Registry) Count() int {
	var n int
	r.state.View(func(st *state.AppState) {
		n = len(st.CustomModules)
	})
	return n
}

// UniqueSlug returns base if it is neither taken nor reserved, otherwise
// the first free base-2, base-3, ...
func UniqueSlug(base string, taken map[string]bool) string {
	if !taken[base] && !reserved[base] {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if !taken[candidate] && !reserved[candidate] {
			return candidate
		}
	}
}
