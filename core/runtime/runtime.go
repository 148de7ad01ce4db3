// Package runtime wires the core components around one state container and
// is the single entry point for presentation layers. Every mutation runs
// to completion, including its flush to the document store, before the
// call returns; destructive ones go through the confirmation gate.
package runtime

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artpar/warsztat/core/confirm"
	"github.com/artpar/warsztat/core/events"
	"github.com/artpar/warsztat/core/records"
	"github.com/artpar/warsztat/core/registry"
	"github.com/artpar/warsztat/core/reports"
	"github.com/artpar/warsztat/core/router"
	"github.com/artpar/warsztat/core/schema"
	"github.com/artpar/warsztat/core/search"
	"github.com/artpar/warsztat/core/state"
	"github.com/artpar/warsztat/domain/settings"
	"github.com/artpar/warsztat/ports"
)

// Mutation names reported to the observer.
const (
	OpCreate       = "create"
	OpUpdate       = "update"
	OpDelete       = "delete"
	OpModuleCreate = "module.create"
	OpModuleDelete = "module.delete"
	OpImport       = "import"
	OpReset        = "reset"
	OpTheme        = "theme"
)

// Config configures a Runtime.
type Config struct {
	// Store persists the state document and, when ThemePersist is set,
	// the theme.
	Store ports.DocumentStore

	// StateKey defaults to state.DefaultKey.
	StateKey string

	ThemePersist bool
	DefaultTheme settings.Theme

	Clock    ports.Clock
	IDs      ports.IDGenerator
	Observer ports.Observer
	Logger   zerolog.Logger
}

// Runtime is the application core.
type Runtime struct {
	state    *state.Container
	records  *records.Store
	registry *registry.Registry
	search   *search.Index
	router   *router.Router
	gate     *confirm.Gate
	events   *events.Bus

	store    ports.DocumentStore
	observer ports.Observer
	logger   zerolog.Logger

	mu           sync.RWMutex
	theme        settings.Theme
	themePersist bool
}

// New loads the state from cfg.Store and assembles the components.
func New(ctx context.Context, cfg Config) (*Runtime, error) {
	if cfg.Store == nil {
		return nil, state.ErrNoStore
	}
	if cfg.IDs == nil {
		return nil, errors.New("runtime: id generator is required")
	}
	if cfg.Observer == nil {
		cfg.Observer = ports.NopObserver{}
	}
	if !cfg.DefaultTheme.Valid() {
		cfg.DefaultTheme = settings.DefaultTheme
	}

	c, err := state.Open(ctx, state.Config{
		Store:    cfg.Store,
		Key:      cfg.StateKey,
		Clock:    cfg.Clock,
		IDs:      cfg.IDs,
		Observer: cfg.Observer,
		Logger:   cfg.Logger.With().Str("component", "state").Logger(),
	})
	if err != nil {
		return nil, err
	}

	reg := registry.New(c)
	rt := &Runtime{
		state:    c,
		records:  records.New(c),
		registry: reg,
		search:   search.New(c, cfg.Observer),
		router: router.New(router.Config{
			Modules:  reg,
			Observer: cfg.Observer,
			Logger:   cfg.Logger.With().Str("component", "router").Logger(),
		}),
		gate:         confirm.NewGate(nil),
		events:       events.NewBus(cfg.Logger.With().Str("component", "events").Logger()),
		store:        cfg.Store,
		observer:     cfg.Observer,
		logger:       cfg.Logger,
		theme:        cfg.DefaultTheme,
		themePersist: cfg.ThemePersist,
	}

	rt.router.OnChange(func(r router.Route) {
		rt.events.Publish(context.Background(), events.Event{
			Name: events.RouteChanged,
			Data: map[string]any{"fragment": r.Fragment, "kind": r.Kind.String()},
		})
	})

	if err := rt.loadTheme(ctx); err != nil {
		return nil, err
	}
	return rt, nil
}

// Events returns the event bus.
func (rt *Runtime) Events() *events.Bus { return rt.events }

// State returns the state container.
func (rt *Runtime) State() *state.Container { return rt.state }

// Close releases the document store.
func (rt *Runtime) Close() error {
	return rt.store.Close()
}

// PartitionInfo summarizes one partition.
type PartitionInfo struct {
	Partition string `json:"partition"`
	Name      string `json:"name"`
	BuiltIn   bool   `json:"builtIn"`
	Count     int    `json:"count"`
}

// Partitions lists the built-in partitions followed by the modules.
func (rt *Runtime) Partitions() []PartitionInfo {
	var out []PartitionInfo
	rt.state.View(func(st *state.AppState) {
		for _, b := range schema.BuiltIns() {
			recs, _ := st.Partition(b.Partition)
			out = append(out, PartitionInfo{Partition: b.Partition, Name: b.Name, BuiltIn: true, Count: len(recs)})
		}
		for _, m := range st.CustomModules {
			out = append(out, PartitionInfo{Partition: m.Slug, Name: m.Name, Count: len(st.CustomData[m.Slug])})
		}
	})
	return out
}

// Schema returns the schema of a partition.
func (rt *Runtime) Schema(partition string) (schema.ModuleSchema, error) {
	return rt.records.Schema(partition)
}

// ResolveOptions returns the concrete choices of a select field.
func (rt *Runtime) ResolveOptions(f schema.FieldDescriptor) []schema.Option {
	return rt.records.ResolveOptions(f)
}

// CreateModule registers a module and navigates to its page.
func (rt *Runtime) CreateModule(ctx context.Context, name, fieldSpec string) (schema.ModuleSchema, error) {
	m, err := rt.registry.Create(ctx, name, fieldSpec)
	rt.observer.Mutation(OpModuleCreate, m.Slug, err)
	if err != nil {
		return schema.ModuleSchema{}, err
	}

	rt.logger.Debug().Str("slug", m.Slug).Int("fields", len(m.Fields)).Msg("module created")
	rt.events.Publish(ctx, events.Event{Name: events.ModuleCreated, Partition: m.Slug, Data: map[string]any{"name": m.Name}})
	rt.router.Navigate(router.ModuleHref(m.Slug))
	return m, nil
}

// Modules lists the registered modules, newest first.
func (rt *Runtime) Modules() []schema.ModuleSchema {
	return rt.registry.List()
}

// Module returns one module.
func (rt *Runtime) Module(slug string) (schema.ModuleSchema, bool) {
	return rt.registry.Get(slug)
}

// CreateRecord validates input and prepends a record to partition.
func (rt *Runtime) CreateRecord(ctx context.Context, partition string, input map[string]any) (state.Record, error) {
	rec, err := rt.records.Create(ctx, partition, input)
	rt.observer.Mutation(OpCreate, partition, err)
	if err != nil {
		return state.Record{}, err
	}

	rt.logger.Debug().Str("partition", partition).Str("id", rec.ID).Msg("record created")
	rt.events.Publish(ctx, events.Event{Name: events.RecordCreated, Partition: partition, ID: rec.ID, Data: rec.Values})
	return rec, nil
}

// UpdateRecord merges input into an existing record.
func (rt *Runtime) UpdateRecord(ctx context.Context, partition, id string, input map[string]any) (state.Record, error) {
	rec, err := rt.records.Update(ctx, partition, id, input)
	rt.observer.Mutation(OpUpdate, partition, err)
	if err != nil {
		return state.Record{}, err
	}

	rt.logger.Debug().Str("partition", partition).Str("id", id).Msg("record updated")
	rt.events.Publish(ctx, events.Event{Name: events.RecordUpdated, Partition: partition, ID: id, Data: rec.Values})
	return rec, nil
}

// Records lists a partition in stored order.
func (rt *Runtime) Records(partition string) ([]state.Record, error) {
	return rt.records.List(partition)
}

// Record returns one record.
func (rt *Runtime) Record(partition, id string) (state.Record, error) {
	return rt.records.Get(partition, id)
}

// Filter returns the records of partition matching the list filter.
func (rt *Runtime) Filter(partition, term string) ([]state.Record, error) {
	return rt.records.Filter(partition, term)
}

// Search runs the quick search.
func (rt *Runtime) Search(term string) search.Result {
	return rt.search.Search(term)
}

// Navigate transitions the router.
func (rt *Runtime) Navigate(fragment string) router.Route {
	return rt.router.Navigate(fragment)
}

// Route returns the active route.
func (rt *Runtime) Route() router.Route {
	return rt.router.Current()
}

// Tabs returns the navigation bar for the active route.
func (rt *Runtime) Tabs() []router.Tab {
	modules := rt.registry.List()
	tabs := make([]router.ModuleTab, len(modules))
	for i, m := range modules {
		tabs[i] = router.ModuleTab{Slug: m.Slug, Name: m.Name}
	}
	return router.Tabs(rt.router.Current(), tabs)
}

// Dashboard computes the dashboard summary.
func (rt *Runtime) Dashboard() reports.Dashboard {
	var d reports.Dashboard
	rt.state.View(func(st *state.AppState) {
		d = reports.BuildDashboard(st)
	})
	return d
}

// Report computes the reports page summary.
func (rt *Runtime) Report() reports.Report {
	var r reports.Report
	rt.state.View(func(st *state.AppState) {
		r = reports.BuildReport(st)
	})
	return r
}

// Export serializes the whole state.
func (rt *Runtime) Export() ([]byte, error) {
	return rt.state.Export()
}
