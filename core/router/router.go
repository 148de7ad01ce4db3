package router

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/artpar/warsztat/ports"
)

// Config configures a Router.
type Config struct {
	Modules  Modules
	Observer ports.Observer
	Logger   zerolog.Logger
}

// Router holds the active route.
type Router struct {
	mu       sync.RWMutex
	current  Route
	modules  Modules
	observer ports.Observer
	logger   zerolog.Logger
	onChange []func(Route)
}

// New creates a router positioned on the dashboard.
func New(cfg Config) *Router {
	if cfg.Observer == nil {
		cfg.Observer = ports.NopObserver{}
	}
	return &Router{
		current:  Resolve("", cfg.Modules),
		modules:  cfg.Modules,
		observer: cfg.Observer,
		logger:   cfg.Logger,
	}
}

// OnChange registers fn to be called after every transition.
func (r *Router) OnChange(fn func(Route)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, fn)
}

// Navigate transitions to fragment and returns the new route.
func (r *Router) Navigate(fragment string) Route {
	return r.transition(Resolve(fragment, r.modules))
}

// Refresh resolves the current fragment again, e.g. after the module it
// shows was deleted.
func (r *Router) Refresh() Route {
	return r.Navigate(r.Current().Fragment)
}

// Current returns the active route.
func (r *Router) Current() Route {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Router) transition(route Route) Route {
	r.mu.Lock()
	r.current = route
	callbacks := append([]func(Route){}, r.onChange...)
	r.mu.Unlock()

	r.observer.Navigated(route.Kind.String())
	r.logger.Debug().Str("fragment", route.Fragment).Str("kind", route.Kind.String()).Msg("navigated")

	for _, fn := range callbacks {
		fn(route)
	}
	return route
}

// Tab is one navigation entry.
type Tab struct {
	Label  string `json:"label"`
	Href   string `json:"href"`
	Custom bool   `json:"custom,omitempty"`
	Active bool   `json:"active"`
}

// ModuleTab names a module for the navigation bar.
type ModuleTab struct {
	Slug string
	Name string
}

// Tabs returns the navigation bar for route: the built-in pages with the
// modules inserted right after the module list page.
func Tabs(route Route, modules []ModuleTab) []Tab {
	active := route.Fragment
	mark := func(t Tab) Tab {
		t.Active = active == t.Href || len(active) > len(t.Href) && active[:len(t.Href)+1] == t.Href+"/"
		return t
	}

	out := make([]Tab, 0, len(named)+len(modules))
	for _, k := range named {
		if k == KindModule {
			continue
		}
		out = append(out, mark(Tab{Label: k.Label(), Href: Href(k)}))
		if k == KindModules {
			for _, m := range modules {
				out = append(out, mark(Tab{Label: m.Name, Href: ModuleHref(m.Slug), Custom: true}))
			}
		}
	}
	return out
}
