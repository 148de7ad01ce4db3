// Package router maps URL fragments shaped #/<route>[/<p1>[/<p2>]] to
// pages. Resolve is a pure function; Router keeps the current route and
// performs one synchronous transition per navigation.
package router

import (
	"net/url"
	"strings"
)

// Kind is the closed set of route states.
type Kind uint8

const (
	KindDashboard Kind = iota
	KindClients
	KindOrders
	KindInvoices
	KindStock
	KindReports
	KindModules
	KindSettings
	KindModule
	KindModuleNotFound
	KindUnknown
)

// Named route kinds in navigation order.
var named = []Kind{
	KindDashboard,
	KindClients,
	KindOrders,
	KindInvoices,
	KindStock,
	KindReports,
	KindModules,
	KindSettings,
	KindModule,
}

// String returns the fragment name of the route.
func (k Kind) String() string {
	switch k {
	case KindDashboard:
		return "dashboard"
	case KindClients:
		return "clients"
	case KindOrders:
		return "orders"
	case KindInvoices:
		return "invoices"
	case KindStock:
		return "stock"
	case KindReports:
		return "reports"
	case KindModules:
		return "modules"
	case KindSettings:
		return "settings"
	case KindModule:
		return "module"
	case KindModuleNotFound:
		return "module-not-found"
	case KindUnknown:
		return "unknown"
	}
	return "unknown"
}

// Label returns the navigation label of the route.
func (k Kind) Label() string {
	switch k {
	case KindDashboard:
		return "Pulpit"
	case KindClients:
		return "Klienci"
	case KindOrders:
		return "Zlecenia"
	case KindInvoices:
		return "Faktury"
	case KindStock:
		return "Magazyn"
	case KindReports:
		return "Raporty"
	case KindModules:
		return "Moduły"
	case KindSettings:
		return "Ustawienia"
	case KindModule:
		return "Moduł"
	case KindModuleNotFound:
		return "Nie znaleziono modułu"
	case KindUnknown:
		return "Nie znaleziono strony"
	}
	return ""
}

// NotFound reports whether the route is one of the terminal not-found
// states.
func (k Kind) NotFound() bool {
	return k == KindModuleNotFound || k == KindUnknown
}

// Partition returns the record partition shown by the route, if any.
func (k Kind) Partition() (string, bool) {
	switch k {
	case KindClients, KindOrders, KindInvoices, KindStock:
		return k.String(), true
	}
	return "", false
}

// ParseKind returns the named route kind for a fragment route name.
func ParseKind(name string) (Kind, bool) {
	for _, k := range named {
		if k.String() == name {
			return k, true
		}
	}
	return KindUnknown, false
}

// Route is the result of resolving a fragment.
type Route struct {
	Kind Kind `json:"-"`

	// Name is the route segment as it appeared in the fragment.
	Name   string   `json:"name"`
	Params []string `json:"params"`

	// Module is the slug of the active module for KindModule and the
	// requested slug for KindModuleNotFound.
	Module string `json:"module,omitempty"`

	// Fragment is the canonical fragment of the route.
	Fragment string `json:"fragment"`
}

// Param returns the i-th parameter or "".
func (r Route) Param(i int) string {
	if i < 0 || i >= len(r.Params) {
		return ""
	}
	return r.Params[i]
}

// Modules reports whether a module slug is registered.
type Modules interface {
	Exists(slug string) bool
}

// ModulesFunc adapts a function to Modules.
type ModulesFunc func(slug string) bool

// Exists calls f.
func (f ModulesFunc) Exists(slug string) bool { return f(slug) }

// Resolve maps a fragment to its route. An absent fragment ("", "#", "#/")
// is the dashboard. Resolve never fails: unknown names give KindUnknown and
// a module route whose slug is not registered gives KindModuleNotFound.
func Resolve(fragment string, modules Modules) Route {
	name, params := split(fragment)
	if name == "" {
		return Route{Kind: KindDashboard, Name: KindDashboard.String(), Params: []string{}, Fragment: Href(KindDashboard)}
	}

	route := Route{Name: name, Params: params, Fragment: join(name, params)}

	kind, ok := ParseKind(name)
	if !ok {
		route.Kind = KindUnknown
		return route
	}
	route.Kind = kind

	if kind == KindModule {
		slug := route.Param(0)
		route.Module = slug
		if slug == "" || modules == nil || !modules.Exists(slug) {
			route.Kind = KindModuleNotFound
		}
	}
	return route
}

// Href returns the fragment addressing kind with params.
func Href(kind Kind, params ...string) string {
	if kind == KindModuleNotFound {
		kind = KindModule
	}
	return join(kind.String(), params)
}

// ModuleHref returns the fragment of a module page.
func ModuleHref(slug string) string {
	return Href(KindModule, slug)
}

func split(fragment string) (string, []string) {
	f := strings.TrimSpace(fragment)
	f = strings.TrimPrefix(f, "#")
	f = strings.TrimPrefix(f, "/")

	parts := strings.Split(f, "/")
	for i, p := range parts {
		if v, err := url.PathUnescape(p); err == nil {
			parts[i] = v
		}
	}
	for len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts[0], parts[1:]
}

func join(name string, params []string) string {
	var b strings.Builder
	b.WriteString("#/")
	b.WriteString(url.PathEscape(name))
	for _, p := range params {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}
