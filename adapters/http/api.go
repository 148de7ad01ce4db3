package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/artpar/warsztat/core/confirm"
	"github.com/artpar/warsztat/core/router"
	"github.com/artpar/warsztat/core/runtime"
	"github.com/artpar/warsztat/core/schema"
	"github.com/artpar/warsztat/core/state"
	"github.com/artpar/warsztat/domain/settings"
)

// API serves the runtime under /api. Destructive operations answer 202
// with the pending confirmation; POST /api/confirmations/{id} settles it.
type API struct {
	rt     *runtime.Runtime
	logger zerolog.Logger
}

// NewAPI creates the API handler set.
func NewAPI(rt *runtime.Runtime, logger zerolog.Logger) *API {
	return &API{rt: rt, logger: logger}
}

// Router returns the API routes.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Route("/state", func(r chi.Router) {
		r.Get("/", a.exportState)
		r.Post("/import", a.importState)
		r.Post("/reset", a.resetState)
	})

	r.Route("/partitions", func(r chi.Router) {
		r.Get("/", a.listPartitions)
		r.Route("/{partition}", func(r chi.Router) {
			r.Get("/", a.getPartition)
			r.Get("/records", a.listRecords)
			r.Post("/records", a.createRecord)
			r.Get("/records/{id}", a.getRecord)
			r.Put("/records/{id}", a.updateRecord)
			r.Patch("/records/{id}", a.updateRecord)
			r.Delete("/records/{id}", a.deleteRecord)
		})
	})

	r.Route("/modules", func(r chi.Router) {
		r.Get("/", a.listModules)
		r.Post("/", a.createModule)
		r.Get("/{slug}", a.getModule)
		r.Delete("/{slug}", a.deleteModule)
	})

	r.Route("/confirmations", func(r chi.Router) {
		r.Get("/", a.currentConfirmation)
		r.Post("/{id}", a.resolveConfirmation)
	})

	r.Get("/search", a.search)
	r.Get("/route", a.currentRoute)
	r.Post("/route", a.navigate)
	r.Get("/dashboard", a.dashboard)
	r.Get("/reports", a.report)

	r.Route("/settings/theme", func(r chi.Router) {
		r.Get("/", a.getTheme)
		r.Put("/", a.setTheme)
		r.Post("/toggle", a.toggleTheme)
	})

	return r
}

func (a *API) exportState(w http.ResponseWriter, r *http.Request) {
	data, err := a.rt.Export()
	if err != nil {
		writeErr(w, a.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="warsztat-export.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (a *API) importState(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
		return
	}
	in, err := a.rt.ImportIntent(data)
	if err != nil {
		writeErr(w, a.logger, err)
		return
	}
	a.submit(w, in)
}

func (a *API) resetState(w http.ResponseWriter, r *http.Request) {
	a.submit(w, a.rt.ResetIntent())
}

func (a *API) submit(w http.ResponseWriter, in confirm.Intent) {
	p, err := a.rt.Submit(in)
	if err != nil {
		writeErr(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, p)
}

func (a *API) listPartitions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"partitions": a.rt.Partitions()})
}

// PartitionView is a schema with its select options resolved.
type PartitionView struct {
	Partition string                     `json:"partition"`
	Schema    schema.ModuleSchema        `json:"schema"`
	Options   map[string][]schema.Option `json:"options"`
}

func (a *API) getPartition(w http.ResponseWriter, r *http.Request) {
	p := chi.URLParam(r, "partition")
	m, err := a.rt.Schema(p)
	if err != nil {
		writeErr(w, a.logger, err)
		return
	}

	view := PartitionView{Partition: p, Schema: m, Options: map[string][]schema.Option{}}
	for _, f := range m.Fields {
		if f.Type != schema.FieldSelect {
			continue
		}
		opts := a.rt.ResolveOptions(f)
		if opts == nil {
			opts = []schema.Option{}
		}
		view.Options[f.Key] = opts
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) listRecords(w http.ResponseWriter, r *http.Request) {
	recs, err := a.rt.Filter(chi.URLParam(r, "partition"), r.URL.Query().Get("q"))
	if err != nil {
		writeErr(w, a.logger, err)
		return
	}
	if recs == nil {
		recs = []state.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs, "total": len(recs)})
}

func (a *API) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := a.rt.Record(chi.URLParam(r, "partition"), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) createRecord(w http.ResponseWriter, r *http.Request) {
	var input map[string]any
	if !decodeBody(w, r, &input) {
		return
	}
	rec, err := a.rt.CreateRecord(r.Context(), chi.URLParam(r, "partition"), input)
	if err != nil {
		writeErr(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) updateRecord(w http.ResponseWriter, r *http.Request) {
	var input map[string]any
	if !decodeBody(w, r, &input) {
		return
	}
	rec, err := a.rt.UpdateRecord(r.Context(), chi.URLParam(r, "partition"), chi.URLParam(r, "id"), input)
	if err != nil {
		writeErr(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) deleteRecord(w http.ResponseWriter, r *http.Request) {
	in, err := a.rt.DeleteRecordIntent(chi.URLParam(r, "partition"), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, a.logger, err)
		return
	}
	a.submit(w, in)
}

func (a *API) listModules(w http.ResponseWriter, r *http.Request) {
	mods := a.rt.Modules()
	if mods == nil {
		mods = []schema.ModuleSchema{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"modules": mods})
}

// CreateModuleRequest is the body of POST /api/modules. Fields uses the
// "key:type:label:required" notation.
type CreateModuleRequest struct {
	Name   string `json:"name"`
	Fields string `json:"fields"`
}

func (a *API) createModule(w http.ResponseWriter, r *http.Request) {
	var req CreateModuleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := a.rt.CreateModule(r.Context(), req.Name, req.Fields)
	if err != nil {
		writeErr(w, a.logger, err)
		return
	}
	w.Header().Set("Location", "/api/modules/"+m.Slug)
	writeJSON(w, http.StatusCreated, m)
}

func (a *API) getModule(w http.ResponseWriter, r *http.Request) {
	m, ok := a.rt.Module(chi.URLParam(r, "slug"))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "module not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *API) deleteModule(w http.ResponseWriter, r *http.Request) {
	a.submit(w, a.rt.DeleteModuleIntent(chi.URLParam(r, "slug")))
}

func (a *API) currentConfirmation(w http.ResponseWriter, r *http.Request) {
	p, ok := a.rt.Pending()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"pending": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": p})
}

// ResolveRequest is the body of POST /api/confirmations/{id}.
type ResolveRequest struct {
	Confirm bool `json:"confirm"`
}

func (a *API) resolveConfirmation(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ran, err := a.rt.Resolve(r.Context(), chi.URLParam(r, "id"), req.Confirm)
	if err != nil && !errors.Is(err, confirm.ErrCancelled) {
		writeErr(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ran": ran, "route": a.rt.Route()})
}

func (a *API) search(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.rt.Search(r.URL.Query().Get("q")))
}

// RouteView is the active route with the navigation bar.
type RouteView struct {
	Route router.Route `json:"route"`
	Kind  string       `json:"kind"`
	Tabs  []router.Tab `json:"tabs"`
}

func (a *API) routeView() RouteView {
	route := a.rt.Route()
	return RouteView{Route: route, Kind: route.Kind.String(), Tabs: a.rt.Tabs()}
}

func (a *API) currentRoute(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.routeView())
}

// NavigateRequest is the body of POST /api/route.
type NavigateRequest struct {
	Fragment string `json:"fragment"`
}

func (a *API) navigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a.rt.Navigate(req.Fragment)
	writeJSON(w, http.StatusOK, a.routeView())
}

func (a *API) dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.rt.Dashboard())
}

func (a *API) report(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.rt.Report())
}

// ThemeView is the body of the theme endpoints.
type ThemeView struct {
	Theme settings.Theme `json:"theme"`
	Label string         `json:"label"`
}

func themeView(t settings.Theme) ThemeView {
	return ThemeView{Theme: t, Label: t.Label()}
}

func (a *API) getTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, themeView(a.rt.Theme()))
}

func (a *API) setTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeView
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := a.rt.SetTheme(r.Context(), req.Theme)
	if err != nil {
		writeErr(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, themeView(t))
}

func (a *API) toggleTheme(w http.ResponseWriter, r *http.Request) {
	t, err := a.rt.ToggleTheme(r.Context())
	if err != nil {
		writeErr(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, themeView(t))
}
