package runtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/warsztat/adapters/clock"
	"github.com/artpar/warsztat/adapters/idgen"
	"github.com/artpar/warsztat/adapters/memory"
	"github.com/artpar/warsztat/core/confirm"
	"github.com/artpar/warsztat/core/events"
	"github.com/artpar/warsztat/core/registry"
	"github.com/artpar/warsztat/core/router"
	"github.com/artpar/warsztat/core/schema"
	"github.com/artpar/warsztat/core/search"
	"github.com/artpar/warsztat/core/state"
	"github.com/artpar/warsztat/core/validation"
	"github.com/artpar/warsztat/domain/settings"
)

type mutation struct {
	op, partition string
	failed        bool
}

type recordingObserver struct {
	mu        sync.Mutex
	mutations []mutation
	persisted int
	searches  []string
	routes    []string
}

func (o *recordingObserver) Mutation(op, partition string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mutations = append(o.mutations, mutation{op, partition, err != nil})
}

func (o *recordingObserver) Persisted(time.Duration, int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.persisted++
}

func (o *recordingObserver) Searched(status string, hits int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.searches = append(o.searches, status)
}

func (o *recordingObserver) Navigated(route string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.routes = append(o.routes, route)
}

func newRuntime(t *testing.T, store *memory.DocumentStore, persist bool) (*Runtime, *recordingObserver) {
	t.Helper()
	obs := &recordingObserver{}
	rt, err := New(context.Background(), Config{
		Store:        store,
		ThemePersist: persist,
		Clock:        clock.NewStepping(time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC), time.Millisecond),
		IDs:          idgen.NewSequential("id"),
		Observer:     obs,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	return rt, obs
}

func TestNew_RequiresStoreAndIDs(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, state.ErrNoStore)

	_, err = New(context.Background(), Config{Store: memory.NewDocumentStore()})
	assert.Error(t, err)
}

func TestCreateModule_NavigatesAndEmits(t *testing.T) {
	ctx := context.Background()
	rt, obs := newRuntime(t, memory.NewDocumentStore(), false)

	var got []events.Event
	rt.Events().Subscribe("module.*", func(_ context.Context, e events.Event) error {
		got = append(got, e)
		return nil
	})

	m, err := rt.CreateModule(ctx, "Pojazdy", "vin:text:VIN:true, marka:text:Marka:false")
	require.NoError(t, err)
	assert.Equal(t, "pojazdy", m.Slug)

	route := rt.Route()
	assert.Equal(t, router.KindModule, route.Kind)
	assert.Equal(t, "pojazdy", route.Module)

	require.Len(t, got, 1)
	assert.Equal(t, events.ModuleCreated, got[0].Name)
	assert.Equal(t, "pojazdy", got[0].Partition)
	assert.Contains(t, obs.mutations, mutation{OpModuleCreate, "pojazdy", false})

	_, err = rt.CreateModule(ctx, " ", "")
	assert.ErrorIs(t, err, registry.ErrNameRequired)
}

func TestRecords_CRUDThroughRuntime(t *testing.T) {
	ctx := context.Background()
	rt, obs := newRuntime(t, memory.NewDocumentStore(), false)

	rec, err := rt.CreateRecord(ctx, schema.PartitionClients, map[string]any{"name": "Jan", "phone": "600"})
	require.NoError(t, err)

	_, err = rt.CreateRecord(ctx, schema.PartitionClients, map[string]any{"name": ""})
	assert.ErrorIs(t, err, validation.ErrValidation)

	list, err := rt.Records(schema.PartitionClients)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	updated, err := rt.UpdateRecord(ctx, schema.PartitionClients, rec.ID, map[string]any{"city": "Radom"})
	require.NoError(t, err)
	assert.Equal(t, "Radom", updated.Get("city"))
	assert.Equal(t, rec.CreatedAt, updated.CreatedAt)

	filtered, err := rt.Filter(schema.PartitionClients, "radom")
	require.NoError(t, err)
	assert.Len(t, filtered, 1)

	assert.Equal(t, []mutation{
		{OpCreate, schema.PartitionClients, false},
		{OpCreate, schema.PartitionClients, true},
		{OpUpdate, schema.PartitionClients, false},
	}, obs.mutations)
}

func TestDeleteRecord_RequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	rt, _ := newRuntime(t, memory.NewDocumentStore(), false)

	rec, err := rt.CreateRecord(ctx, schema.PartitionStock, map[string]any{"sku": "OIL", "name": "Olej", "qty": 3})
	require.NoError(t, err)

	in, err := rt.DeleteRecordIntent(schema.PartitionStock, rec.ID)
	require.NoError(t, err)
	assert.True(t, in.Prompt.Danger)

	assert.ErrorIs(t, rt.Confirm(ctx, confirm.AlwaysCancel, in), confirm.ErrCancelled)
	list, _ := rt.Records(schema.PartitionStock)
	assert.Len(t, list, 1, "cancelled delete has no effect")

	require.NoError(t, rt.Confirm(ctx, confirm.AlwaysConfirm, in))
	list, _ = rt.Records(schema.PartitionStock)
	assert.Empty(t, list)

	// Deleting again is a silent no-op.
	require.NoError(t, rt.Confirm(ctx, confirm.AlwaysConfirm, in))

	_, err = rt.DeleteRecordIntent("nope", "x")
	assert.Error(t, err)
}

func TestDeleteModule_RefreshesRoute(t *testing.T) {
	ctx := context.Background()
	rt, _ := newRuntime(t, memory.NewDocumentStore(), false)

	m, err := rt.CreateModule(ctx, "Pojazdy", "vin:text:VIN:true")
	require.NoError(t, err)
	_, err = rt.CreateRecord(ctx, m.Slug, map[string]any{"vin": "W0L"})
	require.NoError(t, err)

	in := rt.DeleteModuleIntent(m.Slug)
	assert.Contains(t, in.Prompt.Body, "Pojazdy")
	require.NoError(t, rt.Confirm(ctx, confirm.AlwaysConfirm, in))

	_, ok := rt.Module(m.Slug)
	assert.False(t, ok)
	_, err = rt.Records(m.Slug)
	assert.Error(t, err)
	assert.Equal(t, router.KindModuleNotFound, rt.Route().Kind)

	// Unknown slug is a no-op.
	require.NoError(t, rt.Confirm(ctx, confirm.AlwaysConfirm, rt.DeleteModuleIntent("brak")))
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	rt, _ := newRuntime(t, memory.NewDocumentStore(), false)

	_, err := rt.CreateModule(ctx, "Pojazdy", "vin:text:VIN:true, rok:number:Rok, ok:checkbox")
	require.NoError(t, err)
	_, err = rt.CreateRecord(ctx, "pojazdy", map[string]any{"vin": "W0L", "rok": "2019", "ok": "on"})
	require.NoError(t, err)
	_, err = rt.CreateRecord(ctx, schema.PartitionOrders, map[string]any{"code": "ZL-1", "title": "Hamulce", "status": "Nowe", "amount": "120,5"})
	require.NoError(t, err)

	before := rt.State().Snapshot()
	doc, err := rt.Export()
	require.NoError(t, err)

	_, err = rt.CreateRecord(ctx, schema.PartitionClients, map[string]any{"name": "Intruz"})
	require.NoError(t, err)

	in, err := rt.ImportIntent(doc)
	require.NoError(t, err)
	require.NoError(t, rt.Confirm(ctx, confirm.AlwaysConfirm, in))

	assert.Equal(t, before, rt.State().Snapshot())
}

func TestImport_Malformed(t *testing.T) {
	rt, _ := newRuntime(t, memory.NewDocumentStore(), false)

	for _, doc := range []string{"", "   ", "not json", `{"clients":`} {
		_, err := rt.ImportIntent([]byte(doc))
		assert.ErrorIs(t, err, state.ErrMalformedInput, "doc %q", doc)
	}
	_, pending := rt.Pending()
	assert.False(t, pending)

	// Valid JSON of the wrong shape imports as an empty state.
	_, err := rt.ImportIntent([]byte("[1,2]"))
	assert.NoError(t, err)
}

func TestImport_DefaultsMissingParts(t *testing.T) {
	ctx := context.Background()
	rt, _ := newRuntime(t, memory.NewDocumentStore(), false)

	in, err := rt.ImportIntent([]byte(`{"clients":[{"id":"c1","name":"Jan"}]}`))
	require.NoError(t, err)
	require.NoError(t, rt.Confirm(ctx, confirm.AlwaysConfirm, in))

	assert.Empty(t, rt.Modules())
	clients, _ := rt.Records(schema.PartitionClients)
	require.Len(t, clients, 1)
	assert.Equal(t, "Jan", clients[0].Get("name"))
}

func TestAsyncConfirmation(t *testing.T) {
	ctx := context.Background()
	rt, _ := newRuntime(t, memory.NewDocumentStore(), false)
	_, err := rt.CreateRecord(ctx, schema.PartitionClients, map[string]any{"name": "Jan"})
	require.NoError(t, err)

	p, err := rt.Submit(rt.ResetIntent())
	require.NoError(t, err)

	_, err = rt.Submit(rt.ResetIntent())
	assert.ErrorIs(t, err, confirm.ErrPending)

	cur, ok := rt.Pending()
	require.True(t, ok)
	assert.Equal(t, ActionReset, cur.Action)

	clients, _ := rt.Records(schema.PartitionClients)
	assert.Len(t, clients, 1, "nothing runs before the decision")

	ran, err := rt.Resolve(ctx, p.ID, true)
	require.NoError(t, err)
	assert.True(t, ran)

	clients, _ = rt.Records(schema.PartitionClients)
	assert.Empty(t, clients)
}

func TestReset_KeepsThemeAndGoesHome(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	rt, _ := newRuntime(t, store, true)

	_, err := rt.SetTheme(ctx, settings.ThemeDark)
	require.NoError(t, err)
	_, err = rt.CreateModule(ctx, "Pojazdy", "")
	require.NoError(t, err)

	require.NoError(t, rt.Confirm(ctx, confirm.AlwaysConfirm, rt.ResetIntent()))

	assert.Empty(t, rt.Modules())
	assert.Equal(t, router.KindDashboard, rt.Route().Kind)
	assert.Equal(t, settings.ThemeDark, rt.Theme())

	again, _ := newRuntime(t, store, true)
	assert.Equal(t, settings.ThemeDark, again.Theme())
}

func TestTheme_NotPersisted(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	rt, _ := newRuntime(t, store, false)

	got, err := rt.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.ThemeDark, got)

	_, found, _ := store.Get(ctx, settings.ThemeKey)
	assert.False(t, found)

	again, _ := newRuntime(t, store, false)
	assert.Equal(t, settings.ThemeLight, again.Theme())
}

func TestToggleTheme_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	rt, _ := newRuntime(t, store, true)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rt.ToggleTheme(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// An even number of toggles lands back on the starting theme.
	assert.Equal(t, settings.ThemeLight, rt.Theme())
	data, found, err := store.Get(ctx, settings.ThemeKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, string(settings.ThemeLight), string(data))
}

func TestPersistFailure_LeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	rt, obs := newRuntime(t, store, true)

	store.FailPut = errors.New("quota exceeded")
	_, err := rt.CreateRecord(ctx, schema.PartitionClients, map[string]any{"name": "Jan"})
	assert.Error(t, err)
	_, err = rt.SetTheme(ctx, settings.ThemeDark)
	assert.Error(t, err)

	clients, _ := rt.Records(schema.PartitionClients)
	assert.Empty(t, clients)
	assert.Equal(t, settings.ThemeLight, rt.Theme())
	assert.Contains(t, obs.mutations, mutation{OpCreate, schema.PartitionClients, true})
}

func TestReopenSeesPersistedData(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	rt, _ := newRuntime(t, store, false)

	_, err := rt.CreateModule(ctx, "Pojazdy", "vin:text:VIN:true")
	require.NoError(t, err)
	_, err = rt.CreateRecord(ctx, "pojazdy", map[string]any{"vin": "W0L"})
	require.NoError(t, err)

	again, _ := newRuntime(t, store, false)
	recs, err := again.Records("pojazdy")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestSearchAndNavigationObserved(t *testing.T) {
	ctx := context.Background()
	rt, obs := newRuntime(t, memory.NewDocumentStore(), false)
	_, err := rt.CreateRecord(ctx, schema.PartitionClients, map[string]any{"name": "Jan"})
	require.NoError(t, err)

	assert.Equal(t, search.StatusNoQuery, rt.Search("").Status)
	assert.Equal(t, search.StatusMatched, rt.Search("jan").Status)
	assert.Equal(t, []string{"no_query", "matched"}, obs.searches)

	var fragments []string
	rt.Events().Subscribe(events.RouteChanged, func(_ context.Context, e events.Event) error {
		fragments = append(fragments, e.Data["fragment"].(string))
		return nil
	})
	rt.Navigate("#/orders")
	rt.Navigate("#/nope")
	assert.Equal(t, []string{"#/orders", "#/nope"}, fragments)
	assert.Equal(t, []string{"orders", "unknown"}, obs.routes)
}

func TestPartitionsAndDashboard(t *testing.T) {
	ctx := context.Background()
	rt, _ := newRuntime(t, memory.NewDocumentStore(), false)
	_, err := rt.CreateModule(ctx, "Pojazdy", "")
	require.NoError(t, err)
	_, err = rt.CreateRecord(ctx, schema.PartitionInvoices, map[string]any{"number": "FV/1", "status": "Wystawiona", "amount": "99,99"})
	require.NoError(t, err)

	parts := rt.Partitions()
	require.Len(t, parts, 5)
	assert.Equal(t, PartitionInfo{Partition: "invoices", Name: "Faktury", BuiltIn: true, Count: 1}, parts[2])
	assert.Equal(t, PartitionInfo{Partition: "pojazdy", Name: "Pojazdy", Count: 0}, parts[4])

	d := rt.Dashboard()
	assert.Equal(t, 1, d.Counts.Modules)
	assert.InDelta(t, 99.99, d.Totals.Invoices, 1e-9)
	assert.InDelta(t, 99.99, rt.Report().Totals.Invoices, 1e-9)

	tabs := rt.Tabs()
	assert.Len(t, tabs, 9)
}
