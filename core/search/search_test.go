package search

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/warsztat/core/schema"
	"github.com/artpar/warsztat/core/state"
)

func rec(id string, values map[string]any) state.Record {
	return state.Record{ID: id, CreatedAt: "2026-04-01T00:00:00.000Z", UpdatedAt: "2026-04-01T00:00:00.000Z", Values: values}
}

func fixture() *state.AppState {
	st := state.Initial(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	st.Clients = []state.Record{
		rec("c1", map[string]any{"name": "Jan Kowalski", "phone": "", "email": "jan@example.com", "city": "Opel City", "note": ""}),
		rec("c2", map[string]any{"name": "", "phone": "600100200", "email": "", "note": "stały klient"}),
	}
	st.Orders = []state.Record{
		rec("o1", map[string]any{"code": "ZL-1", "title": "Opel Astra hamulce", "status": "Nowe", "note": ""}),
	}
	st.Stock = []state.Record{
		rec("s1", map[string]any{"sku": "OPL-1", "name": "", "location": "A1", "note": "opel"}),
	}
	st.CustomModules = []schema.ModuleSchema{{
		Slug: "pojazdy",
		Name: "Pojazdy",
		Fields: []schema.FieldDescriptor{
			{Key: "vin", Label: "VIN", Type: schema.FieldText},
			{Key: "marka", Label: "Marka", Type: schema.FieldText},
		},
	}}
	st.CustomData["pojazdy"] = []state.Record{
		rec("p1", map[string]any{"vin": "W0L000", "marka": "Opel"}),
	}
	return &st
}

func TestRun_NoQuery(t *testing.T) {
	for _, term := range []string{"", "   "} {
		res := Run(fixture(), term)
		assert.Equal(t, StatusNoQuery, res.Status)
		assert.Empty(t, res.Hits)
		assert.Equal(t, 0, res.Total)
	}
}

func TestRun_NoMatches(t *testing.T) {
	res := Run(fixture(), "zzz")
	assert.Equal(t, StatusNoMatches, res.Status)
	assert.Empty(t, res.Hits)
	assert.NotNil(t, res.Hits)
}

func TestRun_OrderAndProjection(t *testing.T) {
	res := Run(fixture(), "  OPEL ")
	require.Equal(t, StatusMatched, res.Status)

	// clients.city is not part of the search projection, so c1 is absent.
	require.Len(t, res.Hits, 2)
	assert.Equal(t, Hit{
		EntityType: "Zlecenie", Title: "ZL-1", Subtitle: "Opel Astra hamulce",
		Target: "#/orders", Partition: "orders", RecordID: "o1",
	}, res.Hits[0])
	assert.Equal(t, Hit{
		EntityType: "Pojazdy", Title: "Rekord", Subtitle: "moduł: pojazdy",
		Target: "#/module/pojazdy", Partition: "pojazdy", RecordID: "p1",
	}, res.Hits[1])
}

func TestRun_Fallbacks(t *testing.T) {
	res := Run(fixture(), "600100200")
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "(bez nazwy)", res.Hits[0].Title)
	assert.Equal(t, "600100200", res.Hits[0].Subtitle)

	res = Run(fixture(), "OPL-1")
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "Magazyn", res.Hits[0].EntityType)
	assert.Equal(t, "(pozycja)", res.Hits[0].Title)
	assert.Equal(t, "OPL-1", res.Hits[0].Subtitle)

	res = Run(fixture(), "jan@")
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "jan@example.com", res.Hits[0].Subtitle, "email is used when phone is blank")
}

func TestRun_ModuleHitTaggedWithModuleName(t *testing.T) {
	res := Run(fixture(), "w0l")
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "Pojazdy", res.Hits[0].EntityType)
}

func TestRun_CapAfterAggregation(t *testing.T) {
	st := fixture()
	for i := 0; i < 15; i++ {
		st.Clients = append(st.Clients, rec(fmt.Sprintf("cx%d", i), map[string]any{"name": fmt.Sprintf("Wspólny %d", i)}))
	}
	for i := 0; i < 15; i++ {
		st.CustomData["pojazdy"] = append(st.CustomData["pojazdy"], rec(fmt.Sprintf("px%d", i), map[string]any{"vin": "wspólny", "marka": ""}))
	}

	res := Run(st, "wspólny")
	assert.Equal(t, 30, res.Total)
	require.Len(t, res.Hits, Limit)
	for i := 0; i < 15; i++ {
		assert.Equal(t, "Klient", res.Hits[i].EntityType)
	}
	for i := 15; i < Limit; i++ {
		assert.Equal(t, "Pojazdy", res.Hits[i].EntityType)
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "no_query", StatusNoQuery.String())
	assert.Equal(t, "matched", StatusMatched.String())
	assert.Equal(t, "no_matches", StatusNoMatches.String())
}
