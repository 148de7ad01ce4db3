package state_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/warsztat/adapters/clock"
	"github.com/artpar/warsztat/adapters/idgen"
	"github.com/artpar/warsztat/adapters/memory"
	"github.com/artpar/warsztat/core/schema"
	"github.com/artpar/warsztat/core/state"
)

var epoch = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func openContainer(t *testing.T, store *memory.DocumentStore) *state.Container {
	t.Helper()
	c, err := state.Open(context.Background(), state.Config{
		Store: store,
		Clock: clock.NewFake(epoch),
		IDs:   idgen.NewSequential("r"),
	})
	require.NoError(t, err)
	return c
}

func TestOpen_FreshState(t *testing.T) {
	store := memory.NewDocumentStore()
	c := openContainer(t, store)

	st := c.Snapshot()
	assert.Equal(t, state.Version, st.Meta.Version)
	assert.Equal(t, "2026-03-01T09:30:00.000Z", st.Meta.CreatedAt)
	assert.Empty(t, st.Clients)
	assert.NotNil(t, st.CustomModules)
	assert.NotNil(t, st.CustomData)

	_, ok, err := store.Get(context.Background(), state.DefaultKey)
	require.NoError(t, err)
	assert.True(t, ok, "Open should write the state back")
}

func TestOpen_RequiresStore(t *testing.T) {
	_, err := state.Open(context.Background(), state.Config{IDs: idgen.NewSequential("")})
	assert.ErrorIs(t, err, state.ErrNoStore)
}

func TestLoad_RepairsMissingMembers(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		modules int
		clients int
	}{
		{
			name:    "missing customModules",
			doc:     `{"meta":{"createdAt":"2025-01-01T00:00:00.000Z","version":1},"clients":[{"id":"c1","name":"Jan"}],"customData":{}}`,
			clients: 1,
		},
		{
			name:    "missing customData",
			doc:     `{"customModules":[{"slug":"auta","name":"Auta","fields":[{"key":"vin","label":"VIN","type":"text","required":true}]}]}`,
			modules: 1,
		},
		{
			name: "null members",
			doc:  `{"clients":null,"customModules":null,"customData":null}`,
		},
		{
			name:    "wrong member type",
			doc:     `{"clients":"oops","customModules":[{"slug":"x","name":"X","fields":[]}]}`,
			modules: 1,
		},
		{
			name: "not an object",
			doc:  `[1,2,3]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewDocumentStore()
			require.NoError(t, store.Put(context.Background(), state.DefaultKey, []byte(tt.doc)))

			st := openContainer(t, store).Snapshot()
			assert.Len(t, st.CustomModules, tt.modules)
			assert.Len(t, st.Clients, tt.clients)
			assert.NotNil(t, st.Orders)
			for _, m := range st.CustomModules {
				_, ok := st.CustomData[m.Slug]
				assert.True(t, ok, "module %s must have a partition", m.Slug)
				assert.NotEmpty(t, m.Fields)
			}
		})
	}
}

func TestLoad_MalformedDocument(t *testing.T) {
	store := memory.NewDocumentStore()
	require.NoError(t, store.Put(context.Background(), state.DefaultKey, []byte(`{not json`)))

	st := openContainer(t, store).Snapshot()
	assert.Empty(t, st.CustomModules)
	assert.Equal(t, state.Version, st.Meta.Version)
}

func TestLoad_PartitionBijection(t *testing.T) {
	doc := `{
		"customModules": [{"slug": "auta", "name": "Auta", "fields": [{"key": "vin", "type": "text"}]}],
		"customData": {"orphan": [{"id": "o1"}], "auta": [{"id": "a1", "vin": "X"}, "junk", {"vin": "Y"}]}
	}`
	store := memory.NewDocumentStore()
	require.NoError(t, store.Put(context.Background(), state.DefaultKey, []byte(doc)))

	st := openContainer(t, store).Snapshot()
	require.Len(t, st.CustomData, 1)

	recs := st.CustomData["auta"]
	require.Len(t, recs, 2, "malformed entries are dropped")
	assert.Equal(t, "a1", recs[0].ID)
	assert.Equal(t, "X", recs[0].Get("vin"))
	assert.NotEmpty(t, recs[1].ID, "records without id get one")
	assert.Equal(t, recs[1].CreatedAt, recs[1].UpdatedAt)
}

func TestUpdate_ErrorLeavesStateUntouched(t *testing.T) {
	c := openContainer(t, memory.NewDocumentStore())
	boom := errors.New("boom")

	err := c.Update(context.Background(), func(st *state.AppState) error {
		st.Clients = append(st.Clients, state.Record{ID: "x"})
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, c.Snapshot().Clients)
}

func TestUpdate_FlushFailureLeavesStateUntouched(t *testing.T) {
	store := memory.NewDocumentStore()
	c := openContainer(t, store)
	before, _, _ := store.Get(context.Background(), state.DefaultKey)

	store.FailPut = errors.New("disk full")
	err := c.Update(context.Background(), func(st *state.AppState) error {
		st.Clients = append(st.Clients, state.Record{ID: "x"})
		return nil
	})
	require.Error(t, err)
	assert.Empty(t, c.Snapshot().Clients)

	store.FailPut = nil
	after, _, _ := store.Get(context.Background(), state.DefaultKey)
	assert.Equal(t, before, after)
}

func TestUpdate_Persists(t *testing.T) {
	store := memory.NewDocumentStore()
	c := openContainer(t, store)

	require.NoError(t, c.Update(context.Background(), func(st *state.AppState) error {
		st.Clients = append(st.Clients, state.Record{ID: "c1", CreatedAt: "t", UpdatedAt: "t", Values: map[string]any{"name": "Jan"}})
		return nil
	}))

	reopened := openContainer(t, store).Snapshot()
	require.Len(t, reopened.Clients, 1)
	assert.Equal(t, "Jan", reopened.Clients[0].Text("name"))
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	c := openContainer(t, memory.NewDocumentStore())
	require.NoError(t, c.Update(context.Background(), func(st *state.AppState) error {
		st.Clients = []state.Record{{ID: "c1", Values: map[string]any{"name": "Jan"}}}
		return nil
	}))

	snap := c.Snapshot()
	snap.Clients[0].Values["name"] = "changed"

	c.View(func(st *state.AppState) {
		assert.Equal(t, "Jan", st.Clients[0].Values["name"])
	})
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openContainer(t, memory.NewDocumentStore())
	require.NoError(t, c.Update(ctx, func(st *state.AppState) error {
		st.Orders = []state.Record{{
			ID: "o1", CreatedAt: "2026-03-01T09:30:00.000Z", UpdatedAt: "2026-03-01T09:30:00.000Z",
			Values: map[string]any{"code": "ZL-1", "amount": 150.5, "status": "Nowe"},
		}}
		st.CustomModules = []schema.ModuleSchema{{
			Slug: "auta", Name: "Auta",
			Fields: []schema.FieldDescriptor{
				{Key: "vin", Label: "VIN", Type: schema.FieldText, Required: true},
				{Key: "stan", Label: "Stan", Type: schema.FieldSelect, Options: schema.SelectOptions("A", "B")},
				{Key: "ok", Label: "OK", Type: schema.FieldCheckbox},
			},
		}}
		st.CustomData = map[string][]state.Record{"auta": {{
			ID: "a1", CreatedAt: "x", UpdatedAt: "y", Values: map[string]any{"vin": "V1", "stan": "A", "ok": true},
		}}}
		return nil
	}))

	original := c.Snapshot()
	exported, err := c.Export()
	require.NoError(t, err)

	parsed, err := c.Parse(exported)
	require.NoError(t, err)
	require.NoError(t, c.Replace(ctx, parsed))

	assert.Equal(t, original, c.Snapshot())
}

func TestParse_Malformed(t *testing.T) {
	c := openContainer(t, memory.NewDocumentStore())

	for _, doc := range []string{"", "   ", "{", "nope"} {
		_, err := c.Parse([]byte(doc))
		assert.ErrorIs(t, err, state.ErrMalformedInput, "doc %q", doc)
	}
}

func TestParse_MergesOverInitial(t *testing.T) {
	c := openContainer(t, memory.NewDocumentStore())

	st, err := c.Parse([]byte(`{"stock":[{"id":"s1","sku":"OIL","qty":3}]}`))
	require.NoError(t, err)
	assert.Len(t, st.Stock, 1)
	assert.Empty(t, st.Clients)
	assert.Empty(t, st.CustomModules)
	assert.Equal(t, state.Version, st.Meta.Version)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	c := openContainer(t, memory.NewDocumentStore())
	require.NoError(t, c.Update(ctx, func(st *state.AppState) error {
		st.Clients = []state.Record{{ID: "c1"}}
		return nil
	}))

	require.NoError(t, c.Reset(ctx))
	assert.Empty(t, c.Snapshot().Clients)
}

func TestRecord_JSON(t *testing.T) {
	r := state.Record{ID: "1", CreatedAt: "a", UpdatedAt: "b", Values: map[string]any{"name": "Jan", "qty": 2.0}}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","createdAt":"a","updatedAt":"b","name":"Jan","qty":2}`, string(data))

	var back state.Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "1", back.ID)
	assert.Equal(t, map[string]any{"name": "Jan", "qty": 2.0}, back.Values)
}

func TestTextAndNumber(t *testing.T) {
	assert.Equal(t, "", state.Text(nil))
	assert.Equal(t, "12.5", state.Text(12.5))
	assert.Equal(t, "true", state.Text(true))

	assert.Equal(t, 12.5, state.Number("12,5"))
	assert.Equal(t, 0.0, state.Number(""))
	assert.Equal(t, 0.0, state.Number("abc"))
	assert.Equal(t, 0.0, state.Number("NaN"))
	assert.Equal(t, 3.0, state.Number(3.0))
}
