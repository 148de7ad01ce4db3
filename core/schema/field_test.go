package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseFieldType(t *testing.T) {
	for _, ft := range FieldTypes() {
		got, ok := ParseFieldType(ft.String())
		if !ok || got != ft {
			t.Errorf("ParseFieldType(%q) = %v, %v", ft.String(), got, ok)
		}
	}

	if got, ok := ParseFieldType("NUMBER"); !ok || got != FieldNumber {
		t.Errorf("ParseFieldType(NUMBER) = %v, %v; want number", got, ok)
	}
	if _, ok := ParseFieldType("email"); ok {
		t.Error("ParseFieldType(email) should not be recognized")
	}
}

func TestFieldType_JSON(t *testing.T) {
	f := FieldDescriptor{Key: "qty", Label: "Ilość", Type: FieldNumber, Required: true}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"key":"qty","label":"Ilość","type":"number","required":true}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var got FieldDescriptor
	if err := json.Unmarshal([]byte(`{"key":"x","type":"rating"}`), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Type != FieldText {
		t.Errorf("unknown type decoded as %v, want text", got.Type)
	}
}

func TestFieldType_Label(t *testing.T) {
	if FieldTextarea.Label() != "Długi tekst" {
		t.Errorf("FieldTextarea.Label() = %q", FieldTextarea.Label())
	}
	if FieldType(0).Valid() {
		t.Error("zero FieldType should not be valid")
	}
}

func TestOption_UnmarshalJSON(t *testing.T) {
	var opts []Option
	data := `["Nowe", {"value": "c1", "label": "Jan"}, {"value": "c2"}]`
	if err := json.Unmarshal([]byte(data), &opts); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := []Option{
		{Value: "Nowe", Label: "Nowe"},
		{Value: "c1", Label: "Jan"},
		{Value: "c2", Label: "c2"},
	}
	if len(opts) != len(want) {
		t.Fatalf("got %d options, want %d", len(opts), len(want))
	}
	for i := range want {
		if opts[i] != want[i] {
			t.Errorf("opts[%d] = %+v, want %+v", i, opts[i], want[i])
		}
	}
}

func TestSelectOptions(t *testing.T) {
	opts := SelectOptions("A", " B ", "", "A")
	if len(opts) != 2 {
		t.Fatalf("SelectOptions() len = %d, want 2", len(opts))
	}
	if opts[1].Value != "B" {
		t.Errorf("opts[1] = %+v, want trimmed B", opts[1])
	}
}

func TestModuleSchema_Normalize(t *testing.T) {
	m := ModuleSchema{
		Slug: "x",
		Name: "X",
		Fields: []FieldDescriptor{
			{Key: "a", Type: FieldText, Options: []Option{{Value: "z"}}},
			{Key: "a", Type: FieldNumber},
			{Key: "id", Type: FieldText},
			{Key: "", Type: FieldText},
			{Key: "s", Type: FieldSelect},
			{Key: "t"},
		},
	}

	got := m.Normalize()
	if len(got.Fields) != 3 {
		t.Fatalf("Normalize() kept %d fields, want 3", len(got.Fields))
	}
	if got.Fields[0].Options != nil {
		t.Error("text field should lose its options")
	}
	if got.Fields[0].Label != "a" {
		t.Errorf("empty label should default to key, got %q", got.Fields[0].Label)
	}
	if got.Fields[1].Options == nil {
		t.Error("select field should carry a non-nil option list")
	}
	if got.Fields[2].Type != FieldText {
		t.Errorf("invalid type should become text, got %v", got.Fields[2].Type)
	}

	empty := ModuleSchema{Slug: "e"}.Normalize()
	if len(empty.Fields) != 2 || empty.Fields[0].Key != "name" {
		t.Errorf("empty schema should get default fields, got %+v", empty.Fields)
	}
}

func TestBuiltIns(t *testing.T) {
	names := []string{PartitionClients, PartitionOrders, PartitionInvoices, PartitionStock}
	got := BuiltIns()
	if len(got) != len(names) {
		t.Fatalf("BuiltIns() len = %d, want %d", len(got), len(names))
	}
	for i, b := range got {
		if b.Partition != names[i] {
			t.Errorf("BuiltIns()[%d] = %s, want %s", i, b.Partition, names[i])
		}
		for _, f := range b.Fields {
			if !IsValidKey(strings.ToLower(f.Key)) {
				t.Errorf("%s.%s has an invalid key", b.Partition, f.Key)
			}
		}
	}

	orders, ok := LookupBuiltIn(PartitionOrders)
	if !ok {
		t.Fatal("LookupBuiltIn(orders) not found")
	}
	status, ok := orders.Schema().Field("status")
	if !ok || !status.Required || !status.HasOption("Gotowe") {
		t.Errorf("orders.status = %+v", status)
	}
	if IsBuiltIn("reports") {
		t.Error("reports is a route, not a partition")
	}
}
