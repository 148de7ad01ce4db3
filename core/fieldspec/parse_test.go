package fieldspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/warsztat/core/schema"
)

func TestParse_Pojazdy(t *testing.T) {
	fields := Parse("vin:text:VIN:true, marka:text:Marka:false")

	require.Len(t, fields, 2)
	assert.Equal(t, schema.FieldDescriptor{Key: "vin", Label: "VIN", Type: schema.FieldText, Required: true}, fields[0])
	assert.Equal(t, schema.FieldDescriptor{Key: "marka", Label: "Marka", Type: schema.FieldText}, fields[1])
}

func TestParse_FullExample(t *testing.T) {
	spec := "vin:text:VIN:true, marka:text:Marka:false, model:text:Model:false, rok:number:Rok:false, " +
		"status:select[Aktywny|W serwisie|Zakończony]:Status:false, notatka:textarea:Notatka:false"

	fields := Parse(spec)
	require.Len(t, fields, 6)

	assert.Equal(t, schema.FieldNumber, fields[3].Type)
	assert.Equal(t, schema.FieldSelect, fields[4].Type)
	assert.Equal(t, []schema.Option{
		{Value: "Aktywny", Label: "Aktywny"},
		{Value: "W serwisie", Label: "W serwisie"},
		{Value: "Zakończony", Label: "Zakończony"},
	}, fields[4].Options)
	assert.Equal(t, schema.FieldTextarea, fields[5].Type)
}

func TestParse_Entries(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want []schema.FieldDescriptor
	}{
		{
			name: "empty spec",
			spec: "",
			want: []schema.FieldDescriptor{},
		},
		{
			name: "key without type is discarded",
			spec: "vin, marka:text",
			want: []schema.FieldDescriptor{{Key: "marka", Label: "marka", Type: schema.FieldText}},
		},
		{
			name: "blank type defaults to text",
			spec: "vin:",
			want: []schema.FieldDescriptor{{Key: "vin", Label: "vin", Type: schema.FieldText}},
		},
		{
			name: "unknown type coerced to text",
			spec: "mail:email:E-mail",
			want: []schema.FieldDescriptor{{Key: "mail", Label: "E-mail", Type: schema.FieldText}},
		},
		{
			name: "type is case-insensitive",
			spec: "rok:Number",
			want: []schema.FieldDescriptor{{Key: "rok", Label: "rok", Type: schema.FieldNumber}},
		},
		{
			name: "label defaults to raw key",
			spec: "Rok Produkcji:number",
			want: []schema.FieldDescriptor{{Key: "rok_produkcji", Label: "Rok Produkcji", Type: schema.FieldNumber}},
		},
		{
			name: "required is case-insensitive",
			spec: "a:text:A:TRUE, b:text:B:yes",
			want: []schema.FieldDescriptor{
				{Key: "a", Label: "A", Type: schema.FieldText, Required: true},
				{Key: "b", Label: "B", Type: schema.FieldText},
			},
		},
		{
			name: "first duplicate key wins",
			spec: "a:text:First, A:number:Second",
			want: []schema.FieldDescriptor{{Key: "a", Label: "First", Type: schema.FieldText}},
		},
		{
			name: "reserved and empty keys are dropped",
			spec: "id:text, ???:text, ok:checkbox",
			want: []schema.FieldDescriptor{{Key: "ok", Label: "ok", Type: schema.FieldCheckbox}},
		},
		{
			name: "colon inside label",
			spec: "start:text:Czas: start:true",
			want: []schema.FieldDescriptor{{Key: "start", Label: "Czas:start", Type: schema.FieldText, Required: true}},
		},
		{
			name: "select options may contain commas and colons",
			spec: "kolor:select[Czarny, mat|Biały: połysk]:Kolor",
			want: []schema.FieldDescriptor{{
				Key:   "kolor",
				Label: "Kolor",
				Type:  schema.FieldSelect,
				Options: []schema.Option{
					{Value: "Czarny, mat", Label: "Czarny, mat"},
					{Value: "Biały: połysk", Label: "Biały: połysk"},
				},
			}},
		},
		{
			name: "duplicate and blank select options",
			spec: "s:select[A| |A|B]",
			want: []schema.FieldDescriptor{{
				Key:     "s",
				Label:   "s",
				Type:    schema.FieldSelect,
				Options: []schema.Option{{Value: "A", Label: "A"}, {Value: "B", Label: "B"}},
			}},
		},
		{
			name: "bare select has an empty option list",
			spec: "s:select",
			want: []schema.FieldDescriptor{{Key: "s", Label: "s", Type: schema.FieldSelect, Options: []schema.Option{}}},
		},
		{
			name: "empty brackets are not a select",
			spec: "s:select[]",
			want: []schema.FieldDescriptor{{Key: "s", Label: "s", Type: schema.FieldText}},
		},
		{
			name: "unclosed bracket keeps the following fields",
			spec: "status:select[Nowe|Gotowe:Status, vin:text:VIN:true, rok:number:Rok",
			want: []schema.FieldDescriptor{
				{Key: "status", Label: "Status", Type: schema.FieldText},
				{Key: "vin", Label: "VIN", Type: schema.FieldText, Required: true},
				{Key: "rok", Label: "Rok", Type: schema.FieldNumber},
			},
		},
		{
			name: "surplus closing brackets are trimmed",
			spec: "s:select[x,y]]:S, t:text",
			want: []schema.FieldDescriptor{
				{Key: "s", Label: "S", Type: schema.FieldSelect, Options: []schema.Option{{Value: "x,y", Label: "x,y"}}},
				{Key: "t", Label: "t", Type: schema.FieldText},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.spec))
		})
	}
}

func TestParse_Deterministic(t *testing.T) {
	specs := []string{
		"vin:text:VIN:true, marka:text:Marka:false",
		"a:select[x|y]:A:true,,, b:number",
		":::, x:y:z:w:v",
		"Ąę Śł:date:Data:true",
	}

	for _, spec := range specs {
		first := Parse(spec)
		second := Parse(spec)
		assert.Equal(t, first, second, "spec %q", spec)

		seen := map[string]bool{}
		for _, f := range first {
			assert.True(t, schema.IsValidKey(f.Key), "key %q", f.Key)
			assert.False(t, seen[f.Key], "duplicate key %q", f.Key)
			seen[f.Key] = true
			assert.Equal(t, f.Type == schema.FieldSelect, f.Options != nil, "options iff select for %q", f.Key)
		}
	}
}
