package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldType is the closed set of value kinds a field can hold.
type FieldType uint8

const (
	FieldText FieldType = iota + 1
	FieldNumber
	FieldDate
	FieldTextarea
	FieldSelect
	FieldCheckbox
)

// FieldTypes lists every field type in declaration order.
func FieldTypes() []FieldType {
	return []FieldType{FieldText, FieldNumber, FieldDate, FieldTextarea, FieldSelect, FieldCheckbox}
}

// String returns the wire name of the type.
func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "text"
	case FieldNumber:
		return "number"
	case FieldDate:
		return "date"
	case FieldTextarea:
		return "textarea"
	case FieldSelect:
		return "select"
	case FieldCheckbox:
		return "checkbox"
	}
	return fmt.Sprintf("FieldType(%d)", uint8(t))
}

// Label returns the display name used by the module builder.
func (t FieldType) Label() string {
	switch t {
	case FieldText:
		return "Tekst"
	case FieldNumber:
		return "Liczba"
	case FieldDate:
		return "Data"
	case FieldTextarea:
		return "Długi tekst"
	case FieldSelect:
		return "Lista (select)"
	case FieldCheckbox:
		return "Checkbox"
	}
	return t.String()
}

// Valid reports whether t is one of the declared types.
func (t FieldType) Valid() bool {
	return t >= FieldText && t <= FieldCheckbox
}

// ParseFieldType looks up a type by its wire name, case-insensitively.
func ParseFieldType(s string) (FieldType, bool) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range FieldTypes() {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (t FieldType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid field type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Unknown names decode as text, the same coercion the field-spec parser applies.
func (t *FieldType) UnmarshalText(b []byte) error {
	if ft, ok := ParseFieldType(string(b)); ok {
		*t = ft
		return nil
	}
	*t = FieldText
	return nil
}

// Option is one choice of a select field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// UnmarshalJSON accepts either {"value","label"} objects or bare scalars,
// which are used as both value and label.
func (o *Option) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*o = Option{Value: s, Label: s}
		return nil
	}

	type plain Option
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		var v any
		if err := json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("decode option: %w", err)
		}
		s := fmt.Sprint(v)
		*o = Option{Value: s, Label: s}
		return nil
	}
	if p.Label == "" {
		p.Label = p.Value
	}
	*o = Option(p)
	return nil
}

// FieldDescriptor describes one attribute of a record schema.
type FieldDescriptor struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`

	// Options is set iff Type is FieldSelect.
	Options []Option `json:"options,omitempty"`

	// OptionsFrom names a partition whose records supply the options at
	// render time (value = record id). Such options are not enforced.
	OptionsFrom string `json:"optionsFrom,omitempty"`
}

// HasOption reports whether value is one of the static options.
func (f FieldDescriptor) HasOption(value string) bool {
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// normalized restores the options invariant after decoding foreign documents.
func (f FieldDescriptor) normalized() FieldDescriptor {
	if !f.Type.Valid() {
		f.Type = FieldText
	}
	if f.Type != FieldSelect {
		f.Options = nil
		f.OptionsFrom = ""
	} else if f.Options == nil {
		f.Options = []Option{}
	}
	if f.Label == "" {
		f.Label = f.Key
	}
	return f
}

// SelectOptions builds value=label options from plain strings,
// dropping blanks and repeated values.
func SelectOptions(values ...string) []Option {
	opts := make([]Option, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		opts = append(opts, Option{Value: v, Label: v})
	}
	return opts
}
