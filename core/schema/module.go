package schema

// RecordIDKey is the record identity attribute; no field may use it as a key.
const RecordIDKey = "id"

// ModuleSchema is the schema of one partition.
// For user-defined modules Slug is the partition key.
type ModuleSchema struct {
	Slug   string            `json:"slug"`
	Name   string            `json:"name"`
	Fields []FieldDescriptor `json:"fields"`
}

// Field returns the descriptor with the given key.
func (m ModuleSchema) Field(key string) (FieldDescriptor, bool) {
	for _, f := range m.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// Keys returns the field keys in schema order.
func (m ModuleSchema) Keys() []string {
	keys := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Clone returns a copy that shares no slices with m.
func (m ModuleSchema) Clone() ModuleSchema {
	out := m
	out.Fields = make([]FieldDescriptor, len(m.Fields))
	for i, f := range m.Fields {
		if f.Options != nil {
			f.Options = append([]Option(nil), f.Options...)
		}
		out.Fields[i] = f
	}
	return out
}

// Normalize repairs a schema decoded from an external document: invalid
// types become text, non-select fields lose their options, fields with
// empty, reserved or repeated keys are dropped and an empty field list is
// replaced by DefaultFields.
func (m ModuleSchema) Normalize() ModuleSchema {
	out := m
	out.Fields = make([]FieldDescriptor, 0, len(m.Fields))
	seen := make(map[string]bool, len(m.Fields))
	for _, f := range m.Fields {
		if f.Key == "" || f.Key == RecordIDKey || seen[f.Key] {
			continue
		}
		seen[f.Key] = true
		out.Fields = append(out.Fields, f.normalized())
	}
	if len(out.Fields) == 0 {
		out.Fields = DefaultFields()
	}
	return out
}

// DefaultFields is the schema used when a module definition yields no fields.
func DefaultFields() []FieldDescriptor {
	return []FieldDescriptor{
		{Key: "name", Label: "Nazwa", Type: FieldText, Required: true},
		{Key: "note", Label: "Notatka", Type: FieldTextarea},
	}
}
