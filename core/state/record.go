package state

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record attribute names stored next to the field values.
const (
	KeyID        = "id"
	KeyCreatedAt = "createdAt"
	KeyUpdatedAt = "updatedAt"
)

// Record is one entry of a partition. On the wire it is a flat JSON object
// holding id, createdAt, updatedAt and one member per field key.
type Record struct {
	ID        string
	CreatedAt string
	UpdatedAt string
	Values    map[string]any

	malformed bool
}

// Get returns the value stored for a field key, or nil.
func (r Record) Get(key string) any {
	return r.Values[key]
}

// Text returns the value stored for a field key as display text.
func (r Record) Text(key string) string {
	return Text(r.Values[key])
}

// Clone returns a copy that shares no map with r.
func (r Record) Clone() Record {
	out := r
	out.Values = make(map[string]any, len(r.Values))
	for k, v := range r.Values {
		out.Values[k] = v
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Values)+3)
	for k, v := range r.Values {
		m[k] = v
	}
	m[KeyID] = r.ID
	m[KeyCreatedAt] = r.CreatedAt
	m[KeyUpdatedAt] = r.UpdatedAt
	return json.Marshal(m)
}

// UnmarshalJSON implements json.Unmarshaler. Anything other than a JSON
// object decodes into a malformed record that load repair drops.
func (r *Record) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		*r = Record{malformed: true}
		return nil
	}

	*r = Record{
		ID:        Text(m[KeyID]),
		CreatedAt: Text(m[KeyCreatedAt]),
		UpdatedAt: Text(m[KeyUpdatedAt]),
		Values:    m,
	}
	delete(m, KeyID)
	delete(m, KeyCreatedAt)
	delete(m, KeyUpdatedAt)
	return nil
}

// Text renders a stored value for display and search haystacks.
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Number reads a stored value as a number. Blank and non-numeric values are 0.
func Number(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(x, ",", ".")), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}
