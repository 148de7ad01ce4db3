// Package validation coerces raw input into typed field values and checks
// it against a record schema. Validation runs before any store write, so a
// rejected mutation never leaves partial state behind.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/warsztat/core/schema"
)

// ErrValidation matches every *Error via errors.Is.
var ErrValidation = errors.New("validation failed")

// Error codes.
const (
	CodeRequired      = "required"
	CodeInvalidNumber = "invalid_number"
	CodeInvalidDate   = "invalid_date"
	CodeInvalidOption = "invalid_option"
	CodeUnknownField  = "unknown_field"
)

// DateLayout is the accepted format of date fields.
const DateLayout = "2006-01-02"

// reserved input keys are record attributes maintained by the store.
var reserved = map[string]bool{"id": true, "createdAt": true, "updatedAt": true}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Result collects all field errors of one validation pass.
type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// AddError adds a validation error.
func (r *Result) AddError(field, code string, value any, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, FieldError{Field: field, Code: code, Value: value, Message: message})
}

// Err returns nil for a valid result and an *Error otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &Error{Errors: r.Errors}
}

// Error is returned when input fails validation.
type Error struct {
	Errors []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Is reports whether target is ErrValidation.
func (e *Error) Is(target error) bool {
	return target == ErrValidation
}

// Fields returns the keys of the rejected fields.
func (e *Error) Fields() []string {
	out := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		out[i] = fe.Field
	}
	return out
}

// ValidateCreate coerces every schema field from input (absent fields get
// their blank value) and checks required fields.
func ValidateCreate(fields []schema.FieldDescriptor, input map[string]any) (map[string]any, Result) {
	result := Result{Valid: true}
	checkUnknown(&result, fields, input)

	values := make(map[string]any, len(fields))
	for _, f := range fields {
		v, fe := Coerce(f, input[f.Key])
		if fe != nil {
			result.Errors = append(result.Errors, *fe)
			result.Valid = false
			continue
		}
		values[f.Key] = v
		if f.Required && IsEmpty(v) {
			result.AddError(f.Key, CodeRequired, nil, "field is required")
		}
	}

	return values, result
}

// ValidateUpdate coerces only the fields present in input and checks
// required fields against existing merged with the changes.
func ValidateUpdate(fields []schema.FieldDescriptor, existing, input map[string]any) (map[string]any, Result) {
	result := Result{Valid: true}
	checkUnknown(&result, fields, input)

	changes := make(map[string]any, len(input))
	for _, f := range fields {
		raw, ok := input[f.Key]
		if !ok {
			continue
		}
		v, fe := Coerce(f, raw)
		if fe != nil {
			result.Errors = append(result.Errors, *fe)
			result.Valid = false
			continue
		}
		changes[f.Key] = v
	}

	for _, f := range fields {
		if !f.Required {
			continue
		}
		v, ok := changes[f.Key]
		if !ok {
			v = existing[f.Key]
		}
		if IsEmpty(v) {
			result.AddError(f.Key, CodeRequired, nil, "field is required")
		}
	}

	return changes, result
}

func checkUnknown(result *Result, fields []schema.FieldDescriptor, input map[string]any) {
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Key] = true
	}
	var unknown []string
	for key := range input {
		if !known[key] && !reserved[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		result.AddError(key, CodeUnknownField, nil,
			fmt.Sprintf("unknown field '%s' - not defined in schema", key))
	}
}

// IsEmpty reports whether a coerced value counts as missing for a
// required field: nil, or text that is blank after trimming.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

// Coerce converts a raw input value to the representation stored for f:
// float64 or "" for numbers, bool for checkboxes, string otherwise.
func Coerce(f schema.FieldDescriptor, raw any) (any, *FieldError) {
	switch f.Type {
	case schema.FieldNumber:
		return coerceNumber(f, raw)
	case schema.FieldCheckbox:
		return coerceBool(raw), nil
	case schema.FieldDate:
		s := toText(raw)
		if strings.TrimSpace(s) == "" {
			return s, nil
		}
		if _, err := time.Parse(DateLayout, strings.TrimSpace(s)); err != nil {
			return nil, &FieldError{Field: f.Key, Code: CodeInvalidDate, Value: raw, Message: "must be a date (YYYY-MM-DD)"}
		}
		return strings.TrimSpace(s), nil
	case schema.FieldSelect:
		s := toText(raw)
		if s != "" && f.OptionsFrom == "" && len(f.Options) > 0 && !f.HasOption(s) {
			return nil, &FieldError{Field: f.Key, Code: CodeInvalidOption, Value: raw,
				Message: fmt.Sprintf("must be one of: %s", strings.Join(optionValues(f), ", "))}
		}
		return s, nil
	case schema.FieldText, schema.FieldTextarea:
		return toText(raw), nil
	}
	return toText(raw), nil
}

func coerceNumber(f schema.FieldDescriptor, raw any) (any, *FieldError) {
	invalid := &FieldError{Field: f.Key, Code: CodeInvalidNumber, Value: raw, Message: "must be a number"}

	var n float64
	switch x := raw.(type) {
	case nil:
		return "", nil
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		v, err := x.Float64()
		if err != nil {
			return nil, invalid
		}
		n = v
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return "", nil
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return nil, invalid
		}
		n = v
	default:
		return nil, invalid
	}

	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, invalid
	}
	return n, nil
}

func coerceBool(raw any) bool {
	switch x := raw.(type) {
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "on", "1", "yes", "tak":
			return true
		}
	case float64:
		return x != 0
	case int:
		return x != 0
	}
	return false
}

func toText(raw any) string {
	switch x := raw.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(raw)
}

func optionValues(f schema.FieldDescriptor) []string {
	out := make([]string, len(f.Options))
	for i, o := range f.Options {
		out[i] = o.Value
	}
	return out
}
