// Package fieldspec compiles the compact field-spec mini-language into
// field descriptors.
//
// A spec is a comma-separated list of entries, each shaped
//
//	key:type:label:required
//
// where type is one of the schema field types or select[Opt1|Opt2]. Only key
// and type are mandatory. Commas and colons inside [...] do not split, and
// when an entry has more than four segments the last one is the required
// flag while the ones in between form the label.
package fieldspec

import (
	"strings"

	"github.com/artpar/warsztat/core/schema"
)

const selectPrefix = "select["

// Parse compiles spec into descriptors. Entries with fewer than two
// segments, keys that normalize to nothing and the reserved "id" key are
// skipped; the first entry wins when two normalize to the same key.
// Parse is pure: identical input gives identical output.
func Parse(spec string) []schema.FieldDescriptor {
	out := []schema.FieldDescriptor{}
	seen := make(map[string]bool)

	for _, entry := range splitTop(spec, ',') {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		field, ok := parseEntry(entry)
		if !ok || seen[field.Key] {
			continue
		}
		seen[field.Key] = true
		out = append(out, field)
	}

	return out
}

func parseEntry(entry string) (schema.FieldDescriptor, bool) {
	segs := splitTop(entry, ':')
	if len(segs) < 2 {
		return schema.FieldDescriptor{}, false
	}
	for i := range segs {
		segs[i] = strings.TrimSpace(segs[i])
	}

	rawKey := segs[0]
	key := schema.NormalizeKey(rawKey)
	if key == "" || key == schema.RecordIDKey {
		return schema.FieldDescriptor{}, false
	}

	field := schema.FieldDescriptor{Key: key}
	field.Type, field.Options = parseType(segs[1])

	var label string
	switch n := len(segs); {
	case n == 3:
		label = segs[2]
	case n >= 4:
		label = strings.Join(segs[2:n-1], ":")
		field.Required = strings.EqualFold(segs[n-1], "true")
	}
	if label == "" {
		label = rawKey
	}
	field.Label = label

	return field, true
}

// parseType resolves a type token. Unrecognized tokens fall back to text.
func parseType(token string) (schema.FieldType, []schema.Option) {
	if token == "" {
		return schema.FieldText, nil
	}

	lower := strings.ToLower(token)
	if strings.HasPrefix(lower, selectPrefix) && strings.HasSuffix(lower, "]") {
		// Surplus closing brackets are not part of the last option.
		inner := strings.TrimRight(token[len(selectPrefix):], "]")
		if inner != "" {
			return schema.FieldSelect, schema.SelectOptions(strings.Split(inner, "|")...)
		}
	}

	ft, ok := schema.ParseFieldType(lower)
	if !ok {
		return schema.FieldText, nil
	}
	if ft == schema.FieldSelect {
		return ft, []schema.Option{}
	}
	return ft, nil
}

// splitTop splits s on sep, ignoring separators inside square brackets.
// An unclosed bracket does not group anything and s is split on every sep.
func splitTop(s string, sep rune) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case r == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + len(string(sep))
		}
	}
	if depth > 0 {
		return strings.Split(s, string(sep))
	}
	return append(parts, s[start:])
}
