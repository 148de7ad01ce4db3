package schema

import (
	"strings"
	"unicode"
)

const (
	// MaxSlugLength caps slugs and field keys, counted in runes.
	MaxSlugLength = 40

	// FallbackSlug is used when a module name has no letters or digits.
	FallbackSlug = "modul"
)

// Slugify derives a URL-safe module slug from a display name.
func Slugify(name string) string {
	if s := normalize(name, '-'); s != "" {
		return s
	}
	return FallbackSlug
}

// NormalizeKey derives a field key from a raw key token.
// It returns "" when the token has no letters or digits.
func NormalizeKey(raw string) string {
	return normalize(raw, '_')
}

// IsValidKey reports whether key is a normalized field key.
func IsValidKey(key string) bool {
	return key != "" && NormalizeKey(key) == key
}

func normalize(s string, sep rune) string {
	var b strings.Builder
	pending := false
	n := 0
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			pending = n > 0
			continue
		}
		if pending {
			if n+1 >= MaxSlugLength {
				break
			}
			b.WriteRune(sep)
			n++
			pending = false
		}
		if n >= MaxSlugLength {
			break
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
