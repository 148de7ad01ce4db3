// Package settings provides the value types for user preferences.
package settings

import "strings"

// ThemeKey is the document store key of the persisted theme.
const ThemeKey = "warsztatcrm_theme_v1"

// Theme is the colour scheme of the presentation layer.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultTheme is used when nothing was chosen or persisted.
const DefaultTheme = ThemeLight

// Themes lists the selectable themes.
func Themes() []Theme {
	return []Theme{ThemeLight, ThemeDark}
}

// ParseTheme reads a stored or submitted theme. Anything but "dark" is
// light.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(ThemeDark)) {
		return ThemeDark
	}
	return ThemeLight
}

// Valid reports whether t is one of Themes.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Label returns the display name.
func (t Theme) Label() string {
	if t == ThemeDark {
		return "Ciemny"
	}
	return "Jasny"
}

func (t Theme) String() string { return string(t) }
