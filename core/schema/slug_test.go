package schema

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Pojazdy", "pojazdy"},
		{"spaces collapse", "  Moje   Pojazdy  ", "moje-pojazdy"},
		{"punctuation runs", "Części / zamienne!!", "części-zamienne"},
		{"digits kept", "Auta 2024", "auta-2024"},
		{"leading symbols", "--Test--", "test"},
		{"empty", "", FallbackSlug},
		{"only symbols", "?!#", FallbackSlug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugify_Length(t *testing.T) {
	long := strings.Repeat("ab ", 30)
	got := Slugify(long)
	if n := utf8.RuneCountInString(got); n > MaxSlugLength {
		t.Fatalf("Slugify() length = %d, want <= %d", n, MaxSlugLength)
	}
	if strings.HasSuffix(got, "-") || strings.HasPrefix(got, "-") {
		t.Errorf("Slugify() = %q, should not start or end with a separator", got)
	}

	polish := strings.Repeat("ż", 50)
	if n := utf8.RuneCountInString(Slugify(polish)); n != MaxSlugLength {
		t.Errorf("Slugify(ż*50) length = %d, want %d", n, MaxSlugLength)
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"vin", "vin"},
		{"Rok produkcji", "rok_produkcji"},
		{"rok_produkcji", "rok_produkcji"},
		{"a--b__c", "a_b_c"},
		{"Ilość", "ilość"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsValidKey(t *testing.T) {
	valid := []string{"vin", "rok_produkcji", "a1"}
	for _, k := range valid {
		if !IsValidKey(k) {
			t.Errorf("IsValidKey(%q) = false, want true", k)
		}
	}

	invalid := []string{"", "Vin", "a-b", "_a", "a_", "a b"}
	for _, k := range invalid {
		if IsValidKey(k) {
			t.Errorf("IsValidKey(%q) = true, want false", k)
		}
	}
}
