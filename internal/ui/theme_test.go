package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/flowdecoder/internal/toast"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Kanagawa" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Nightfox Kanagawa Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Nightfox"); got != "Kanagawa" {
		t.Fatalf("NextTheme(Nightfox) = %q, want Kanagawa", got)
	}
	if got := NextTheme("Slate"); got != "Nightfox" {
		t.Fatalf("NextTheme(Slate) = %q, want Nightfox", got)
	}
	if got := NextTheme("Unknown"); got != "Nightfox" {
		t.Fatalf("NextTheme(Unknown) = %q, want Nightfox", got)
	}
}

func TestGetTheme(t *testing.T) {
	slate := GetTheme("Slate")
	if slate.Name != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q, want Slate", slate.Name)
	}

	unknown := GetTheme("Unknown")
	if unknown.Name != "Nightfox" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Nightfox (fallback)", unknown.Name)
	}
}

func TestThemesDefineJSONPalette(t *testing.T) {
	for _, name := range ThemeNames() {
		p := GetTheme(name).JSON
		for field, color := range map[string]string{
			"Key": p.Key, "String": p.String, "Number": p.Number,
			"Bool": p.Bool, "Null": p.Null, "Punct": p.Punct,
		} {
			if color == "" {
				t.Fatalf("%s JSON.%s is empty", name, field)
			}
		}
	}
}

func TestToastStyleUsesKindColor(t *testing.T) {
	th := GetTheme("Slate")
	styles := th.Styles()

	if got := styles.ToastStyle(toast.KindError, false).GetForeground(); got != lipgloss.Color(th.Danger) {
		t.Fatalf("error toast foreground = %v, want %v", got, th.Danger)
	}
	if got := styles.ToastStyle(toast.KindError, true).GetForeground(); got != lipgloss.Color(th.Faint) {
		t.Fatalf("exiting toast foreground = %v, want %v", got, th.Faint)
	}
}
