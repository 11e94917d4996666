package locale

import (
	"fmt"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		prefs []string
		want  Lang
	}{
		{"no preference", nil, French},
		{"empty strings", []string{"", "  "}, French},
		{"english tag", []string{"en"}, English},
		{"british english", []string{"en-GB"}, English},
		{"posix english", []string{"en_US.UTF-8"}, English},
		{"canadian french", []string{"fr_CA"}, French},
		{"C locale falls through", []string{"C", "en"}, English},
		{"unsupported then english", []string{"de-DE", "en"}, English},
		{"garbage", []string{"???"}, French},
		{"first match wins", []string{"fr", "en"}, French},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.prefs...); got != tt.want {
				t.Errorf("Resolve(%v) = %v, want %v", tt.prefs, got, tt.want)
			}
		})
	}
}

func TestFor_FallsBackToDefault(t *testing.T) {
	if got := For(Lang("xx")).Lang; got != Default {
		t.Errorf("For(xx).Lang = %v, want %v", got, Default)
	}
}

func TestCatalogsComplete(t *testing.T) {
	for lang, m := range catalogs {
		if m.Lang != lang {
			t.Errorf("catalog %s has Lang %s", lang, m.Lang)
		}
		if len(m.Suggestions) != 4 {
			t.Errorf("%s: %d suggestions, want 4", lang, len(m.Suggestions))
		}
		if len(m.GuideCards) != 4 {
			t.Errorf("%s: %d guide cards, want 4", lang, len(m.GuideCards))
		}
		if len(m.Benefits) != 4 {
			t.Errorf("%s: %d benefits, want 4", lang, len(m.Benefits))
		}
		if m.Fallback == "" || m.Greeting == "" || m.SystemInstruction == "" {
			t.Errorf("%s: advisor strings must not be empty", lang)
		}
		if got := fmt.Sprintf(m.StageCopying, 42); got == m.StageCopying {
			t.Errorf("%s: StageCopying must take the percentage", lang)
		}
	}
}

func TestFrenchStrings(t *testing.T) {
	m := For(French)

	if m.Fallback != "Désolé, j'ai rencontré une erreur lors de l'analyse de votre demande. Veuillez réessayer." {
		t.Errorf("unexpected fallback %q", m.Fallback)
	}
	if got := fmt.Sprintf(m.StageCopying, 37); got != "Copie des fichiers ISO (37%)..." {
		t.Errorf("copying label = %q", got)
	}
}
