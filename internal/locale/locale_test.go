package locale

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		country, language string
		wantLocation      int
		wantGL            string
		wantLang          string
	}{
		{"US", "en", 2840, "us", "en"},
		{"de", "DE", 2276, "de", "de"},
		{"gb", "en-GB", 2826, "uk", "en"},
		{"NO", "no", 2578, "no", "nb"},
		{"", "", 2840, "us", "en"},
		{"xx", "tlh", 2840, "us", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.country+"/"+tt.language, func(t *testing.T) {
			m := Resolve(tt.country, tt.language)
			if m.Country.LocationCode != tt.wantLocation {
				t.Errorf("location code = %d, want %d", m.Country.LocationCode, tt.wantLocation)
			}
			if m.Country.GL != tt.wantGL {
				t.Errorf("gl = %q, want %q", m.Country.GL, tt.wantGL)
			}
			if m.LanguageCode != tt.wantLang {
				t.Errorf("language = %q, want %q", m.LanguageCode, tt.wantLang)
			}
		})
	}
}

func TestParseRejectsMissingDefault(t *testing.T) {
	_, err := Parse([]byte("default:\n  country: zz\n  language: en\ncountries: {}\nlanguages:\n  en: en\n"))
	if err == nil {
		t.Fatal("expected error for unknown default country")
	}
}
