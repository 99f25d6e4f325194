// Package locale maps ISO country and language codes to the codes search
// providers expect. The tables live in locales.yaml.
package locale

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales.yaml
var localesYAML []byte

// Country is one supported search market.
type Country struct {
	LocationCode int    `yaml:"location_code"` // DataForSEO location_code
	GL           string `yaml:"gl"`            // Google/SerpAPI country parameter
	Name         string `yaml:"name"`
}

// Table holds the parsed lookup data.
type Table struct {
	Default struct {
		Country  string `yaml:"country"`
		Language string `yaml:"language"`
	} `yaml:"default"`
	Countries map[string]Country `yaml:"countries"`
	Languages map[string]string  `yaml:"languages"`
}

// Market is the resolved provider view of a product locale.
type Market struct {
	Country      Country
	LanguageCode string
}

var (
	defaultTable *Table
	loadOnce     sync.Once
	loadErr      error
)

// Parse decodes a locale table and checks that its defaults resolve.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse locale table: %w", err)
	}
	if _, ok := t.Countries[t.Default.Country]; !ok {
		return nil, fmt.Errorf("default country %q missing from locale table", t.Default.Country)
	}
	if _, ok := t.Languages[t.Default.Language]; !ok {
		return nil, fmt.Errorf("default language %q missing from locale table", t.Default.Language)
	}
	return &t, nil
}

// Default returns the embedded table. It panics if the embedded file is invalid.
func Default() *Table {
	loadOnce.Do(func() {
		defaultTable, loadErr = Parse(localesYAML)
	})
	if loadErr != nil {
		panic(loadErr)
	}
	return defaultTable
}

// Resolve maps ISO codes to a market, falling back to the defaults for
// anything unmapped.
func (t *Table) Resolve(countryCode, languageCode string) Market {
	country, ok := t.Countries[normalize(countryCode)]
	if !ok {
		country = t.Countries[t.Default.Country]
	}
	lang, ok := t.Languages[normalize(languageCode)]
	if !ok {
		lang = t.Languages[t.Default.Language]
	}
	return Market{Country: country, LanguageCode: lang}
}

// Resolve uses the embedded table.
func Resolve(countryCode, languageCode string) Market {
	return Default().Resolve(countryCode, languageCode)
}

func normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	// en-US, pt_BR
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}
