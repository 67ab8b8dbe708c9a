package restcountries

import (
	"sort"
	"strings"
)

// Country mirrors the subset of the v3.1 country payload atlas renders.
type Country struct {
	Name       Name                `json:"name"`
	CCA3       string              `json:"cca3"`
	Region     string              `json:"region"`
	Subregion  string              `json:"subregion"`
	Capital    []string            `json:"capital"`
	Population int64               `json:"population"`
	Flags      Flags               `json:"flags"`
	TLD        []string            `json:"tld"`
	Currencies map[string]Currency `json:"currencies"`
	Languages  map[string]string   `json:"languages"`
	Borders    []string            `json:"borders"`
}

// Name holds the common, official and per-language native names.
type Name struct {
	Common     string                `json:"common"`
	Official   string                `json:"official"`
	NativeName map[string]NativeName `json:"nativeName"`
}

// NativeName is one language's rendering of the country name.
type NativeName struct {
	Common   string `json:"common"`
	Official string `json:"official"`
}

// Flags links to flag images.
type Flags struct {
	PNG string `json:"png"`
	SVG string `json:"svg"`
	Alt string `json:"alt"`
}

// Currency describes one legal tender.
type Currency struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// NativeCommonName returns the common native name for the alphabetically
// first language code, falling back to the common English name.
func (c Country) NativeCommonName() string {
	keys := sortedKeys(c.Name.NativeName)
	for _, k := range keys {
		if name := strings.TrimSpace(c.Name.NativeName[k].Common); name != "" {
			return name
		}
	}
	return c.Name.Common
}

// CapitalName returns the first listed capital or "".
func (c Country) CapitalName() string {
	if len(c.Capital) == 0 {
		return ""
	}
	return c.Capital[0]
}

// TopLevelDomain returns the first listed TLD or "".
func (c Country) TopLevelDomain() string {
	if len(c.TLD) == 0 {
		return ""
	}
	return c.TLD[0]
}

// CurrencyNames lists currency names ordered by ISO code.
func (c Country) CurrencyNames() []string {
	keys := sortedKeys(c.Currencies)
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if name := c.Currencies[k].Name; name != "" {
			names = append(names, name)
		}
	}
	return names
}

// LanguageNames lists language names ordered by language code.
func (c Country) LanguageNames() []string {
	keys := sortedKeys(c.Languages)
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		if name := c.Languages[k]; name != "" {
			names = append(names, name)
		}
	}
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
