package normalize

import "strings"

// DefaultCountry is used when a country value cannot be resolved.
// TODO: confirm with product whether unresolved countries should be left
// blank instead of defaulting here.
const DefaultCountry = "US"

// countryNames maps lowercase country names to ISO 3166-1 alpha-2 codes.
var countryNames = map[string]string{
	"argentina":            "AR",
	"australia":            "AU",
	"austria":              "AT",
	"bangladesh":           "BD",
	"belgium":              "BE",
	"brazil":               "BR",
	"canada":               "CA",
	"china":                "CN",
	"colombia":             "CO",
	"czech republic":       "CZ",
	"denmark":              "DK",
	"egypt":                "EG",
	"finland":              "FI",
	"france":               "FR",
	"germany":              "DE",
	"greece":               "GR",
	"hungary":              "HU",
	"india":                "IN",
	"indonesia":            "ID",
	"ireland":              "IE",
	"israel":               "IL",
	"italy":                "IT",
	"japan":                "JP",
	"kenya":                "KE",
	"mexico":               "MX",
	"netherlands":          "NL",
	"new zealand":          "NZ",
	"nigeria":              "NG",
	"norway":               "NO",
	"pakistan":             "PK",
	"philippines":          "PH",
	"poland":               "PL",
	"portugal":             "PT",
	"romania":              "RO",
	"singapore":            "SG",
	"south africa":         "ZA",
	"south korea":          "KR",
	"spain":                "ES",
	"sweden":               "SE",
	"switzerland":          "CH",
	"turkey":               "TR",
	"ukraine":              "UA",
	"united arab emirates": "AE",
	"united kingdom":       "GB",
	"united states":        "US",
	"usa":                  "US",
	"uk":                   "GB",
	"vietnam":              "VN",
}

// ResolveCountry accepts either a 2-letter ISO code or a free-text country
// name; unresolved input falls back to DefaultCountry.
func ResolveCountry(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultCountry
	}

	// Name lookup first: it also corrects common non-ISO abbreviations
	// like "UK".
	if code, ok := countryNames[strings.ToLower(raw)]; ok {
		return code
	}

	if len(raw) == 2 && isAlpha(raw) {
		return strings.ToUpper(raw)
	}

	return DefaultCountry
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
