package registry

import "strings"

// Location holds the two query forms the registry accepts for one free-text
// "City State" input. Query is the abbreviated "City, ST" form used by
// query.locn; Qualifier is the "United States:State:City" form used by
// filter.geo. Qualifier is empty when the input could not be split.
type Location struct {
	Query     string
	Qualifier string
}

// stateAbbreviations maps lowercase US state names to their two-letter
// postal codes for the query.locn parameter.
var stateAbbreviations = map[string]string{
	"alabama":        "AL",
	"alaska":         "AK",
	"arizona":        "AZ",
	"arkansas":       "AR",
	"california":     "CA",
	"colorado":       "CO",
	"connecticut":    "CT",
	"delaware":       "DE",
	"florida":        "FL",
	"georgia":        "GA",
	"hawaii":         "HI",
	"idaho":          "ID",
	"illinois":       "IL",
	"indiana":        "IN",
	"iowa":           "IA",
	"kansas":         "KS",
	"kentucky":       "KY",
	"louisiana":      "LA",
	"maine":          "ME",
	"maryland":       "MD",
	"massachusetts":  "MA",
	"michigan":       "MI",
	"minnesota":      "MN",
	"mississippi":    "MS",
	"missouri":       "MO",
	"montana":        "MT",
	"nebraska":       "NE",
	"nevada":         "NV",
	"new hampshire":  "NH",
	"new jersey":     "NJ",
	"new mexico":     "NM",
	"new york":       "NY",
	"north carolina": "NC",
	"north dakota":   "ND",
	"ohio":           "OH",
	"oklahoma":       "OK",
	"oregon":         "OR",
	"pennsylvania":   "PA",
	"rhode island":   "RI",
	"south carolina": "SC",
	"south dakota":   "SD",
	"tennessee":      "TN",
	"texas":          "TX",
	"utah":           "UT",
	"vermont":        "VT",
	"virginia":       "VA",
	"washington":     "WA",
	"west virginia":  "WV",
	"wisconsin":      "WI",
	"wyoming":        "WY",
}

// NormalizeLocation converts a free-text "City State" string into the two
// forms the registry query accepts. The last whitespace-delimited token is
// taken as the state; everything before it is the city. Inputs with fewer
// than two tokens come back unchanged in Query with no Qualifier; unknown
// state tokens pass through verbatim so partial names still produce a
// best-effort query string. Pure and deterministic.
func NormalizeLocation(raw string) Location {
	parts := strings.Fields(raw)
	if len(parts) < 2 {
		return Location{Query: raw}
	}

	state := parts[len(parts)-1]
	city := strings.Join(parts[:len(parts)-1], " ")
	// Trailing comma shows up when normalizing our own "City, ST" output;
	// trimming it keeps normalization idempotent.
	city = strings.TrimSuffix(city, ",")

	abbrev := state
	if st, ok := stateAbbreviations[strings.ToLower(state)]; ok {
		abbrev = st
	}

	return Location{
		Query:     city + ", " + abbrev,
		Qualifier: "United States:" + state + ":" + city,
	}
}
