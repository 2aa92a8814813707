package pipeline

import "strings"

// missingValues are cell contents treated as absent, matching the sentinels
// common spreadsheet and dataframe tools write for empty cells.
var missingValues = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// normalize trims surrounding whitespace and maps missing sentinels to "".
func normalize(v string) string {
	v = strings.TrimSpace(v)
	if _, ok := missingValues[v]; ok {
		return ""
	}
	return v
}
