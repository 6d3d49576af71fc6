// Package states maps US state and Canadian province names to postal codes
// and repairs the state column of property exports.
package states

import (
	"strconv"
	"strings"
)

// Codes maps full US state names (plus DC) to their two-letter codes.
var Codes = map[string]string{
	"Alabama": "AL", "Alaska": "AK", "Arizona": "AZ", "Arkansas": "AR",
	"California": "CA", "Colorado": "CO", "Connecticut": "CT", "Delaware": "DE",
	"Florida": "FL", "Georgia": "GA", "Hawaii": "HI", "Idaho": "ID",
	"Illinois": "IL", "Indiana": "IN", "Iowa": "IA", "Kansas": "KS",
	"Kentucky": "KY", "Louisiana": "LA", "Maine": "ME", "Maryland": "MD",
	"Massachusetts": "MA", "Michigan": "MI", "Minnesota": "MN", "Mississippi": "MS",
	"Missouri": "MO", "Montana": "MT", "Nebraska": "NE", "Nevada": "NV",
	"New Hampshire": "NH", "New Jersey": "NJ", "New Mexico": "NM", "New York": "NY",
	"North Carolina": "NC", "North Dakota": "ND", "Ohio": "OH", "Oklahoma": "OK",
	"Oregon": "OR", "Pennsylvania": "PA", "Rhode Island": "RI", "South Carolina": "SC",
	"South Dakota": "SD", "Tennessee": "TN", "Texas": "TX", "Utah": "UT",
	"Vermont": "VT", "Virginia": "VA", "Washington": "WA", "West Virginia": "WV",
	"Wisconsin": "WI", "Wyoming": "WY", "District of Columbia": "DC",
}

// Provinces maps Canadian province and territory names to their codes.
var Provinces = map[string]string{
	"Alberta": "AB", "British Columbia": "BC", "Manitoba": "MB", "New Brunswick": "NB",
	"Newfoundland and Labrador": "NL", "Nova Scotia": "NS", "Northwest Territories": "NT",
	"Nunavut": "NU", "Ontario": "ON", "Prince Edward Island": "PE", "Quebec": "QC",
	"Saskatchewan": "SK", "Yukon": "YT",
}

var byLowerName = func() map[string]string {
	m := make(map[string]string, len(Codes)+len(Provinces))
	for name, code := range Codes {
		m[strings.ToLower(name)] = code
	}
	for name, code := range Provinces {
		m[strings.ToLower(name)] = code
	}
	return m
}()

var knownCodes = func() map[string]bool {
	m := make(map[string]bool, len(byLowerName))
	for _, code := range byLowerName {
		m[code] = true
	}
	return m
}()

// CodeFor returns the code for a full state or province name, ignoring case.
func CodeFor(name string) (string, bool) {
	code, ok := byLowerName[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

// IsCode reports whether s is a known two-letter state or province code.
func IsCode(s string) bool {
	return knownCodes[strings.ToUpper(strings.TrimSpace(s))]
}

type zipRange struct {
	lo, hi int
	state  string
}

// Two-digit zip prefixes for the states the directory covers most. Ranges are
// checked in order, so 03 resolves to ME.
var zipRanges = []zipRange{
	{27, 28, "NC"},
	{75, 79, "TX"},
	{10, 14, "NY"},
	{90, 96, "CA"},
	{32, 34, "FL"},
	{15, 19, "PA"},
	{48, 49, "MI"},
	{87, 88, "NM"},
	{29, 29, "SC"},
	{3, 4, "ME"},
}

// FromZip guesses a state from the first two digits of a zip code. Unknown or
// malformed zips return "".
func FromZip(zip string) string {
	zip = strings.TrimSpace(zip)
	if len(zip) < 5 || !isDigits(zip[:5]) {
		return ""
	}
	prefix, err := strconv.Atoi(zip[:2])
	if err != nil {
		return ""
	}
	for _, r := range zipRanges {
		if prefix >= r.lo && prefix <= r.hi {
			return r.state
		}
	}
	return ""
}

// Source says which rule produced a normalized state.
type Source string

const (
	SourceCode     Source = "code"
	SourceStateZip Source = "state-zip"
	SourceName     Source = "name"
	SourceSwap     Source = "swap"
	SourceZip      Source = "zip"
	SourceNone     Source = ""
)

// Result is the outcome of Normalize. City is only changed by a swap.
type Result struct {
	State   string
	City    string
	Swapped bool
	Source  Source
}

// Changed reports whether the state or city differs from the inputs.
func (r Result) Changed(state, city string) bool {
	return r.State != strings.TrimSpace(state) || r.City != strings.TrimSpace(city)
}

// Normalize repairs a state value. In order: a two-letter alphabetic value is
// upper-cased; a five-digit value is treated as a zip; a full name maps to its
// code; a two-letter alphabetic city means the columns were swapped; finally
// the zip column is consulted. A blank state, or one where nothing applies, is
// returned trimmed with an empty Source.
func Normalize(state, city, zip string) Result {
	state = strings.TrimSpace(state)
	city = strings.TrimSpace(city)
	if state == "" {
		return Result{City: city}
	}

	if len(state) == 2 && isAlpha(state) {
		return Result{State: strings.ToUpper(state), City: city, Source: SourceCode}
	}
	if len(state) == 5 && isDigits(state) {
		if s := FromZip(state); s != "" {
			return Result{State: s, City: city, Source: SourceStateZip}
		}
	}
	if code, ok := CodeFor(state); ok {
		return Result{State: code, City: city, Source: SourceName}
	}
	if len(city) == 2 && isAlpha(city) {
		return Result{State: strings.ToUpper(city), City: state, Swapped: true, Source: SourceSwap}
	}
	if s := FromZip(zip); s != "" {
		return Result{State: s, City: city, Source: SourceZip}
	}
	return Result{State: state, City: city}
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return s != ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
