package search

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"pgfinder_backend/internal/model"
)

// RawParams carries the search parameters exactly as they arrived on the request.
// Furnished is a pointer because its presence alone switches the filter on.
type RawParams struct {
	City      string
	Min       string
	Max       string
	Gender    string
	Furnished *string
	Search    string
	Page      string
}

type SearchCriteria struct {
	City      string
	MinRent   *float64
	MaxRent   *float64
	Gender    model.Gender
	Furnished *bool
	Search    string
	Page      int
}

// IgnoredField records a parameter that was present but dropped during normalization.
type IgnoredField struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Normalize never fails: malformed or unsupported values degrade to "no filter"
// and are reported in the returned slice.
func Normalize(raw RawParams) (SearchCriteria, []IgnoredField) {
	var ignored []IgnoredField

	c := SearchCriteria{
		City:   strings.TrimSpace(raw.City),
		Search: strings.TrimSpace(raw.Search),
		Page:   1,
	}

	c.MinRent, ignored = parseRent("min", raw.Min, ignored)
	c.MaxRent, ignored = parseRent("max", raw.Max, ignored)

	if g := strings.ToLower(strings.TrimSpace(raw.Gender)); g != "" {
		if model.Gender(g).Valid() {
			c.Gender = model.Gender(g)
		} else {
			ignored = append(ignored, IgnoredField{Field: "gender", Value: raw.Gender, Reason: "unsupported value"})
		}
	}

	if raw.Furnished != nil {
		b := truthy(*raw.Furnished)
		c.Furnished = &b
	}

	if p := strings.TrimSpace(raw.Page); p != "" {
		if n, ok := parsePage(p); ok {
			c.Page = ClampPage(n)
		} else {
			ignored = append(ignored, IgnoredField{Field: "page", Value: raw.Page, Reason: "not an integer"})
		}
	}

	return c, ignored
}

// MaxPage keeps the row offset of any page inside a 32-bit OFFSET.
const MaxPage = math.MaxInt32 / model.ListingsPerPage

// ClampPage bounds a page number to [1, MaxPage].
func ClampPage(n int64) int {
	if n < 1 {
		return 1
	}
	if n > MaxPage {
		return MaxPage
	}
	return int(n)
}

// parsePage reads the leading integer of raw, so "2.5" and "3rd" are pages 2 and 3.
// Out-of-range numbers saturate; a value with no leading digits is rejected.
func parsePage(raw string) (int64, bool) {
	end := 0
	if end < len(raw) && (raw[end] == '+' || raw[end] == '-') {
		end++
	}
	start := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.ParseInt(raw[:end], 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return n, true
}

func parseRent(field, raw string, ignored []IgnoredField) (*float64, []IgnoredField) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ignored
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, append(ignored, IgnoredField{Field: field, Value: raw, Reason: "not numeric"})
	}
	if v <= 0 {
		return nil, append(ignored, IgnoredField{Field: field, Value: raw, Reason: "must be positive"})
	}
	return &v, ignored
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Offset is the row offset of the criteria's page.
func (c SearchCriteria) Offset() int {
	return (c.Page - 1) * model.ListingsPerPage
}
