package ingest

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/DrSkyle/pierwatch/pkg/cargo"
)

// cleaner turns raw cells into typed values.
type cleaner struct {
	layouts []string
	missing map[string]bool
}

func newCleaner(layouts, missing []string) *cleaner {
	m := make(map[string]bool, len(missing))
	for _, v := range missing {
		m[strings.ToLower(strings.TrimSpace(v))] = true
	}
	m[""] = true
	return &cleaner{layouts: layouts, missing: m}
}

func (c *cleaner) isMissing(raw string) bool {
	return c.missing[strings.ToLower(strings.TrimSpace(raw))]
}

// text trims the cell and maps placeholders to "".
func (c *cleaner) text(raw string) string {
	if c.isMissing(raw) {
		return ""
	}
	return strings.TrimSpace(raw)
}

// identifier is text that must be valid UTF-8 with at least one printable
// character, since it is used as a grouping key.
func (c *cleaner) identifier(raw string) (string, bool) {
	s := c.text(raw)
	if s == "" {
		return "", true
	}
	if !utf8.ValidString(s) {
		return "", false
	}
	for _, r := range s {
		if unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return s, true
		}
	}
	return "", false
}

// date returns an absent date for missing cells and ok=false for cells that
// hold something no layout accepts.
func (c *cleaner) date(raw string) (cargo.Date, bool) {
	if c.isMissing(raw) {
		return cargo.Date{}, true
	}
	s := strings.TrimSpace(raw)
	for _, layout := range c.layouts {
		if d, err := cargo.ParseDate(layout, s); err == nil {
			return d, true
		}
	}
	return cargo.Date{}, false
}

// tonnage accepts a comma decimal separator and spaces as thousands
// separators.
func (c *cleaner) tonnage(raw string) (cargo.Tonnage, bool) {
	if c.isMissing(raw) {
		return cargo.Tonnage{}, true
	}
	s := numberReplacer.Replace(strings.TrimSpace(raw))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return cargo.Tonnage{}, false
	}
	return cargo.Tonnes(v), true
}

var numberReplacer = strings.NewReplacer(",", ".", " ", "", "\u00a0", "", "\u202f", "")
