package store

import (
	"slices"
	"strings"

	"github.com/qrforge/qrforge/internal/qr"
)

// SortBy selects the ordering applied by Query.
type SortBy string

const (
	SortDate SortBy = "date"
	SortName SortBy = "name"
	SortType SortBy = "type"
)

// ParseSortBy accepts "", date, name or type.
func ParseSortBy(s string) (SortBy, bool) {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortDate:
		return SortDate, true
	case SortName:
		return SortName, true
	case SortType:
		return SortType, true
	default:
		return "", false
	}
}

// Query filters and orders a record list for display.
type Query struct {
	// Search is a case-insensitive substring matched against name or content.
	Search string
	// Type restricts results to one record type; empty means all.
	Type qr.Type
	// SortBy defaults to SortDate (newest first).
	SortBy SortBy
}

// Apply returns the matching records in display order. The input slice is
// not modified.
func (q Query) Apply(records []qr.Record) []qr.Record {
	needle := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]qr.Record, 0, len(records))
	for _, r := range records {
		if q.Type != "" && r.Type != q.Type {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(r.Name), needle) &&
			!strings.Contains(strings.ToLower(r.Content), needle) {
			continue
		}
		out = append(out, r)
	}

	switch q.SortBy {
	case SortName:
		slices.SortStableFunc(out, func(a, b qr.Record) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	case SortType:
		slices.SortStableFunc(out, func(a, b qr.Record) int {
			return strings.Compare(string(a.Type), string(b.Type))
		})
	default:
		slices.SortStableFunc(out, func(a, b qr.Record) int {
			switch {
			case a.Timestamp > b.Timestamp:
				return -1
			case a.Timestamp < b.Timestamp:
				return 1
			default:
				return 0
			}
		})
	}

	return out
}
