package core

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// SortField names what events are ordered by.
type SortField string

const (
	SortByTime    SortField = "time"
	SortByDisplay SortField = "display"
	SortByKind    SortField = "kind"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions specifies sorting criteria.
type SortOptions struct {
	Field SortField
	Order SortOrder
}

// DefaultSortOptions orders events oldest first, the order they were
// delivered in.
func DefaultSortOptions() SortOptions {
	return SortOptions{Field: SortByTime, Order: SortAsc}
}

var comparators = map[SortField]func(a, b model.Event) int{
	SortByTime:    func(a, b model.Event) int { return a.Time.Compare(b.Time) },
	SortByDisplay: func(a, b model.Event) int { return cmp.Compare(a.Display, b.Display) },
	SortByKind:    func(a, b model.Event) int { return strings.Compare(a.Kind.String(), b.Kind.String()) },
}

// Sort orders events in place. Equal events keep their relative order in
// both directions.
func Sort(events []model.Event, opts SortOptions) {
	compare, ok := comparators[opts.Field]
	if !ok {
		compare = comparators[SortByTime]
	}
	if opts.Order == SortDesc {
		asc := compare
		compare = func(a, b model.Event) int { return asc(b, a) }
	}
	slices.SortStableFunc(events, compare)
}

// ParseSortField parses a sort field name or its abbreviation.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "time", "timestamp", "t":
		return SortByTime, nil
	case "display", "dpy", "d":
		return SortByDisplay, nil
	case "kind", "k":
		return SortByKind, nil
	}
	return "", fmt.Errorf("invalid sort field %q, must be one of: time, display, kind", s)
}

// ParseSortOrder parses a sort order name or its abbreviation.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending", "a":
		return SortAsc, nil
	case "desc", "descending", "d":
		return SortDesc, nil
	}
	return "", fmt.Errorf("invalid sort order %q, must be asc or desc", s)
}

// ParseSort parses "field[:order]", e.g. "time:desc" or "display".
func ParseSort(s string) (SortOptions, error) {
	field, order, _ := strings.Cut(s, ":")

	f, err := ParseSortField(field)
	if err != nil {
		return SortOptions{}, err
	}
	o, err := ParseSortOrder(order)
	if err != nil {
		return SortOptions{}, err
	}
	return SortOptions{Field: f, Order: o}, nil
}
