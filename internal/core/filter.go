// Package core provides filtering, sorting, and lookup logic for event
// history.
package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// FilterOptions specifies criteria for filtering events.
type FilterOptions struct {
	Since   time.Duration        // Keep events newer than now-Since (0=all)
	Display *model.DisplayHandle // nil=any
	Kind    model.CallbackKind   // CallbackInvalid=any
	Limit   int                  // Keep the newest Limit matches (0=unlimited)
}

// Filter returns the events matching opts, in their original order.
func Filter(events []model.Event, opts FilterOptions) []model.Event {
	var cutoff time.Time
	if opts.Since > 0 {
		cutoff = time.Now().Add(-opts.Since)
	}

	result := make([]model.Event, 0, len(events))
	for _, e := range events {
		switch {
		case !cutoff.IsZero() && e.Time.Before(cutoff):
		case opts.Display != nil && e.Display != *opts.Display:
		case opts.Kind != model.CallbackInvalid && e.Kind != opts.Kind:
		default:
			result = append(result, e)
		}
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[len(result)-opts.Limit:]
	}
	return result
}

// ParseDuration parses durations with day and week suffixes on top of
// time.ParseDuration: 48h, 7d, 2w. "0" and "" mean no limit.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	for suffix, unit := range map[string]time.Duration{"d": 24 * time.Hour, "w": 7 * 24 * time.Hour} {
		if n, ok := strings.CutSuffix(s, suffix); ok {
			count, err := strconv.Atoi(n)
			if err != nil {
				return 0, fmt.Errorf("invalid duration: %s", s)
			}
			return time.Duration(count) * unit, nil
		}
	}
	return time.ParseDuration(s)
}

// FilterOp is a comparison operator in a filter expression.
type FilterOp string

const (
	OpEqual     FilterOp = "="
	OpNotEqual  FilterOp = "!="
	OpContains  FilterOp = "~"
	OpRegex     FilterOp = "~="
	OpGreater   FilterOp = ">"
	OpLess      FilterOp = "<"
	OpGreaterEq FilterOp = ">="
	OpLessEq    FilterOp = "<="
)

// operators in match order: two-character operators before their prefixes.
var operators = []FilterOp{OpNotEqual, OpGreaterEq, OpLessEq, OpRegex, OpEqual, OpContains, OpGreater, OpLess}

// FilterCondition is one compiled "field<op>value" term.
type FilterCondition struct {
	Field    string
	Operator FilterOp
	Value    string

	match func(model.Event) bool
}

// Match reports whether e satisfies the condition.
func (c FilterCondition) Match(e model.Event) bool {
	return c.match(e)
}

// FilterExpr is a conjunction of conditions.
type FilterExpr struct {
	Conditions []FilterCondition
}

// Match reports whether e satisfies every condition.
func (f *FilterExpr) Match(e model.Event) bool {
	for _, c := range f.Conditions {
		if !c.Match(e) {
			return false
		}
	}
	return true
}

// fieldAliases maps accepted field names to their canonical name.
var fieldAliases = map[string]string{
	"display": "display", "dpy": "display",
	"kind": "kind", "type": "kind",
	"detail": "detail", "connection": "detail", "value": "detail",
	"time": "time", "timestamp": "time", "ts": "time",
}

// ParseFilter compiles a comma-separated list of conditions, all of which
// must match.
//
// Fields: display (numeric), kind and detail (text), time (age, where
// "time>10m" means newer than ten minutes ago).
// Operators: = != ~ (contains, case-insensitive) ~= (regex) > < >= <=.
//
// Examples:
//   - "kind=hotplug"
//   - "display>=1,kind!=vsync"
//   - "detail=disconnected,time>1h"
func ParseFilter(expr string) (*FilterExpr, error) {
	f := &FilterExpr{}
	for term := range strings.SplitSeq(expr, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		c, err := compileCondition(term)
		if err != nil {
			return nil, err
		}
		f.Conditions = append(f.Conditions, c)
	}
	return f, nil
}

func compileCondition(term string) (FilterCondition, error) {
	for _, op := range operators {
		idx := strings.Index(term, string(op))
		if idx <= 0 {
			continue
		}

		name := strings.ToLower(strings.TrimSpace(term[:idx]))
		field, ok := fieldAliases[name]
		if !ok {
			return FilterCondition{}, fmt.Errorf("unknown filter field: %s", name)
		}

		c := FilterCondition{
			Field:    field,
			Operator: op,
			Value:    strings.TrimSpace(term[idx+len(op):]),
		}

		var err error
		switch field {
		case "display":
			c.match, err = displayMatcher(op, c.Value)
		case "kind":
			c.match, err = textMatcher(op, c.Value, func(e model.Event) string { return e.Kind.String() })
		case "detail":
			c.match, err = textMatcher(op, c.Value, model.Event.Detail)
		case "time":
			c.match, err = timeMatcher(op, c.Value)
		}
		if err != nil {
			return FilterCondition{}, err
		}
		return c, nil
	}
	return FilterCondition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", term)
}

func never(model.Event) bool { return false }

func displayMatcher(op FilterOp, value string) (func(model.Event) bool, error) {
	want, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid display value: %s", value)
	}
	cmp := func(got uint64) bool {
		switch op {
		case OpEqual:
			return got == want
		case OpNotEqual:
			return got != want
		case OpGreater:
			return got > want
		case OpLess:
			return got < want
		case OpGreaterEq:
			return got >= want
		case OpLessEq:
			return got <= want
		}
		return false
	}
	return func(e model.Event) bool { return cmp(uint64(e.Display)) }, nil
}

func textMatcher(op FilterOp, value string, get func(model.Event) string) (func(model.Event) bool, error) {
	switch op {
	case OpEqual:
		return func(e model.Event) bool { return get(e) == value }, nil
	case OpNotEqual:
		return func(e model.Event) bool { return get(e) != value }, nil
	case OpContains:
		needle := strings.ToLower(value)
		return func(e model.Event) bool { return strings.Contains(strings.ToLower(get(e)), needle) }, nil
	case OpRegex:
		re, err := regexp.Compile(value)
		if err != nil {
			return nil, fmt.Errorf("invalid regex: %w", err)
		}
		return func(e model.Event) bool { return re.MatchString(get(e)) }, nil
	}
	// Ordering operators never match text.
	return never, nil
}

func timeMatcher(op FilterOp, value string) (func(model.Event) bool, error) {
	age, err := ParseDuration(value)
	if err != nil {
		return nil, fmt.Errorf("invalid time value: %w", err)
	}
	at := time.Now().Add(-age)

	switch op {
	case OpGreater:
		return func(e model.Event) bool { return e.Time.After(at) }, nil
	case OpLess:
		return func(e model.Event) bool { return e.Time.Before(at) }, nil
	case OpGreaterEq:
		return func(e model.Event) bool { return !e.Time.Before(at) }, nil
	case OpLessEq:
		return func(e model.Event) bool { return !e.Time.After(at) }, nil
	}
	return never, nil
}

// FilterWithExpr returns the events matching expr. A nil or empty
// expression matches everything.
func FilterWithExpr(events []model.Event, expr *FilterExpr) []model.Event {
	if expr == nil || len(expr.Conditions) == 0 {
		return events
	}

	result := make([]model.Event, 0, len(events))
	for _, e := range events {
		if expr.Match(e) {
			result = append(result, e)
		}
	}
	return result
}
