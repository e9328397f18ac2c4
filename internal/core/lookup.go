package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jmylchreest/fbhwc/internal/model"
)

// LookupByID finds an event by its ULID or by a unique, case-insensitive
// prefix of it. Returns nil if not found.
func LookupByID(events []model.Event, id string) (*model.Event, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return nil, nil
	}

	var found *model.Event
	for i := range events {
		if events[i].ID == id {
			return &events[i], nil
		}
		if strings.HasPrefix(events[i].ID, id) {
			if found != nil {
				return nil, fmt.Errorf("event id prefix %q is ambiguous", id)
			}
			found = &events[i]
		}
	}
	return found, nil
}

// UniqueDisplays returns the sorted display handles that appear in events.
func UniqueDisplays(events []model.Event) []model.DisplayHandle {
	seen := make(map[model.DisplayHandle]bool)
	var displays []model.DisplayHandle

	for _, e := range events {
		if !seen[e.Display] {
			seen[e.Display] = true
			displays = append(displays, e.Display)
		}
	}

	slices.Sort(displays)
	return displays
}

// CountByKind returns how many events of each kind there are.
func CountByKind(events []model.Event) map[model.CallbackKind]int {
	counts := make(map[model.CallbackKind]int)
	for _, e := range events {
		counts[e.Kind]++
	}
	return counts
}
