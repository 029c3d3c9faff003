package allergens

import (
	"fmt"
	"strings"
)

// Set is a diner's selection of allergen ids.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// ParseSet reads a comma separated list such as "gluten,milk". Empty entries
// are skipped and unknown ids are rejected.
func ParseSet(raw string) (Set, error) {
	s := Set{}
	for _, part := range strings.Split(raw, ",") {
		id := strings.ToLower(strings.TrimSpace(part))
		if id == "" {
			continue
		}
		if !Known(id) {
			return nil, fmt.Errorf("unknown allergen %q", id)
		}
		s[id] = struct{}{}
	}
	return s, nil
}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the selection in catalog order.
func (s Set) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sortByCatalog(ids)
	return ids
}

// CompatibleLists reports whether none of contains or traces is selected.
// An empty selection is compatible with everything.
func CompatibleLists(contains, traces []string, selected Set) bool {
	if len(selected) == 0 {
		return true
	}
	for _, id := range contains {
		if selected.Has(id) {
			return false
		}
	}
	for _, id := range traces {
		if selected.Has(id) {
			return false
		}
	}
	return true
}

func Compatible(m Map, selected Set) bool {
	return CompatibleLists(m.Contains(), m.Traces(), selected)
}

// Conflicts returns the selected ids the map contains or may contain as traces.
func Conflicts(m Map, selected Set) []string {
	var out []string
	for id, st := range m {
		if (st == Yes || st == Traces) && selected.Has(id) {
			out = append(out, id)
		}
	}
	sortByCatalog(out)
	return out
}

// Partition splits items into compatible and incompatible, preserving order.
// Incompatible items are returned, not dropped: callers must still show them.
func Partition[T any](items []T, selected Set, allergensOf func(T) Map) (compatible, incompatible []T) {
	for _, it := range items {
		if Compatible(allergensOf(it), selected) {
			compatible = append(compatible, it)
		} else {
			incompatible = append(incompatible, it)
		}
	}
	return compatible, incompatible
}
