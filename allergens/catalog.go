// Package allergens holds the EU allergen catalog and the compatibility rules
// used to split a menu for a diner's selected allergens.
package allergens

import (
	"fmt"
	"sort"
)

type Status string

const (
	No     Status = "no"
	Traces Status = "traces"
	Yes    Status = "yes"
)

func (s Status) Valid() bool {
	return s == No || s == Traces || s == Yes
}

type Allergen struct {
	ID     string `json:"id"`
	NameES string `json:"name_es"`
	NameEN string `json:"name_en"`
}

func (a Allergen) Name(lang string) string {
	if lang == "en" {
		return a.NameEN
	}
	return a.NameES
}

// Catalog lists the 14 allergens of Regulation (EU) 1169/2011 in display order.
var Catalog = []Allergen{
	{ID: "gluten", NameES: "Gluten", NameEN: "Gluten"},
	{ID: "crustaceans", NameES: "Crustáceos", NameEN: "Crustaceans"},
	{ID: "eggs", NameES: "Huevos", NameEN: "Eggs"},
	{ID: "fish", NameES: "Pescado", NameEN: "Fish"},
	{ID: "peanuts", NameES: "Cacahuetes", NameEN: "Peanuts"},
	{ID: "soy", NameES: "Soja", NameEN: "Soy"},
	{ID: "milk", NameES: "Lácteos", NameEN: "Milk"},
	{ID: "nuts", NameES: "Frutos de cáscara", NameEN: "Tree nuts"},
	{ID: "celery", NameES: "Apio", NameEN: "Celery"},
	{ID: "mustard", NameES: "Mostaza", NameEN: "Mustard"},
	{ID: "sesame", NameES: "Sésamo", NameEN: "Sesame"},
	{ID: "sulphites", NameES: "Sulfitos", NameEN: "Sulphites"},
	{ID: "lupin", NameES: "Altramuces", NameEN: "Lupin"},
	{ID: "molluscs", NameES: "Moluscos", NameEN: "Molluscs"},
}

var catalogIndex = func() map[string]int {
	idx := make(map[string]int, len(Catalog))
	for i, a := range Catalog {
		idx[a.ID] = i
	}
	return idx
}()

func Known(id string) bool {
	_, ok := catalogIndex[id]
	return ok
}

func Lookup(id string) (Allergen, bool) {
	i, ok := catalogIndex[id]
	if !ok {
		return Allergen{}, false
	}
	return Catalog[i], true
}

// Map is the per-dish allergen status map, keyed by catalog id.
type Map map[string]Status

// Contains returns the ids marked "yes", in catalog order.
func (m Map) Contains() []string {
	return m.withStatus(Yes)
}

// Traces returns the ids marked "traces", in catalog order.
func (m Map) Traces() []string {
	return m.withStatus(Traces)
}

func (m Map) Empty() bool {
	return len(m) == 0
}

func (m Map) Validate() error {
	for id, st := range m {
		if !Known(id) {
			return fmt.Errorf("unknown allergen %q", id)
		}
		if !st.Valid() {
			return fmt.Errorf("invalid status %q for allergen %q", st, id)
		}
	}
	return nil
}

// Normalize drops unknown ids and invalid statuses. Used on model output.
func (m Map) Normalize() Map {
	out := make(Map, len(m))
	for id, st := range m {
		if Known(id) && st.Valid() {
			out[id] = st
		}
	}
	return out
}

func (m Map) withStatus(want Status) []string {
	var ids []string
	for id, st := range m {
		if st == want {
			ids = append(ids, id)
		}
	}
	sortByCatalog(ids)
	return ids
}

func sortByCatalog(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, okA := catalogIndex[ids[i]]
		b, okB := catalogIndex[ids[j]]
		switch {
		case okA && okB:
			return a < b
		case okA != okB:
			return okA
		default:
			return ids[i] < ids[j]
		}
	})
}
