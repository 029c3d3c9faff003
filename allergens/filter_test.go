package allergens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dish struct {
	name string
	m    Map
}

func dishAllergens(d dish) Map { return d.m }

func sampleDishes() []dish {
	return []dish{
		{name: "bread", m: Map{"gluten": Yes}},
		{name: "salad", m: Map{"gluten": No, "mustard": Traces}},
		{name: "water", m: Map{}},
		{name: "cheese board", m: Map{"milk": Yes, "nuts": Traces}},
		{name: "soup", m: nil},
	}
}

func TestPartition_EmptySelectionIsInert(t *testing.T) {
	items := sampleDishes()

	compatible, incompatible := Partition(items, Set{}, dishAllergens)

	assert.Len(t, compatible, len(items))
	assert.Empty(t, incompatible)
	for _, d := range items {
		assert.True(t, Compatible(d.m, nil), d.name)
	}
}

func TestPartition_AnyOverlapIsIncompatible(t *testing.T) {
	items := sampleDishes()
	selected := NewSet("gluten", "nuts")

	compatible, incompatible := Partition(items, selected, dishAllergens)

	var compatibleNames, incompatibleNames []string
	for _, d := range compatible {
		compatibleNames = append(compatibleNames, d.name)
	}
	for _, d := range incompatible {
		incompatibleNames = append(incompatibleNames, d.name)
	}
	assert.Equal(t, []string{"salad", "water", "soup"}, compatibleNames)
	assert.Equal(t, []string{"bread", "cheese board"}, incompatibleNames)

	// every item lands in exactly one side
	assert.Equal(t, len(items), len(compatible)+len(incompatible))
	for _, d := range incompatible {
		assert.NotEmpty(t, Conflicts(d.m, selected), d.name)
	}
}

func TestCompatible_TracesCount(t *testing.T) {
	m := Map{"mustard": Traces}
	assert.False(t, Compatible(m, NewSet("mustard")))
	assert.True(t, Compatible(Map{"mustard": No}, NewSet("mustard")))
}

func TestCompatibleLists(t *testing.T) {
	assert.True(t, CompatibleLists([]string{"milk"}, []string{"eggs"}, NewSet("fish")))
	assert.False(t, CompatibleLists(nil, []string{"eggs"}, NewSet("eggs")))
	assert.True(t, CompatibleLists([]string{"milk"}, nil, nil))
}

func TestParseSet(t *testing.T) {
	s, err := ParseSet(" Gluten, milk,,")
	require.NoError(t, err)
	assert.Equal(t, []string{"gluten", "milk"}, s.IDs())

	s, err = ParseSet("")
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = ParseSet("gluten,chocolate")
	assert.Error(t, err)
}

func TestMap_ContainsAndTracesInCatalogOrder(t *testing.T) {
	m := Map{"sesame": Yes, "gluten": Yes, "milk": Traces, "eggs": No}
	assert.Equal(t, []string{"gluten", "sesame"}, m.Contains())
	assert.Equal(t, []string{"milk"}, m.Traces())
}

func TestMap_ValidateAndNormalize(t *testing.T) {
	assert.NoError(t, Map{"gluten": Yes}.Validate())
	assert.Error(t, Map{"gluten": "maybe"}.Validate())
	assert.Error(t, Map{"chocolate": Yes}.Validate())

	n := Map{"gluten": Yes, "chocolate": Yes, "milk": "maybe"}.Normalize()
	assert.Equal(t, Map{"gluten": Yes}, n)
}
