package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xbirks/alergenu-sub000/allergens"
	"github.com/xbirks/alergenu-sub000/live"
	"github.com/xbirks/alergenu-sub000/models"
)

func TestConfidence(t *testing.T) {
	withAllergens := allergens.Map{"gluten": allergens.Yes}

	assert.Equal(t, ConfidenceLow, Confidence(models.MenuItem{Price: 0, Allergens: withAllergens}))
	assert.Equal(t, ConfidenceLow, Confidence(models.MenuItem{Price: 1200, Allergens: allergens.Map{}}))
	assert.Equal(t, ConfidenceLow, Confidence(models.MenuItem{Price: 1200}))
	assert.Equal(t, ConfidenceHigh, Confidence(models.MenuItem{Price: 1200, Allergens: withAllergens}))
	assert.Equal(t, ConfidenceHigh, Confidence(models.MenuItem{Price: 1200, Allergens: allergens.Map{"milk": allergens.No}}))
}

func TestReview_ListPendingOnly(t *testing.T) {
	db := setupTestDB(t)
	r := seedRestaurant(t, db, "review")
	cat := seedCategory(t, db, r.ID, "Entrantes", 0)
	seedItem(t, db, cat, "Croquetas", 0, allergens.Map{"gluten": allergens.Yes}, true)
	seedItem(t, db, cat, "Ensalada", 900, allergens.Map{"mustard": allergens.Traces}, true)
	seedItem(t, db, cat, "Pan", 200, allergens.Map{"gluten": allergens.Yes}, false)

	svc := NewReviewService(db, nil)
	state, err := svc.ListPending(r.ID)
	require.NoError(t, err)

	require.Len(t, state.Items, 2)
	assert.Equal(t, 2, state.Pending)
	assert.False(t, state.Done)
	assert.Equal(t, ConfidenceLow, state.Items[0].Confidence)
	assert.Equal(t, ConfidenceHigh, state.Items[1].Confidence)
}

func TestReview_ValidateClearsStatus(t *testing.T) {
	db := setupTestDB(t)
	r := seedRestaurant(t, db, "validate")
	cat := seedCategory(t, db, r.ID, "Principales", 0)
	item := seedItem(t, db, cat, "Paella", 1800, allergens.Map{}, true)
	other := seedItem(t, db, cat, "Fideuà", 1700, allergens.Map{"crustaceans": allergens.Yes}, true)

	pub := &fakePublisher{}
	svc := NewReviewService(db, pub)

	state, err := svc.Validate(r.ID, item.ID)
	require.NoError(t, err)
	assert.False(t, state.Done)
	require.Len(t, state.Items, 1)
	assert.Equal(t, other.ID, state.Items[0].ID)

	var reloaded models.MenuItem
	require.NoError(t, db.First(&reloaded, "id = ?", item.ID).Error)
	assert.Nil(t, reloaded.ReviewStatus)

	ev, ok := pub.last(live.EventReviewSnapshot)
	require.True(t, ok)
	assert.Equal(t, r.ID, ev.Channel)

	state, err = svc.Validate(r.ID, other.ID)
	require.NoError(t, err)
	assert.True(t, state.Done)
	assert.Equal(t, "/dashboard/menu", state.Redirect)

	_, err = svc.Validate(r.ID, other.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReview_DeleteRemovesFromSnapshots(t *testing.T) {
	db := setupTestDB(t)
	r := seedRestaurant(t, db, "delete")
	cat := seedCategory(t, db, r.ID, "Postres", 0)
	item := seedItem(t, db, cat, "Flan", 500, allergens.Map{"eggs": allergens.Yes, "milk": allergens.Yes}, true)
	keep := seedItem(t, db, cat, "Natillas", 500, allergens.Map{"milk": allergens.Yes}, true)

	pub := &fakePublisher{}
	svc := NewReviewService(db, pub)

	state, err := svc.Delete(r.ID, item.ID)
	require.NoError(t, err)
	require.Len(t, state.Items, 1)
	assert.Equal(t, keep.ID, state.Items[0].ID)

	ev, ok := pub.last(live.EventReviewSnapshot)
	require.True(t, ok)
	snapshot := ev.Data.(*ReviewState)
	for _, it := range snapshot.Items {
		assert.NotEqual(t, item.ID, it.ID)
	}

	var count int64
	db.Model(&models.MenuItem{}).Where("id = ?", item.ID).Count(&count)
	assert.Zero(t, count)
}

func TestReview_UpdateField(t *testing.T) {
	db := setupTestDB(t)
	r := seedRestaurant(t, db, "blur")
	cat := seedCategory(t, db, r.ID, "Entrantes", 0)
	other := seedCategory(t, db, r.ID, "Tapas", 1)
	item := seedItem(t, db, cat, "Bravas", 0, allergens.Map{}, true)

	svc := NewReviewService(db, nil)

	state, err := svc.UpdateField(r.ID, item.ID, "price", json.RawMessage(`650`))
	require.NoError(t, err)
	assert.Equal(t, ConfidenceLow, state.Items[0].Confidence)

	state, err = svc.UpdateField(r.ID, item.ID, "allergens", json.RawMessage(`{"sulphites":"traces"}`))
	require.NoError(t, err)
	assert.Equal(t, ConfidenceHigh, state.Items[0].Confidence)

	_, err = svc.UpdateField(r.ID, item.ID, "name_en", json.RawMessage(`"Spicy potatoes"`))
	require.NoError(t, err)
	_, err = svc.UpdateField(r.ID, item.ID, "category_id", json.RawMessage(`"`+other.ID+`"`))
	require.NoError(t, err)

	var reloaded models.MenuItem
	require.NoError(t, db.First(&reloaded, "id = ?", item.ID).Error)
	assert.Equal(t, int64(650), reloaded.Price)
	assert.Equal(t, allergens.Traces, reloaded.Allergens["sulphites"])
	assert.Equal(t, "Spicy potatoes", reloaded.NameEN)
	assert.Equal(t, other.ID, reloaded.CategoryID)
	assert.True(t, reloaded.Pending())

	_, err = svc.UpdateField(r.ID, item.ID, "restaurant_id", json.RawMessage(`"x"`))
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = svc.UpdateField(r.ID, item.ID, "allergens", json.RawMessage(`{"bacon":"yes"}`))
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = svc.UpdateField(r.ID, item.ID, "price", json.RawMessage(`-1`))
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestReview_ValidateAll(t *testing.T) {
	db := setupTestDB(t)
	r := seedRestaurant(t, db, "all")
	otherTenant := seedRestaurant(t, db, "other")
	cat := seedCategory(t, db, r.ID, "Carta", 0)
	otherCat := seedCategory(t, db, otherTenant.ID, "Carta", 0)
	seedItem(t, db, cat, "Uno", 100, allergens.Map{}, true)
	seedItem(t, db, cat, "Dos", 200, allergens.Map{}, true)
	seedItem(t, db, otherCat, "Ajeno", 300, allergens.Map{}, true)

	svc := NewReviewService(db, nil)
	state, err := svc.ValidateAll(r.ID)
	require.NoError(t, err)
	assert.True(t, state.Done)
	assert.Equal(t, ReviewDoneRedirect, state.Redirect)
	assert.Empty(t, state.Items)

	otherState, err := svc.ListPending(otherTenant.ID)
	require.NoError(t, err)
	assert.Len(t, otherState.Items, 1)
}
