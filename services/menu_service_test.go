package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xbirks/alergenu-sub000/allergens"
	"github.com/xbirks/alergenu-sub000/live"
	"github.com/xbirks/alergenu-sub000/models"
)

func TestCategoryService_CRUD(t *testing.T) {
	db := setupTestDB(t)
	r := seedRestaurant(t, db, "cats")
	pub := &fakePublisher{}
	svc := NewCategoryService(db, pub)

	first, err := svc.Create(r.ID, CategoryInput{NameES: "Entrantes"})
	require.NoError(t, err)
	second, err := svc.Create(r.ID, CategoryInput{NameES: "Postres", NameEN: "Desserts"})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Order)
	assert.Equal(t, 1, second.Order)

	ev, ok := pub.last(live.EventCategoriesSnapshot)
	require.True(t, ok)
	assert.Len(t, ev.Data.([]models.Category), 2)

	_, err = svc.Create(r.ID, CategoryInput{NameES: " "})
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = svc.Create(r.ID, CategoryInput{NameES: "Cenas", VisibleFrom: "20:00"})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	updated, err := svc.Update(r.ID, first.ID, CategoryInput{NameES: "Para picar", VisibleFrom: "12:00", VisibleTo: "16:00"})
	require.NoError(t, err)
	assert.Equal(t, "Para picar", updated.NameES)
	assert.Equal(t, "12:00", updated.VisibleFrom)

	list, err := svc.Reorder(r.ID, []string{second.ID, first.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	_, err = svc.Reorder(r.ID, []string{"missing"})
	assert.True(t, errors.Is(err, ErrNotFound))

	other := seedRestaurant(t, db, "other-cats")
	_, err = svc.Update(other.ID, first.ID, CategoryInput{NameES: "Robado"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCategoryService_DeleteRefusedWithItems(t *testing.T) {
	db := setupTestDB(t)
	r := seedRestaurant(t, db, "delcat")
	svc := NewCategoryService(db, nil)
	cat := seedCategory(t, db, r.ID, "Carnes", 0)
	item := seedItem(t, db, cat, "Secreto", 1500, allergens.Map{}, false)

	err := svc.Delete(r.ID, cat.ID)
	assert.True(t, errors.Is(err, ErrCategoryNotEmpty))

	require.NoError(t, db.Delete(item).Error)
	require.NoError(t, svc.Delete(r.ID, cat.ID))

	_, err = svc.Get(r.ID, cat.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMenuItemService_HistoryOnEachSave(t *testing.T) {
	db := setupTestDB(t)
	r := seedRestaurant(t, db, "items")
	cat := seedCategory(t, db, r.ID, "Arroces", 0)
	pub := &fakePublisher{}
	svc := NewMenuItemService(db, pub, nil)

	item, err := svc.Create(r.ID, "user-1", MenuItemInput{
		CategoryID: cat.ID,
		NameES:     "Arroz negro",
		Price:      1600,
		Allergens:  allergens.Map{"molluscs": allergens.Yes},
	})
	require.NoError(t, err)
	assert.True(t, item.Available)

	_, err = svc.Update(r.ID, "user-1", item.ID, MenuItemInput{
		CategoryID: cat.ID,
		NameES:     "Arroz negro",
		Price:      1750,
		Allergens:  allergens.Map{"molluscs": allergens.Yes, "fish": allergens.Traces},
		Extras:     []models.Extra{{NameES: "Alioli", Price: 100, Allergens: allergens.Map{"eggs": allergens.Yes}}},
	})
	require.NoError(t, err)

	history, err := svc.History(r.ID, item.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	prices := []int64{history[0].Snapshot.Price, history[1].Snapshot.Price}
	assert.ElementsMatch(t, []int64{1600, 1750}, prices)

	ev, ok := pub.last(live.EventMenuItemsSnapshot)
	require.True(t, ok)
	assert.Len(t, ev.Data.([]models.MenuItem), 1)
}

func TestMenuItemService_Validation(t *testing.T) {
	db := setupTestDB(t)
	r := seedRestaurant(t, db, "valid")
	cat := seedCategory(t, db, r.ID, "Carta", 0)
	other := seedRestaurant(t, db, "foreign")
	foreignCat := seedCategory(t, db, other.ID, "Carta", 0)
	svc := NewMenuItemService(db, nil, nil)

	_, err := svc.Create(r.ID, "u", MenuItemInput{CategoryID: cat.ID, NameES: "X", Allergens: allergens.Map{"bacon": allergens.Yes}})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.Create(r.ID, "u", MenuItemInput{CategoryID: cat.ID, NameES: "X", Allergens: allergens.Map{"milk": "maybe"}})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.Create(r.ID, "u", MenuItemInput{CategoryID: cat.ID, NameES: "X", Price: -5})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = svc.Create(r.ID, "u", MenuItemInput{CategoryID: foreignCat.ID, NameES: "X"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMenuItemService_ToggleAndImage(t *testing.T) {
	db := setupTestDB(t)
	r := seedRestaurant(t, db, "toggle")
	cat := seedCategory(t, db, r.ID, "Carta", 0)
	item := seedItem(t, db, cat, "Tortilla", 700, allergens.Map{"eggs": allergens.Yes}, false)
	store := &memoryStore{}
	svc := NewMenuItemService(db, nil, store)

	toggled, err := svc.ToggleAvailability(r.ID, item.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Available)

	var reloaded models.MenuItem
	require.NoError(t, db.First(&reloaded, "id = ?", item.ID).Error)
	assert.False(t, reloaded.Available)

	updated, err := svc.UploadImage(context.Background(), r.ID, item.ID, "tortilla.jpg", "image/jpeg", strings.NewReader("jpg"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.ImageURL, "https://cdn.test/"+r.ID+"/dishes/"))
	assert.Len(t, store.objects, 1)

	_, err = svc.UploadImage(context.Background(), r.ID, item.ID, "menu.pdf", "application/pdf", strings.NewReader("pdf"))
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestDailyMenuService(t *testing.T) {
	db := setupTestDB(t)
	r := seedRestaurant(t, db, "daily")
	pub := &fakePublisher{}
	svc := NewDailyMenuService(db, pub)

	menu, err := svc.Get(r.ID)
	require.NoError(t, err)
	assert.False(t, menu.Published)
	assert.Empty(t, menu.Courses)

	again, err := svc.Get(r.ID)
	require.NoError(t, err)
	assert.Equal(t, menu.ID, again.ID)

	_, err = svc.Put(r.ID, DailyMenuInput{Courses: []models.Course{{NameES: ""}}})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	saved, err := svc.Put(r.ID, DailyMenuInput{
		Price:         1290,
		IncludesDrink: true,
		VisibleFrom:   "13:00",
		VisibleTo:     "16:00",
		Courses: []models.Course{{NameES: "Primeros", Dishes: []models.DailyDish{
			{NameES: "Ensalada", Allergens: allergens.Map{"mustard": allergens.Traces}},
		}}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1290), saved.Price)

	published, err := svc.SetPublished(r.ID, true)
	require.NoError(t, err)
	assert.True(t, published.Published)

	stored, err := svc.Get(r.ID)
	require.NoError(t, err)
	assert.True(t, stored.Published)
	assert.True(t, stored.IncludesDrink)
	require.Len(t, stored.Courses, 1)
	assert.Equal(t, "Ensalada", stored.Courses[0].Dishes[0].NameES)

	_, ok := pub.last(live.EventDailyMenuSnapshot)
	assert.True(t, ok)

	var count int64
	db.Model(&models.DailyMenu{}).Where("restaurant_id = ?", r.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRestaurantService_Update(t *testing.T) {
	db := setupTestDB(t)
	r := seedRestaurant(t, db, "profile")
	seedRestaurant(t, db, "taken")
	svc := NewRestaurantService(db, nil)

	name := "Nuevo Nombre"
	lang := "en"
	updated, err := svc.Update(r.ID, RestaurantUpdate{Name: &name, DefaultLanguage: &lang})
	require.NoError(t, err)
	assert.Equal(t, "Nuevo Nombre", updated.Name)
	assert.Equal(t, "en", updated.DefaultLanguage)
	assert.Equal(t, "profile", updated.Slug)

	slug := "Taken"
	_, err = svc.Update(r.ID, RestaurantUpdate{Slug: &slug})
	assert.True(t, errors.Is(err, ErrSlugTaken))

	slug = "Mi Bar Favorito"
	updated, err = svc.Update(r.ID, RestaurantUpdate{Slug: &slug})
	require.NoError(t, err)
	assert.Equal(t, "mi-bar-favorito", updated.Slug)

	bad := "fr"
	_, err = svc.Update(r.ID, RestaurantUpdate{DefaultLanguage: &bad})
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
