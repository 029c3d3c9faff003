package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xbirks/alergenu-sub000/allergens"
	"github.com/xbirks/alergenu-sub000/live"
	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/storage"
	"github.com/xbirks/alergenu-sub000/utils"
	"gorm.io/gorm"
)

type MenuItemInput struct {
	CategoryID    string         `json:"category_id"`
	NameES        string         `json:"name_es"`
	NameEN        string         `json:"name_en"`
	DescriptionES string         `json:"description_es"`
	DescriptionEN string         `json:"description_en"`
	Price         int64          `json:"price"`
	Allergens     allergens.Map  `json:"allergens"`
	Available     *bool          `json:"available"`
	Extras        []models.Extra `json:"extras"`
	ImageURL      string         `json:"image_url"`
	Order         *int           `json:"order"`
}

func (in MenuItemInput) validate() error {
	if strings.TrimSpace(in.NameES) == "" {
		return fmt.Errorf("%w: name_es is required", ErrInvalidInput)
	}
	if in.CategoryID == "" {
		return fmt.Errorf("%w: category_id is required", ErrInvalidInput)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}
	if err := in.Allergens.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return validateExtras(in.Extras)
}

func validateExtras(extras []models.Extra) error {
	for i, extra := range extras {
		if strings.TrimSpace(extra.NameES) == "" {
			return fmt.Errorf("%w: extra %d needs a name", ErrInvalidInput, i+1)
		}
		if extra.Price < 0 {
			return fmt.Errorf("%w: extra %d has a negative price", ErrInvalidInput, i+1)
		}
		if err := extra.Allergens.Validate(); err != nil {
			return fmt.Errorf("%w: extra %d: %v", ErrInvalidInput, i+1, err)
		}
	}
	return nil
}

type MenuItemService struct {
	db    *gorm.DB
	pub   Publisher
	store storage.ImageStore
}

func NewMenuItemService(db *gorm.DB, pub Publisher, store storage.ImageStore) *MenuItemService {
	return &MenuItemService{db: db, pub: publisherOrNop(pub), store: store}
}

// List returns the dishes of the live menu, pending imports excluded.
func (s *MenuItemService) List(restaurantID, categoryID string) ([]models.MenuItem, error) {
	items := make([]models.MenuItem, 0)
	query := s.db.Where("restaurant_id = ? AND review_status IS NULL", restaurantID)
	if categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	err := query.Order("sort_order ASC").Order("created_at ASC").Find(&items).Error
	return items, err
}

func (s *MenuItemService) Get(restaurantID, id string) (*models.MenuItem, error) {
	return findMenuItem(s.db, restaurantID, id)
}

func (s *MenuItemService) Create(restaurantID, userID string, in MenuItemInput) (*models.MenuItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := findCategory(s.db, restaurantID, in.CategoryID); err != nil {
		return nil, err
	}

	item := models.MenuItem{
		RestaurantID: restaurantID,
		Available:    true,
	}
	applyMenuItemInput(&item, in)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		return recordHistory(tx, &item, userID)
	})
	if err != nil {
		return nil, err
	}
	s.publish(restaurantID)
	return &item, nil
}

// Update replaces the editable fields and appends a history snapshot in the
// same transaction.
func (s *MenuItemService) Update(restaurantID, userID, id string, in MenuItemInput) (*models.MenuItem, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	item, err := findMenuItem(s.db, restaurantID, id)
	if err != nil {
		return nil, err
	}
	if in.CategoryID != item.CategoryID {
		if _, err := findCategory(s.db, restaurantID, in.CategoryID); err != nil {
			return nil, err
		}
	}

	applyMenuItemInput(item, in)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(item).Error; err != nil {
			return err
		}
		return recordHistory(tx, item, userID)
	})
	if err != nil {
		return nil, err
	}
	s.publish(restaurantID)
	return item, nil
}

func (s *MenuItemService) Delete(restaurantID, id string) error {
	item, err := findMenuItem(s.db, restaurantID, id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(item).Error; err != nil {
		return err
	}
	s.publish(restaurantID)
	return nil
}

func (s *MenuItemService) ToggleAvailability(restaurantID, id string) (*models.MenuItem, error) {
	item, err := findMenuItem(s.db, restaurantID, id)
	if err != nil {
		return nil, err
	}
	item.Available = !item.Available
	if err := s.db.Model(item).Update("available", item.Available).Error; err != nil {
		return nil, err
	}
	s.publish(restaurantID)
	return item, nil
}

// UploadImage stores the picture and points the dish at it.
func (s *MenuItemService) UploadImage(ctx context.Context, restaurantID, id, filename, contentType string, body io.Reader) (*models.MenuItem, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: image storage is not configured", ErrInvalidInput)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: file must be an image", ErrInvalidInput)
	}
	item, err := findMenuItem(s.db, restaurantID, id)
	if err != nil {
		return nil, err
	}

	url, err := s.store.Save(ctx, storage.ObjectKey(restaurantID, "dishes", filename), contentType, body)
	if err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}
	item.ImageURL = url
	if err := s.db.Model(item).Update("image_url", url).Error; err != nil {
		return nil, err
	}
	s.publish(restaurantID)
	return item, nil
}

// History lists the saved versions of a dish, newest first.
func (s *MenuItemService) History(restaurantID, id string) ([]models.MenuItemHistory, error) {
	history := make([]models.MenuItemHistory, 0)
	err := s.db.Where("menu_item_id = ? AND restaurant_id = ?", id, restaurantID).
		Order("created_at DESC").
		Find(&history).Error
	return history, err
}

func (s *MenuItemService) publish(restaurantID string) {
	items, err := s.List(restaurantID, "")
	if err != nil {
		utils.ErrorLogger.Printf("Error loading menu items snapshot: %v", err)
		return
	}
	s.pub.Publish(restaurantID, live.EventMenuItemsSnapshot, items)
}

func applyMenuItemInput(item *models.MenuItem, in MenuItemInput) {
	item.CategoryID = in.CategoryID
	item.NameES = strings.TrimSpace(in.NameES)
	item.NameEN = strings.TrimSpace(in.NameEN)
	item.DescriptionES = strings.TrimSpace(in.DescriptionES)
	item.DescriptionEN = strings.TrimSpace(in.DescriptionEN)
	item.Price = in.Price
	item.Allergens = in.Allergens
	if item.Allergens == nil {
		item.Allergens = allergens.Map{}
	}
	item.Extras = in.Extras
	if in.Available != nil {
		item.Available = *in.Available
	}
	if in.ImageURL != "" {
		item.ImageURL = in.ImageURL
	}
	if in.Order != nil {
		item.Order = *in.Order
	}
}

func recordHistory(tx *gorm.DB, item *models.MenuItem, userID string) error {
	entry := models.MenuItemHistory{
		MenuItemID:   item.ID,
		RestaurantID: item.RestaurantID,
		EditedBy:     userID,
		Snapshot:     item.Snapshot(),
	}
	return tx.Create(&entry).Error
}

func findMenuItem(db *gorm.DB, restaurantID, id string) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := db.Where("id = ? AND restaurant_id = ?", id, restaurantID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}
