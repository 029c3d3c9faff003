package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xbirks/alergenu-sub000/live"
	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/utils"
	"gorm.io/gorm"
)

type CategoryInput struct {
	NameES      string `json:"name_es"`
	NameEN      string `json:"name_en"`
	Order       *int   `json:"order"`
	VisibleFrom string `json:"visible_from"`
	VisibleTo   string `json:"visible_to"`
}

func (in CategoryInput) validate() error {
	if strings.TrimSpace(in.NameES) == "" {
		return fmt.Errorf("%w: name_es is required", ErrInvalidInput)
	}
	return ValidateWindow(in.VisibleFrom, in.VisibleTo)
}

type CategoryService struct {
	db  *gorm.DB
	pub Publisher
}

func NewCategoryService(db *gorm.DB, pub Publisher) *CategoryService {
	return &CategoryService{db: db, pub: publisherOrNop(pub)}
}

func (s *CategoryService) List(restaurantID string) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	err := s.db.Where("restaurant_id = ?", restaurantID).
		Order("sort_order ASC").Order("created_at ASC").
		Find(&categories).Error
	return categories, err
}

func (s *CategoryService) Get(restaurantID, id string) (*models.Category, error) {
	return findCategory(s.db, restaurantID, id)
}

func (s *CategoryService) Create(restaurantID string, in CategoryInput) (*models.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	category := models.Category{
		RestaurantID: restaurantID,
		NameES:       strings.TrimSpace(in.NameES),
		NameEN:       strings.TrimSpace(in.NameEN),
		VisibleFrom:  in.VisibleFrom,
		VisibleTo:    in.VisibleTo,
	}
	if in.Order != nil {
		category.Order = *in.Order
	} else {
		var max struct{ Max int }
		s.db.Model(&models.Category{}).
			Select("COALESCE(MAX(sort_order), -1) AS max").
			Where("restaurant_id = ?", restaurantID).
			Scan(&max)
		category.Order = max.Max + 1
	}

	if err := s.db.Create(&category).Error; err != nil {
		return nil, err
	}
	s.publish(restaurantID)
	return &category, nil
}

func (s *CategoryService) Update(restaurantID, id string, in CategoryInput) (*models.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	category, err := findCategory(s.db, restaurantID, id)
	if err != nil {
		return nil, err
	}

	category.NameES = strings.TrimSpace(in.NameES)
	category.NameEN = strings.TrimSpace(in.NameEN)
	category.VisibleFrom = in.VisibleFrom
	category.VisibleTo = in.VisibleTo
	if in.Order != nil {
		category.Order = *in.Order
	}

	if err := s.db.Save(category).Error; err != nil {
		return nil, err
	}
	s.publish(restaurantID)
	return category, nil
}

// Delete refuses while dishes still point at the category.
func (s *CategoryService) Delete(restaurantID, id string) error {
	category, err := findCategory(s.db, restaurantID, id)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.MenuItem{}).Where("category_id = ?", category.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryNotEmpty
	}

	if err := s.db.Delete(category).Error; err != nil {
		return err
	}
	s.publish(restaurantID)
	return nil
}

// Reorder assigns positions following ids. Every id must belong to the
// restaurant.
func (s *CategoryService) Reorder(restaurantID string, ids []string) ([]models.Category, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			res := tx.Model(&models.Category{}).
				Where("id = ? AND restaurant_id = ?", id, restaurantID).
				Update("sort_order", i)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: category %s", ErrNotFound, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(restaurantID)
	return s.List(restaurantID)
}

func (s *CategoryService) publish(restaurantID string) {
	categories, err := s.List(restaurantID)
	if err != nil {
		utils.ErrorLogger.Printf("Error loading categories snapshot: %v", err)
		return
	}
	s.pub.Publish(restaurantID, live.EventCategoriesSnapshot, categories)
}

func findCategory(db *gorm.DB, restaurantID, id string) (*models.Category, error) {
	var category models.Category
	if err := db.Where("id = ? AND restaurant_id = ?", id, restaurantID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}
