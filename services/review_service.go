package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xbirks/alergenu-sub000/allergens"
	"github.com/xbirks/alergenu-sub000/live"
	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/utils"
	"gorm.io/gorm"
)

const (
	ConfidenceLow  = "low"
	ConfidenceHigh = "high"

	// ReviewDoneRedirect is where the client goes once nothing is pending.
	ReviewDoneRedirect = "/dashboard/menu"
)

// Confidence flags imported dishes that need a closer look: no price or no
// allergen information.
func Confidence(item models.MenuItem) string {
	if item.Price == 0 || item.Allergens.Empty() {
		return ConfidenceLow
	}
	return ConfidenceHigh
}

type ReviewItem struct {
	models.MenuItem
	Confidence string `json:"confidence"`
}

type ReviewState struct {
	Items    []ReviewItem `json:"items"`
	Pending  int          `json:"pending"`
	Done     bool         `json:"done"`
	Redirect string       `json:"redirect,omitempty"`
}

type ReviewService struct {
	db  *gorm.DB
	pub Publisher
}

func NewReviewService(db *gorm.DB, pub Publisher) *ReviewService {
	return &ReviewService{db: db, pub: publisherOrNop(pub)}
}

func (s *ReviewService) ListPending(restaurantID string) (*ReviewState, error) {
	var items []models.MenuItem
	if err := s.db.Where("restaurant_id = ? AND review_status = ?", restaurantID, models.ReviewPending).
		Order("sort_order ASC").Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}

	state := &ReviewState{Items: make([]ReviewItem, 0, len(items)), Pending: len(items)}
	for _, item := range items {
		state.Items = append(state.Items, ReviewItem{MenuItem: item, Confidence: Confidence(item)})
	}
	if len(items) == 0 {
		state.Done = true
		state.Redirect = ReviewDoneRedirect
	}
	return state, nil
}

// Validate moves one item from pending to the live menu.
func (s *ReviewService) Validate(restaurantID, id string) (*ReviewState, error) {
	item, err := s.pendingItem(restaurantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(item).Update("review_status", gorm.Expr("NULL")).Error; err != nil {
		return nil, err
	}
	return s.changed(restaurantID, true)
}

func (s *ReviewService) ValidateAll(restaurantID string) (*ReviewState, error) {
	err := s.db.Model(&models.MenuItem{}).
		Where("restaurant_id = ? AND review_status = ?", restaurantID, models.ReviewPending).
		Update("review_status", gorm.Expr("NULL")).Error
	if err != nil {
		return nil, err
	}
	return s.changed(restaurantID, true)
}

func (s *ReviewService) Delete(restaurantID, id string) (*ReviewState, error) {
	item, err := s.pendingItem(restaurantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Delete(item).Error; err != nil {
		return nil, err
	}
	return s.changed(restaurantID, false)
}

// UpdateField saves a single edited field of a pending item. Concurrent edits
// overwrite each other.
func (s *ReviewService) UpdateField(restaurantID, id, field string, value json.RawMessage) (*ReviewState, error) {
	item, err := s.pendingItem(restaurantID, id)
	if err != nil {
		return nil, err
	}

	column, err := s.applyField(item, field, value)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(item).Select(column).Updates(item).Error; err != nil {
		return nil, err
	}
	return s.changed(restaurantID, false)
}

// applyField decodes value into the named field of item and returns the
// column to write.
func (s *ReviewService) applyField(item *models.MenuItem, field string, value json.RawMessage) (string, error) {
	invalid := func(err error) error {
		return fmt.Errorf("%w: %s: %v", ErrInvalidInput, field, err)
	}

	switch field {
	case "name_es", "name_en", "description_es", "description_en":
		var text string
		if err := json.Unmarshal(value, &text); err != nil {
			return "", invalid(err)
		}
		text = strings.TrimSpace(text)
		switch field {
		case "name_es":
			if text == "" {
				return "", invalid(fmt.Errorf("cannot be empty"))
			}
			item.NameES = text
		case "name_en":
			item.NameEN = text
		case "description_es":
			item.DescriptionES = text
		default:
			item.DescriptionEN = text
		}
		return field, nil

	case "price":
		var price int64
		if err := json.Unmarshal(value, &price); err != nil {
			return "", invalid(err)
		}
		if price < 0 {
			return "", invalid(fmt.Errorf("cannot be negative"))
		}
		item.Price = price
		return "price", nil

	case "available":
		if err := json.Unmarshal(value, &item.Available); err != nil {
			return "", invalid(err)
		}
		return "available", nil

	case "category_id":
		var categoryID string
		if err := json.Unmarshal(value, &categoryID); err != nil {
			return "", invalid(err)
		}
		if _, err := findCategory(s.db, item.RestaurantID, categoryID); err != nil {
			return "", err
		}
		item.CategoryID = categoryID
		return "category_id", nil

	case "allergens":
		var m allergens.Map
		if err := json.Unmarshal(value, &m); err != nil {
			return "", invalid(err)
		}
		if err := m.Validate(); err != nil {
			return "", invalid(err)
		}
		if m == nil {
			m = allergens.Map{}
		}
		item.Allergens = m
		return "allergens", nil

	case "extras":
		var extras []models.Extra
		if err := json.Unmarshal(value, &extras); err != nil {
			return "", invalid(err)
		}
		if err := validateExtras(extras); err != nil {
			return "", err
		}
		item.Extras = extras
		return "extras", nil
	}

	return "", fmt.Errorf("%w: field %q cannot be edited", ErrInvalidInput, field)
}

func (s *ReviewService) pendingItem(restaurantID, id string) (*models.MenuItem, error) {
	item, err := findMenuItem(s.db, restaurantID, id)
	if err != nil {
		return nil, err
	}
	if !item.Pending() {
		return nil, fmt.Errorf("%w: dish is not pending review", ErrNotFound)
	}
	return item, nil
}

// changed reloads the pending list and pushes it to the live clients. The
// menu snapshot is refreshed too when items were promoted.
func (s *ReviewService) changed(restaurantID string, promoted bool) (*ReviewState, error) {
	state, err := s.ListPending(restaurantID)
	if err != nil {
		return nil, err
	}
	s.pub.Publish(restaurantID, live.EventReviewSnapshot, state)

	if promoted {
		var items []models.MenuItem
		if err := s.db.Where("restaurant_id = ? AND review_status IS NULL", restaurantID).
			Order("sort_order ASC").Order("created_at ASC").
			Find(&items).Error; err != nil {
			utils.ErrorLogger.Printf("Error loading menu items snapshot: %v", err)
		} else {
			s.pub.Publish(restaurantID, live.EventMenuItemsSnapshot, items)
		}
	}
	return state, nil
}
