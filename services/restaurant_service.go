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

const defaultSlug = "restaurante"

func findRestaurant(db *gorm.DB, id string) (*models.Restaurant, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	var restaurant models.Restaurant
	if err := db.First(&restaurant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &restaurant, nil
}

// uniqueSlug appends -2, -3, ... until the slug is free. excludeID lets a
// restaurant keep its own slug.
func uniqueSlug(db *gorm.DB, name, excludeID string) (string, error) {
	base := utils.Slugify(name)
	if base == "" {
		base = defaultSlug
	}

	candidate := base
	for i := 2; ; i++ {
		var count int64
		query := db.Model(&models.Restaurant{}).Where("slug = ?", candidate)
		if excludeID != "" {
			query = query.Where("id <> ?", excludeID)
		}
		if err := query.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

type RestaurantUpdate struct {
	Name            *string `json:"name"`
	Slug            *string `json:"slug"`
	DefaultLanguage *string `json:"default_language"`
}

type RestaurantService struct {
	db  *gorm.DB
	pub Publisher
}

func NewRestaurantService(db *gorm.DB, pub Publisher) *RestaurantService {
	return &RestaurantService{db: db, pub: publisherOrNop(pub)}
}

func (s *RestaurantService) Get(restaurantID string) (*models.Restaurant, error) {
	return findRestaurant(s.db, restaurantID)
}

func (s *RestaurantService) Update(restaurantID string, in RestaurantUpdate) (*models.Restaurant, error) {
	restaurant, err := findRestaurant(s.db, restaurantID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		restaurant.Name = name
	}
	if in.Slug != nil {
		slug := utils.Slugify(*in.Slug)
		if slug == "" {
			return nil, fmt.Errorf("%w: slug is empty", ErrInvalidInput)
		}
		var count int64
		if err := s.db.Model(&models.Restaurant{}).
			Where("slug = ? AND id <> ?", slug, restaurant.ID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrSlugTaken
		}
		restaurant.Slug = slug
	}
	if in.DefaultLanguage != nil {
		lang := *in.DefaultLanguage
		if lang != "es" && lang != "en" {
			return nil, fmt.Errorf("%w: language must be es or en", ErrInvalidInput)
		}
		restaurant.DefaultLanguage = lang
	}

	if err := s.db.Save(restaurant).Error; err != nil {
		return nil, err
	}
	s.pub.Publish(restaurant.ID, live.EventRestaurantUpdate, restaurant)
	return restaurant, nil
}
