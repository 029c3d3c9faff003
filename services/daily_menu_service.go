package services

import (
	"fmt"
	"strings"

	"github.com/xbirks/alergenu-sub000/live"
	"github.com/xbirks/alergenu-sub000/models"
	"gorm.io/gorm"
)

type DailyMenuInput struct {
	Courses         []models.Course `json:"courses"`
	Price           int64           `json:"price"`
	Published       bool            `json:"published"`
	VisibleFrom     string          `json:"visible_from"`
	VisibleTo       string          `json:"visible_to"`
	IncludesBread   bool            `json:"includes_bread"`
	IncludesDrink   bool            `json:"includes_drink"`
	IncludesDessert bool            `json:"includes_dessert"`
}

func (in DailyMenuInput) validate() error {
	if in.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidInput)
	}
	for i, course := range in.Courses {
		if strings.TrimSpace(course.NameES) == "" {
			return fmt.Errorf("%w: course %d needs a name", ErrInvalidInput, i+1)
		}
		for j, dish := range course.Dishes {
			if strings.TrimSpace(dish.NameES) == "" {
				return fmt.Errorf("%w: course %d dish %d needs a name", ErrInvalidInput, i+1, j+1)
			}
			if err := dish.Allergens.Validate(); err != nil {
				return fmt.Errorf("%w: course %d dish %d: %v", ErrInvalidInput, i+1, j+1, err)
			}
		}
	}
	return ValidateWindow(in.VisibleFrom, in.VisibleTo)
}

type DailyMenuService struct {
	db  *gorm.DB
	pub Publisher
}

func NewDailyMenuService(db *gorm.DB, pub Publisher) *DailyMenuService {
	return &DailyMenuService{db: db, pub: publisherOrNop(pub)}
}

// Get returns the singleton, creating an empty unpublished one on first read.
func (s *DailyMenuService) Get(restaurantID string) (*models.DailyMenu, error) {
	menu := models.DailyMenu{RestaurantID: restaurantID}
	err := s.db.Where(models.DailyMenu{RestaurantID: restaurantID}).
		Attrs(models.DailyMenu{Courses: []models.Course{}}).
		FirstOrCreate(&menu).Error
	if err != nil {
		return nil, err
	}
	return &menu, nil
}

func (s *DailyMenuService) Put(restaurantID string, in DailyMenuInput) (*models.DailyMenu, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	menu, err := s.Get(restaurantID)
	if err != nil {
		return nil, err
	}

	menu.Courses = in.Courses
	if menu.Courses == nil {
		menu.Courses = []models.Course{}
	}
	menu.Price = in.Price
	menu.Published = in.Published
	menu.VisibleFrom = in.VisibleFrom
	menu.VisibleTo = in.VisibleTo
	menu.IncludesBread = in.IncludesBread
	menu.IncludesDrink = in.IncludesDrink
	menu.IncludesDessert = in.IncludesDessert

	if err := s.db.Save(menu).Error; err != nil {
		return nil, err
	}
	s.pub.Publish(restaurantID, live.EventDailyMenuSnapshot, menu)
	return menu, nil
}

func (s *DailyMenuService) SetPublished(restaurantID string, published bool) (*models.DailyMenu, error) {
	menu, err := s.Get(restaurantID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(menu).Update("published", published).Error; err != nil {
		return nil, err
	}
	menu.Published = published
	s.pub.Publish(restaurantID, live.EventDailyMenuSnapshot, menu)
	return menu, nil
}
