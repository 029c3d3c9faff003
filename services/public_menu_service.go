package services

import (
	"errors"
	"time"

	"github.com/xbirks/alergenu-sub000/allergens"
	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/utils"
	"gorm.io/gorm"
)

type PublicExtra struct {
	Name       string   `json:"name"`
	Price      int64    `json:"price"`
	PriceLabel string   `json:"price_label"`
	Contains   []string `json:"contains"`
	Traces     []string `json:"traces"`
	Compatible bool     `json:"compatible"`
}

type PublicItem struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Price       int64         `json:"price"`
	PriceLabel  string        `json:"price_label"`
	ImageURL    string        `json:"image_url,omitempty"`
	Contains    []string      `json:"contains"`
	Traces      []string      `json:"traces"`
	Conflicts   []string      `json:"conflicts,omitempty"`
	Extras      []PublicExtra `json:"extras,omitempty"`
}

// IncompatibleGroup holds the dishes that clash with the selection. They stay
// in the response, folded behind a disclosure in the UI.
type IncompatibleGroup struct {
	Collapsed bool         `json:"collapsed"`
	Items     []PublicItem `json:"items"`
}

type PublicCategory struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Items        []PublicItem      `json:"items"`
	Incompatible IncompatibleGroup `json:"incompatible"`
}

type PublicDish struct {
	Name       string   `json:"name"`
	Contains   []string `json:"contains"`
	Traces     []string `json:"traces"`
	Compatible bool     `json:"compatible"`
}

type PublicCourse struct {
	Name   string       `json:"name"`
	Dishes []PublicDish `json:"dishes"`
}

type PublicDailyMenu struct {
	Price           int64          `json:"price"`
	PriceLabel      string         `json:"price_label"`
	Courses         []PublicCourse `json:"courses"`
	IncludesBread   bool           `json:"includes_bread"`
	IncludesDrink   bool           `json:"includes_drink"`
	IncludesDessert bool           `json:"includes_dessert"`
}

type PublicAllergen struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

type PublicRestaurant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type PublicMenu struct {
	Restaurant        PublicRestaurant `json:"restaurant"`
	Lang              string           `json:"lang"`
	SelectedAllergens []string         `json:"selected_allergens"`
	ShowAllergenSheet bool             `json:"show_allergen_sheet"`
	Categories        []PublicCategory `json:"categories"`
	DailyMenu         *PublicDailyMenu `json:"daily_menu,omitempty"`
	Allergens         []PublicAllergen `json:"allergens"`
}

type PublicMenuQuery struct {
	Slug      string
	Lang      string
	Selected  allergens.Set
	SheetOpen bool
}

type LocalizedExtra struct {
	Name      string        `json:"name"`
	Price     int64         `json:"price"`
	Allergens allergens.Map `json:"allergens"`
}

type LocalizedItem struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       int64            `json:"price"`
	PriceLabel  string           `json:"price_label"`
	Available   bool             `json:"available"`
	Allergens   allergens.Map    `json:"allergens"`
	Extras      []LocalizedExtra `json:"extras"`
}

type LocalizedCategory struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Items []LocalizedItem `json:"items"`
}

type LocalizedMenu struct {
	RestaurantID string              `json:"restaurant_id"`
	Name         string              `json:"name"`
	Lang         string              `json:"lang"`
	Categories   []LocalizedCategory `json:"categories"`
}

// PublicMenuService renders what diners see. Times are evaluated in the
// restaurant timezone.
type PublicMenuService struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

func NewPublicMenuService(db *gorm.DB, loc *time.Location) *PublicMenuService {
	if loc == nil {
		loc = time.UTC
	}
	return &PublicMenuService{db: db, loc: loc, now: time.Now}
}

// NormalizeLang maps anything but "en" to Spanish.
func NormalizeLang(lang string) string {
	if lang == "en" {
		return "en"
	}
	return "es"
}

// pick returns the English text when asked for and present.
func pick(lang, es, en string) string {
	if lang == "en" && en != "" {
		return en
	}
	return es
}

func (s *PublicMenuService) Menu(q PublicMenuQuery) (*PublicMenu, error) {
	restaurant, err := s.bySlug(q.Slug)
	if err != nil {
		return nil, err
	}
	lang := NormalizeLang(q.Lang)
	if q.Lang == "" {
		lang = NormalizeLang(restaurant.DefaultLanguage)
	}
	now := s.now().In(s.loc)

	categories, items, err := s.liveMenu(restaurant.ID, true)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]models.MenuItem)
	for _, item := range items {
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}

	menu := &PublicMenu{
		Restaurant:        PublicRestaurant{ID: restaurant.ID, Name: restaurant.Name, Slug: restaurant.Slug},
		Lang:              lang,
		SelectedAllergens: q.Selected.IDs(),
		ShowAllergenSheet: q.SheetOpen,
		Categories:        make([]PublicCategory, 0, len(categories)),
		Allergens:         make([]PublicAllergen, 0, len(allergens.Catalog)),
	}

	for _, category := range categories {
		if !InWindow(category.VisibleFrom, category.VisibleTo, now) {
			continue
		}
		catItems := byCategory[category.ID]
		if len(catItems) == 0 {
			continue
		}

		compatible, incompatible := allergens.Partition(catItems, q.Selected, func(m models.MenuItem) allergens.Map {
			return m.Allergens
		})
		pc := PublicCategory{
			ID:    category.ID,
			Name:  pick(lang, category.NameES, category.NameEN),
			Items: make([]PublicItem, 0, len(compatible)),
			Incompatible: IncompatibleGroup{
				Collapsed: true,
				Items:     make([]PublicItem, 0, len(incompatible)),
			},
		}
		for _, item := range compatible {
			pc.Items = append(pc.Items, publicItem(item, lang, q.Selected))
		}
		for _, item := range incompatible {
			pc.Incompatible.Items = append(pc.Incompatible.Items, publicItem(item, lang, q.Selected))
		}
		menu.Categories = append(menu.Categories, pc)
	}

	daily, err := s.publishedDailyMenu(restaurant.ID, now, lang, q.Selected)
	if err != nil {
		utils.ErrorLogger.Printf("Error loading daily menu for %s: %v", restaurant.ID, err)
	}
	menu.DailyMenu = daily

	for _, a := range allergens.Catalog {
		menu.Allergens = append(menu.Allergens, PublicAllergen{
			ID:       a.ID,
			Name:     a.Name(lang),
			Selected: q.Selected.Has(a.ID),
		})
	}
	return menu, nil
}

// ResolveQR counts a scan and returns the slug to redirect to.
func (s *PublicMenuService) ResolveQR(restaurantID string) (string, error) {
	restaurant, err := findRestaurant(s.db, restaurantID)
	if err != nil {
		return "", err
	}
	if err := s.db.Model(&models.Restaurant{}).Where("id = ?", restaurant.ID).
		UpdateColumn("qr_scans", gorm.Expr("qr_scans + ?", 1)).Error; err != nil {
		utils.ErrorLogger.Printf("Error counting QR scan for %s: %v", restaurant.ID, err)
	}
	return restaurant.Slug, nil
}

// SaveAllergens counts a diner saving their allergen selection.
func (s *PublicMenuService) SaveAllergens(slug string) error {
	restaurant, err := s.bySlug(slug)
	if err != nil {
		return err
	}
	return s.db.Model(&models.Restaurant{}).Where("id = ?", restaurant.ID).
		UpdateColumn("allergen_saves", gorm.Expr("allergen_saves + ?", 1)).Error
}

// Localized returns the full live menu in one language, without filtering or
// time windows.
func (s *PublicMenuService) Localized(restaurantID, lang string) (*LocalizedMenu, error) {
	restaurant, err := findRestaurant(s.db, restaurantID)
	if err != nil {
		return nil, err
	}
	lang = NormalizeLang(lang)

	categories, items, err := s.liveMenu(restaurant.ID, false)
	if err != nil {
		return nil, err
	}
	byCategory := make(map[string][]models.MenuItem)
	for _, item := range items {
		byCategory[item.CategoryID] = append(byCategory[item.CategoryID], item)
	}

	menu := &LocalizedMenu{
		RestaurantID: restaurant.ID,
		Name:         restaurant.Name,
		Lang:         lang,
		Categories:   make([]LocalizedCategory, 0, len(categories)),
	}
	for _, category := range categories {
		lc := LocalizedCategory{
			ID:    category.ID,
			Name:  pick(lang, category.NameES, category.NameEN),
			Items: make([]LocalizedItem, 0),
		}
		for _, item := range byCategory[category.ID] {
			li := LocalizedItem{
				ID:          item.ID,
				Name:        pick(lang, item.NameES, item.NameEN),
				Description: pick(lang, item.DescriptionES, item.DescriptionEN),
				Price:       item.Price,
				PriceLabel:  utils.FormatEuros(item.Price),
				Available:   item.Available,
				Allergens:   item.Allergens,
				Extras:      make([]LocalizedExtra, 0, len(item.Extras)),
			}
			for _, extra := range item.Extras {
				li.Extras = append(li.Extras, LocalizedExtra{
					Name:      pick(lang, extra.NameES, extra.NameEN),
					Price:     extra.Price,
					Allergens: extra.Allergens,
				})
			}
			lc.Items = append(lc.Items, li)
		}
		menu.Categories = append(menu.Categories, lc)
	}
	return menu, nil
}

func (s *PublicMenuService) bySlug(slug string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.db.Where("slug = ?", slug).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &restaurant, nil
}

// liveMenu loads categories and reviewed dishes in display order.
func (s *PublicMenuService) liveMenu(restaurantID string, availableOnly bool) ([]models.Category, []models.MenuItem, error) {
	var categories []models.Category
	if err := s.db.Where("restaurant_id = ?", restaurantID).
		Order("sort_order ASC").Order("created_at ASC").
		Find(&categories).Error; err != nil {
		return nil, nil, err
	}

	query := s.db.Where("restaurant_id = ? AND review_status IS NULL", restaurantID)
	if availableOnly {
		query = query.Where("available = ?", true)
	}
	var items []models.MenuItem
	if err := query.Order("sort_order ASC").Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return categories, items, nil
}

func (s *PublicMenuService) publishedDailyMenu(restaurantID string, now time.Time, lang string, selected allergens.Set) (*PublicDailyMenu, error) {
	var daily models.DailyMenu
	err := s.db.Where("restaurant_id = ? AND published = ?", restaurantID, true).First(&daily).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !InWindow(daily.VisibleFrom, daily.VisibleTo, now) {
		return nil, nil
	}

	out := &PublicDailyMenu{
		Price:           daily.Price,
		PriceLabel:      utils.FormatEuros(daily.Price),
		Courses:         make([]PublicCourse, 0, len(daily.Courses)),
		IncludesBread:   daily.IncludesBread,
		IncludesDrink:   daily.IncludesDrink,
		IncludesDessert: daily.IncludesDessert,
	}
	for _, course := range daily.Courses {
		pc := PublicCourse{Name: pick(lang, course.NameES, course.NameEN), Dishes: make([]PublicDish, 0, len(course.Dishes))}
		for _, dish := range course.Dishes {
			pc.Dishes = append(pc.Dishes, PublicDish{
				Name:       pick(lang, dish.NameES, dish.NameEN),
				Contains:   nonNil(dish.Allergens.Contains()),
				Traces:     nonNil(dish.Allergens.Traces()),
				Compatible: allergens.Compatible(dish.Allergens, selected),
			})
		}
		out.Courses = append(out.Courses, pc)
	}
	return out, nil
}

func publicItem(item models.MenuItem, lang string, selected allergens.Set) PublicItem {
	pi := PublicItem{
		ID:          item.ID,
		Name:        pick(lang, item.NameES, item.NameEN),
		Description: pick(lang, item.DescriptionES, item.DescriptionEN),
		Price:       item.Price,
		PriceLabel:  utils.FormatEuros(item.Price),
		ImageURL:    item.ImageURL,
		Contains:    nonNil(item.Allergens.Contains()),
		Traces:      nonNil(item.Allergens.Traces()),
		Conflicts:   allergens.Conflicts(item.Allergens, selected),
	}
	for _, extra := range item.Extras {
		pi.Extras = append(pi.Extras, PublicExtra{
			Name:       pick(lang, extra.NameES, extra.NameEN),
			Price:      extra.Price,
			PriceLabel: utils.FormatEuros(extra.Price),
			Contains:   nonNil(extra.Allergens.Contains()),
			Traces:     nonNil(extra.Allergens.Traces()),
			Compatible: allergens.Compatible(extra.Allergens, selected),
		})
	}
	return pi
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
