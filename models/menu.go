package models

import "github.com/xbirks/alergenu-sub000/allergens"

const ReviewPending = "pending"

// Extra is an add-on attached to a dish, with its own price and allergens.
type Extra struct {
	NameES    string        `json:"name_es"`
	NameEN    string        `json:"name_en"`
	Price     int64         `json:"price"`
	Allergens allergens.Map `json:"allergens"`
}

type MenuItem struct {
	Base
	RestaurantID  string        `gorm:"type:varchar(36);index;not null" json:"restaurant_id"`
	CategoryID    string        `gorm:"type:varchar(36);index;not null" json:"category_id"`
	NameES        string        `gorm:"column:name_es;type:varchar(255);not null" json:"name_es"`
	NameEN        string        `gorm:"column:name_en;type:varchar(255)" json:"name_en"`
	DescriptionES string        `gorm:"column:description_es;type:text" json:"description_es"`
	DescriptionEN string        `gorm:"column:description_en;type:text" json:"description_en"`
	Price         int64         `gorm:"not null;default:0" json:"price"` // cents
	Allergens     allergens.Map `gorm:"type:text;serializer:json" json:"allergens"`
	Available     bool          `gorm:"not null" json:"available"`
	Extras        []Extra       `gorm:"type:text;serializer:json" json:"extras"`
	ReviewStatus  *string       `gorm:"type:varchar(16);index" json:"review_status"`
	ImageURL      string        `gorm:"type:varchar(500)" json:"image_url"`
	Order         int           `gorm:"column:sort_order;not null;default:0" json:"order"`
}

func (m MenuItem) Pending() bool {
	return m.ReviewStatus != nil && *m.ReviewStatus == ReviewPending
}

// Snapshot copies the fields kept in the edit history.
func (m MenuItem) Snapshot() MenuItemSnapshot {
	return MenuItemSnapshot{
		CategoryID:    m.CategoryID,
		NameES:        m.NameES,
		NameEN:        m.NameEN,
		DescriptionES: m.DescriptionES,
		DescriptionEN: m.DescriptionEN,
		Price:         m.Price,
		Allergens:     m.Allergens,
		Available:     m.Available,
		Extras:        m.Extras,
	}
}
