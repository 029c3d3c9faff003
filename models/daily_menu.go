package models

import "github.com/xbirks/alergenu-sub000/allergens"

type DailyDish struct {
	NameES    string        `json:"name_es"`
	NameEN    string        `json:"name_en"`
	Allergens allergens.Map `json:"allergens"`
}

type Course struct {
	NameES string      `json:"name_es"`
	NameEN string      `json:"name_en"`
	Dishes []DailyDish `json:"dishes"`
}

// DailyMenu is a per-restaurant singleton.
type DailyMenu struct {
	Base
	RestaurantID    string   `gorm:"type:varchar(36);uniqueIndex;not null" json:"restaurant_id"`
	Courses         []Course `gorm:"type:text;serializer:json" json:"courses"`
	Price           int64    `gorm:"not null;default:0" json:"price"`
	Published       bool     `gorm:"not null" json:"published"`
	VisibleFrom     string   `gorm:"type:varchar(5)" json:"visible_from"`
	VisibleTo       string   `gorm:"type:varchar(5)" json:"visible_to"`
	IncludesBread   bool     `gorm:"not null" json:"includes_bread"`
	IncludesDrink   bool     `gorm:"not null" json:"includes_drink"`
	IncludesDessert bool     `gorm:"not null" json:"includes_dessert"`
}
