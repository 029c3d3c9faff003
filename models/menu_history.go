package models

import "github.com/xbirks/alergenu-sub000/allergens"

type MenuItemSnapshot struct {
	CategoryID    string        `json:"category_id"`
	NameES        string        `json:"name_es"`
	NameEN        string        `json:"name_en"`
	DescriptionES string        `json:"description_es"`
	DescriptionEN string        `json:"description_en"`
	Price         int64         `json:"price"`
	Allergens     allergens.Map `json:"allergens"`
	Available     bool          `json:"available"`
	Extras        []Extra       `json:"extras"`
}

// MenuItemHistory is one saved version of a dish, used by the audit report.
type MenuItemHistory struct {
	Base
	MenuItemID   string           `gorm:"type:varchar(36);index;not null" json:"menu_item_id"`
	RestaurantID string           `gorm:"type:varchar(36);index;not null" json:"restaurant_id"`
	EditedBy     string           `gorm:"type:varchar(36)" json:"edited_by"`
	Snapshot     MenuItemSnapshot `gorm:"type:text;serializer:json" json:"snapshot"`
}

func (MenuItemHistory) TableName() string {
	return "menu_item_history"
}
