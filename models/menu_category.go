package models

type Category struct {
	Base
	RestaurantID string `gorm:"type:varchar(36);index;not null" json:"restaurant_id"`
	NameES       string `gorm:"column:name_es;type:varchar(255);not null" json:"name_es"`
	NameEN       string `gorm:"column:name_en;type:varchar(255)" json:"name_en"`
	Order        int    `gorm:"column:sort_order;not null;default:0" json:"order"`
	// VisibleFrom and VisibleTo are "HH:MM" in the restaurant timezone. Empty
	// means always visible.
	VisibleFrom string `gorm:"type:varchar(5)" json:"visible_from"`
	VisibleTo   string `gorm:"type:varchar(5)" json:"visible_to"`
}
