package models

import "time"

// LegalAcceptance is the audit record written when an owner accepts the terms.
type LegalAcceptance struct {
	Base
	UserID       string    `gorm:"type:varchar(36);index;not null" json:"user_id"`
	RestaurantID string    `gorm:"type:varchar(36);index" json:"restaurant_id"`
	TermsVersion string    `gorm:"type:varchar(32);not null" json:"terms_version"`
	IP           string    `gorm:"type:varchar(64)" json:"ip"`
	UserAgent    string    `gorm:"type:varchar(500)" json:"user_agent"`
	AcceptedAt   time.Time `gorm:"not null" json:"accepted_at"`
}
