package models

import "time"

// Stored subscription states. StatusTrialExpired is never stored: it is
// derived at read time from TrialEndsAt.
const (
	StatusTrialing     = "trialing"
	StatusActive       = "active"
	StatusPastDue      = "past_due"
	StatusCanceled     = "canceled"
	StatusIncomplete   = "incomplete"
	StatusTrialExpired = "trial_expired"
)

// Restaurant is the tenant document.
type Restaurant struct {
	Base
	Name                 string     `gorm:"type:varchar(255);not null" json:"name"`
	Slug                 string     `gorm:"type:varchar(191);uniqueIndex;not null" json:"slug"`
	OwnerID              string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"owner_id"`
	SelectedPlan         string     `gorm:"type:varchar(32);not null" json:"selected_plan"`
	SubscriptionStatus   string     `gorm:"type:varchar(32);not null;index" json:"subscription_status"`
	TrialEndsAt          *time.Time `json:"trial_ends_at"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	StripeCustomerID     string     `gorm:"type:varchar(64);index" json:"-"`
	StripeSubscriptionID string     `gorm:"type:varchar(64)" json:"-"`
	DefaultLanguage      string     `gorm:"type:varchar(2);not null" json:"default_language"`
	AllergenSaves        int64      `gorm:"column:allergen_saves;not null;default:0" json:"allergen_saves"`
	QRScans              int64      `gorm:"column:qr_scans;not null;default:0" json:"qr_scans"`

	TrialExpiredNotifiedAt *time.Time `json:"-"`
}
