package services

import (
	"time"

	"github.com/xbirks/alergenu-sub000/models"
)

// Billing actions offered to the owner for a given status.
const (
	ActionSubscribe     = "subscribe"
	ActionManage        = "manage"
	ActionUpdatePayment = "update_payment"
)

// DeriveStatus turns the stored status into the one shown to users. A trial
// whose end date has passed reads as trial_expired.
func DeriveStatus(r models.Restaurant, now time.Time) string {
	if r.SubscriptionStatus == models.StatusTrialing && r.TrialEndsAt != nil && r.TrialEndsAt.Before(now) {
		return models.StatusTrialExpired
	}
	return r.SubscriptionStatus
}

func BillingActions(status string) []string {
	switch status {
	case models.StatusActive:
		return []string{ActionManage}
	case models.StatusPastDue:
		return []string{ActionUpdatePayment, ActionManage}
	case models.StatusTrialing, models.StatusTrialExpired, models.StatusCanceled, models.StatusIncomplete:
		return []string{ActionSubscribe}
	default:
		return []string{ActionSubscribe}
	}
}

// TrialDaysLeft rounds up; it is 0 once the trial has ended.
func TrialDaysLeft(r models.Restaurant, now time.Time) int {
	if r.TrialEndsAt == nil || !r.TrialEndsAt.After(now) {
		return 0
	}
	left := r.TrialEndsAt.Sub(now)
	days := int(left / (24 * time.Hour))
	if left%(24*time.Hour) != 0 {
		days++
	}
	return days
}
