package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xbirks/alergenu-sub000/live"
	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/utils"
	"gorm.io/gorm"
)

// TrialMonitor periodically looks for free trials that have run out and
// tells the admin channels and the affected dashboard once per trial.
type TrialMonitor struct {
	DB            *gorm.DB
	Notifications *NotificationService
	Publisher     Publisher
	StopChan      chan struct{}
	Interval      time.Duration
	Now           func() time.Time
}

func NewTrialMonitor(db *gorm.DB, notifications *NotificationService, pub Publisher) *TrialMonitor {
	return &TrialMonitor{
		DB:            db,
		Notifications: notifications,
		Publisher:     publisherOrNop(pub),
		StopChan:      make(chan struct{}),
		Interval:      time.Hour,
		Now:           time.Now,
	}
}

// Start checks once right away, so trials that ran out while the process
// was down are handled, and then every Interval.
func (tm *TrialMonitor) Start() {
	go func() {
		tm.check()

		ticker := time.NewTicker(tm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				tm.check()
			case <-tm.StopChan:
				return
			}
		}
	}()
}

func (tm *TrialMonitor) check() {
	if _, err := tm.CheckExpiredTrials(context.Background()); err != nil {
		utils.ErrorLogger.Printf("Error checking expired trials: %v", err)
	}
}

func (tm *TrialMonitor) Stop() {
	close(tm.StopChan)
}

// CheckExpiredTrials handles every expired, not yet notified trial and
// returns how many it processed.
func (tm *TrialMonitor) CheckExpiredTrials(ctx context.Context) (int, error) {
	now := tm.Now()

	var expired []models.Restaurant
	if err := tm.DB.Where("subscription_status = ? AND trial_ends_at < ? AND trial_expired_notified_at IS NULL",
		models.StatusTrialing, now).
		Order("trial_ends_at ASC").
		Limit(100).
		Find(&expired).Error; err != nil {
		return 0, err
	}

	processed := 0
	for _, restaurant := range expired {
		res := tm.DB.Model(&models.Restaurant{}).
			Where("id = ? AND trial_expired_notified_at IS NULL", restaurant.ID).
			Update("trial_expired_notified_at", now)
		if res.Error != nil {
			utils.ErrorLogger.Printf("Error marking trial of %s as notified: %v", restaurant.ID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			continue
		}
		processed++

		utils.InfoLogger.Printf("Trial expired for restaurant %s (%s)", restaurant.Slug, restaurant.ID)
		status := DeriveStatus(restaurant, now)
		tm.Publisher.Publish(restaurant.ID, live.EventSubscriptionUpdate, map[string]interface{}{
			"derived_status": status,
			"actions":        BillingActions(status),
		})
		tm.Publisher.PublishAdmin(live.EventSubscriptionUpdate, statusEvent(restaurant.ID, status))

		if tm.Notifications != nil {
			tm.Notifications.Send(ctx, "Prueba finalizada",
				fmt.Sprintf("La prueba gratuita de %s (%s) ha terminado", restaurant.Name, restaurant.Slug))
		}
	}
	return processed, nil
}
