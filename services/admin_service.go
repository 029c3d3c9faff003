package services

import (
	"time"

	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/utils"
	"gorm.io/gorm"
)

type AdminRestaurant struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Slug               string     `json:"slug"`
	OwnerEmail         string     `json:"owner_email"`
	Plan               string     `json:"plan"`
	SubscriptionStatus string     `json:"subscription_status"`
	DerivedStatus      string     `json:"derived_status"`
	TrialEndsAt        *time.Time `json:"trial_ends_at"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
	AllergenSaves      int64      `json:"allergen_saves"`
	QRScans            int64      `json:"qr_scans"`
	CreatedAt          time.Time  `json:"created_at"`
}

// AdminStats backs the four cards of the admin panel.
type AdminStats struct {
	TotalRestaurants    int64 `json:"total_restaurants"`
	ActiveSubscriptions int64 `json:"active_subscriptions"`
	Trials              int64 `json:"trials"`
	ExpiredTrials       int64 `json:"expired_trials"`
	TotalQRScans        int64 `json:"total_qr_scans"`
}

type AdminService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db, now: time.Now}
}

func (s *AdminService) Restaurants() ([]AdminRestaurant, error) {
	var restaurants []models.Restaurant
	if err := s.db.Order("created_at DESC").Find(&restaurants).Error; err != nil {
		return nil, err
	}

	ownerIDs := make([]string, 0, len(restaurants))
	for _, r := range restaurants {
		ownerIDs = append(ownerIDs, r.OwnerID)
	}
	emails := make(map[string]string, len(ownerIDs))
	if len(ownerIDs) > 0 {
		var owners []models.User
		if err := s.db.Where("id IN ?", ownerIDs).Find(&owners).Error; err != nil {
			return nil, err
		}
		for _, u := range owners {
			emails[u.ID] = u.Email
		}
	}

	now := s.now()
	list := make([]AdminRestaurant, 0, len(restaurants))
	for _, r := range restaurants {
		list = append(list, AdminRestaurant{
			ID:                 r.ID,
			Name:               r.Name,
			Slug:               r.Slug,
			OwnerEmail:         emails[r.OwnerID],
			Plan:               r.SelectedPlan,
			SubscriptionStatus: r.SubscriptionStatus,
			DerivedStatus:      DeriveStatus(r, now),
			TrialEndsAt:        r.TrialEndsAt,
			CurrentPeriodEnd:   r.CurrentPeriodEnd,
			AllergenSaves:      r.AllergenSaves,
			QRScans:            r.QRScans,
			CreatedAt:          r.CreatedAt,
		})
	}
	return list, nil
}

// Stats never fails: on a database error it logs and returns zeroed stats.
func (s *AdminService) Stats() AdminStats {
	restaurants, err := s.Restaurants()
	if err != nil {
		utils.ErrorLogger.Printf("Error loading admin stats: %v", err)
		return AdminStats{}
	}
	return ComputeStats(restaurants)
}

func ComputeStats(restaurants []AdminRestaurant) AdminStats {
	var stats AdminStats
	for _, r := range restaurants {
		stats.TotalRestaurants++
		stats.TotalQRScans += r.QRScans
		switch r.DerivedStatus {
		case models.StatusActive:
			stats.ActiveSubscriptions++
		case models.StatusTrialing:
			stats.Trials++
		case models.StatusTrialExpired:
			stats.Trials++
			stats.ExpiredTrials++
		}
	}
	return stats
}

// StatusCounts groups tenants by derived status, for the report chart.
func StatusCounts(restaurants []AdminRestaurant) map[string]int {
	counts := make(map[string]int)
	for _, r := range restaurants {
		counts[r.DerivedStatus]++
	}
	return counts
}
