package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/xbirks/alergenu-sub000/config"
	"github.com/xbirks/alergenu-sub000/live"
	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

type RegisterInput struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required"`
	RestaurantName string `json:"restaurant_name" binding:"required"`
	Plan           string `json:"plan" binding:"required"`
	AcceptTerms    bool   `json:"accept_terms"`
	IP             string `json:"-"`
	UserAgent      string `json:"-"`
}

// RegisterResult carries the checkout outcome for paid plans. A failed
// checkout leaves the account in place and fills CheckoutError so the client
// can retry.
type RegisterResult struct {
	User          *models.User       `json:"user"`
	Restaurant    *models.Restaurant `json:"restaurant"`
	Token         string             `json:"token"`
	CheckoutURL   string             `json:"checkout_url,omitempty"`
	CheckoutError string             `json:"checkout_error,omitempty"`
}

type AuthService struct {
	db            *gorm.DB
	cfg           *config.Config
	billing       *BillingService
	notifications *NotificationService
	pub           Publisher
	now           func() time.Time
}

func NewAuthService(db *gorm.DB, cfg *config.Config, billing *BillingService, notifications *NotificationService, pub Publisher) *AuthService {
	return &AuthService{
		db:            db,
		cfg:           cfg,
		billing:       billing,
		notifications: notifications,
		pub:           publisherOrNop(pub),
		now:           time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	plan, ok := s.cfg.Plans.Get(in.Plan)
	if !ok {
		return nil, ErrInvalidPlan
	}
	if !in.AcceptTerms {
		return nil, ErrTermsNotAccepted
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	restaurantName := strings.TrimSpace(in.RestaurantName)
	if restaurantName == "" {
		return nil, fmt.Errorf("%w: restaurant name is required", ErrInvalidInput)
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleOwner,
	}
	restaurant := models.Restaurant{
		Name:            restaurantName,
		SelectedPlan:    plan.ID,
		DefaultLanguage: "es",
	}
	if plan.Paid {
		restaurant.SubscriptionStatus = models.StatusIncomplete
	} else {
		trialEnd := now.AddDate(0, 0, s.cfg.TrialDays)
		restaurant.SubscriptionStatus = models.StatusTrialing
		restaurant.TrialEndsAt = &trialEnd
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		slug, err := uniqueSlug(tx, restaurantName, "")
		if err != nil {
			return err
		}
		restaurant.Slug = slug
		restaurant.OwnerID = user.ID
		if err := tx.Create(&restaurant).Error; err != nil {
			return err
		}

		acceptance := models.LegalAcceptance{
			UserID:       user.ID,
			RestaurantID: restaurant.ID,
			TermsVersion: s.cfg.TermsVersion,
			IP:           in.IP,
			UserAgent:    in.UserAgent,
			AcceptedAt:   now,
		}
		return tx.Create(&acceptance).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}

	token, err := utils.GenerateToken(user.ID, user.Role, restaurant.ID)
	if err != nil {
		return nil, err
	}

	result := &RegisterResult{User: &user, Restaurant: &restaurant, Token: token}

	if plan.Paid {
		url, err := s.checkout(ctx, restaurant.ID, plan.ID)
		if err != nil {
			utils.ErrorLogger.Printf("Checkout for new restaurant %s failed: %v", restaurant.ID, err)
			result.CheckoutError = err.Error()
		} else {
			result.CheckoutURL = url
		}
	}

	utils.InfoLogger.Printf("Registered restaurant %s (%s) on plan %s", restaurant.Slug, restaurant.ID, plan.ID)
	s.pub.PublishAdmin(live.EventRestaurantUpdate, restaurant)
	if s.notifications != nil {
		s.notifications.Send(ctx, "Nuevo restaurante",
			fmt.Sprintf("%s (%s) se ha registrado con el plan %s", restaurant.Name, user.Email, plan.Label))
	}

	return result, nil
}

func (s *AuthService) checkout(ctx context.Context, restaurantID, planID string) (string, error) {
	if s.billing == nil {
		return "", ErrBillingDisabled
	}
	return s.billing.Checkout(ctx, restaurantID, planID)
}

type LoginResult struct {
	Token      string             `json:"token"`
	User       *models.User       `json:"user"`
	Restaurant *models.Restaurant `json:"restaurant,omitempty"`
}

func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	result := &LoginResult{User: &user}
	var restaurantID string
	if user.Role == models.RoleOwner {
		var restaurant models.Restaurant
		if err := s.db.Where("owner_id = ?", user.ID).First(&restaurant).Error; err == nil {
			restaurantID = restaurant.ID
			result.Restaurant = &restaurant
		}
	}

	token, err := utils.GenerateToken(user.ID, user.Role, restaurantID)
	if err != nil {
		return nil, err
	}
	result.Token = token
	return result, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(token string) error {
	claims, err := utils.ParseToken(token)
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(token, expiresAt)
	return nil
}

// Me returns the user and, for owners, their restaurant.
func (s *AuthService) Me(userID string) (*models.User, *models.Restaurant, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	var restaurant models.Restaurant
	if err := s.db.Where("owner_id = ?", user.ID).First(&restaurant).Error; err != nil {
		return &user, nil, nil
	}
	return &user, &restaurant, nil
}
