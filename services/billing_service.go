package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/xbirks/alergenu-sub000/config"
	"github.com/xbirks/alergenu-sub000/live"
	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/utils"
	"gorm.io/gorm"
)

type CheckoutRequest struct {
	RestaurantID  string
	PlanID        string
	PriceID       string
	CustomerID    string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// BillingGateway is the part of the payment processor the service needs.
type BillingGateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	ParseWebhook(payload []byte, signature string) (stripe.Event, error)
}

// StripeGateway implements BillingGateway with the Stripe API.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(req.RestaurantID),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"restaurant_id": req.RestaurantID,
				"plan":          req.PlanID,
			},
		},
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.AddMetadata("restaurant_id", req.RestaurantID)
	params.AddMetadata("plan", req.PlanID)
	params.Context = ctx

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: stripe checkout: %v", ErrUpstream, err)
	}
	return session.URL, nil
}

func (g *StripeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	session, err := g.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: stripe portal: %v", ErrUpstream, err)
	}
	return session.URL, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}

// BillingOverview is what the billing page renders.
type BillingOverview struct {
	Plan             string     `json:"plan"`
	PlanLabel        string     `json:"plan_label"`
	Status           string     `json:"status"`
	DerivedStatus    string     `json:"derived_status"`
	Actions          []string   `json:"actions"`
	TrialEndsAt      *time.Time `json:"trial_ends_at"`
	TrialDaysLeft    int        `json:"trial_days_left"`
	CurrentPeriodEnd *time.Time `json:"current_period_end"`
	HasCustomer      bool       `json:"has_customer"`
}

type BillingService struct {
	db            *gorm.DB
	gateway       BillingGateway
	plans         *config.PlanCatalog
	publicBaseURL string
	pub           Publisher
	notifications *NotificationService
	now           func() time.Time
}

// NewBillingService accepts a nil gateway; checkout and portal then fail with
// ErrBillingDisabled.
func NewBillingService(db *gorm.DB, gateway BillingGateway, plans *config.PlanCatalog, publicBaseURL string, pub Publisher, notifications *NotificationService) *BillingService {
	return &BillingService{
		db:            db,
		gateway:       gateway,
		plans:         plans,
		publicBaseURL: publicBaseURL,
		pub:           publisherOrNop(pub),
		notifications: notifications,
		now:           time.Now,
	}
}

func (s *BillingService) Overview(restaurantID string) (*BillingOverview, error) {
	restaurant, err := findRestaurant(s.db, restaurantID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	derived := DeriveStatus(*restaurant, now)

	overview := &BillingOverview{
		Plan:             restaurant.SelectedPlan,
		Status:           restaurant.SubscriptionStatus,
		DerivedStatus:    derived,
		Actions:          BillingActions(derived),
		TrialEndsAt:      restaurant.TrialEndsAt,
		TrialDaysLeft:    TrialDaysLeft(*restaurant, now),
		CurrentPeriodEnd: restaurant.CurrentPeriodEnd,
		HasCustomer:      restaurant.StripeCustomerID != "",
	}
	if plan, ok := s.plans.Get(restaurant.SelectedPlan); ok {
		overview.PlanLabel = plan.Label
	}
	return overview, nil
}

// Checkout opens a subscription checkout for a paid plan and returns its URL.
func (s *BillingService) Checkout(ctx context.Context, restaurantID, planID string) (string, error) {
	plan, ok := s.plans.Get(planID)
	if !ok || !plan.Paid {
		return "", ErrInvalidPlan
	}
	if s.gateway == nil || plan.StripePriceID == "" {
		return "", ErrBillingDisabled
	}

	restaurant, err := findRestaurant(s.db, restaurantID)
	if err != nil {
		return "", err
	}
	var owner models.User
	if err := s.db.First(&owner, "id = ?", restaurant.OwnerID).Error; err != nil {
		return "", fmt.Errorf("failed to load owner: %w", err)
	}

	return s.gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		RestaurantID:  restaurant.ID,
		PlanID:        plan.ID,
		PriceID:       plan.StripePriceID,
		CustomerID:    restaurant.StripeCustomerID,
		CustomerEmail: owner.Email,
		SuccessURL:    s.publicBaseURL + "/dashboard/billing?checkout=success",
		CancelURL:     s.publicBaseURL + "/dashboard/billing?checkout=cancel",
	})
}

func (s *BillingService) Portal(ctx context.Context, restaurantID string) (string, error) {
	if s.gateway == nil {
		return "", ErrBillingDisabled
	}
	restaurant, err := findRestaurant(s.db, restaurantID)
	if err != nil {
		return "", err
	}
	if restaurant.StripeCustomerID == "" {
		return "", ErrNoCustomer
	}
	return s.gateway.CreatePortalSession(ctx, restaurant.StripeCustomerID, s.publicBaseURL+"/dashboard/billing")
}

// HandleWebhook verifies the signature and applies the event.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return ErrBillingDisabled
	}
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	return s.ApplyEvent(ctx, event)
}

// ApplyEvent updates the tenant from a Stripe event. Unknown event types are
// ignored.
func (s *BillingService) ApplyEvent(ctx context.Context, event stripe.Event) error {
	if event.Data == nil {
		return fmt.Errorf("%w: event without data", ErrInvalidInput)
	}

	switch string(event.Type) {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("%w: checkout session: %v", ErrInvalidInput, err)
		}
		return s.applyCheckoutCompleted(ctx, &session)

	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("%w: subscription: %v", ErrInvalidInput, err)
		}
		if string(event.Type) == "customer.subscription.deleted" {
			sub.Status = stripe.SubscriptionStatusCanceled
		}
		return s.applySubscription(&sub)

	case "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return fmt.Errorf("%w: invoice: %v", ErrInvalidInput, err)
		}
		return s.applyPaymentFailed(ctx, &invoice)

	default:
		utils.InfoLogger.Printf("Ignoring stripe event %s", event.Type)
		return nil
	}
}

func (s *BillingService) applyCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	restaurantID := session.ClientReferenceID
	if restaurantID == "" {
		restaurantID = session.Metadata["restaurant_id"]
	}
	restaurant, err := findRestaurant(s.db, restaurantID)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"subscription_status": models.StatusActive,
	}
	if session.Customer != nil && session.Customer.ID != "" {
		updates["stripe_customer_id"] = session.Customer.ID
	}
	if session.Subscription != nil && session.Subscription.ID != "" {
		updates["stripe_subscription_id"] = session.Subscription.ID
	}
	if plan, ok := s.plans.Get(session.Metadata["plan"]); ok {
		updates["selected_plan"] = plan.ID
	}

	if err := s.db.Model(restaurant).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to activate subscription: %w", err)
	}
	utils.InfoLogger.Printf("Subscription activated for restaurant %s", restaurant.ID)
	s.publishUpdate(restaurant.ID)

	if s.notifications != nil {
		s.notifications.Send(ctx, "Nueva suscripción", fmt.Sprintf("%s (%s) activó su suscripción", restaurant.Name, restaurant.Slug))
	}
	return nil
}

func (s *BillingService) applySubscription(sub *stripe.Subscription) error {
	restaurant, err := s.restaurantForSubscription(sub.ID, sub.Metadata["restaurant_id"], customerID(sub.Customer))
	if err != nil {
		return err
	}

	status := mapSubscriptionStatus(sub.Status)
	updates := map[string]interface{}{
		"subscription_status":    status,
		"stripe_subscription_id": sub.ID,
	}
	// a Stripe trial replaces the local one so DeriveStatus reads its end date
	if status == models.StatusTrialing {
		if sub.TrialEnd > 0 {
			trialEnd := time.Unix(sub.TrialEnd, 0).UTC()
			updates["trial_ends_at"] = &trialEnd
		} else {
			updates["trial_ends_at"] = nil
		}
		updates["trial_expired_notified_at"] = nil
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		updates["current_period_end"] = &end
	}
	if plan, ok := s.plans.Get(sub.Metadata["plan"]); ok {
		updates["selected_plan"] = plan.ID
	}

	if err := s.db.Model(restaurant).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	s.publishUpdate(restaurant.ID)
	return nil
}

func (s *BillingService) applyPaymentFailed(ctx context.Context, invoice *stripe.Invoice) error {
	var subID string
	if invoice.Subscription != nil {
		subID = invoice.Subscription.ID
	}
	restaurant, err := s.restaurantForSubscription(subID, "", customerID(invoice.Customer))
	if err != nil {
		return err
	}

	if err := s.db.Model(restaurant).Update("subscription_status", models.StatusPastDue).Error; err != nil {
		return fmt.Errorf("failed to mark past due: %w", err)
	}
	s.publishUpdate(restaurant.ID)

	if s.notifications != nil {
		s.notifications.Send(ctx, "Pago fallido", fmt.Sprintf("El cobro de %s (%s) ha fallado", restaurant.Name, restaurant.Slug))
	}
	return nil
}

func (s *BillingService) restaurantForSubscription(subscriptionID, restaurantID, customer string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if subscriptionID != "" {
		err := s.db.Where("stripe_subscription_id = ?", subscriptionID).First(&restaurant).Error
		if err == nil {
			return &restaurant, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	query := s.db.Model(&models.Restaurant{})
	switch {
	case restaurantID != "":
		query = query.Where("id = ?", restaurantID)
	case customer != "":
		query = query.Where("stripe_customer_id = ?", customer)
	default:
		return nil, ErrNotFound
	}
	if err := query.First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &restaurant, nil
}

func (s *BillingService) publishUpdate(restaurantID string) {
	overview, err := s.Overview(restaurantID)
	if err != nil {
		utils.ErrorLogger.Printf("Error loading billing overview for %s: %v", restaurantID, err)
		return
	}
	s.pub.Publish(restaurantID, live.EventSubscriptionUpdate, overview)
	s.pub.PublishAdmin(live.EventSubscriptionUpdate, statusEvent(restaurantID, overview.DerivedStatus))
}

func statusEvent(restaurantID, status string) map[string]string {
	return map[string]string{"restaurant_id": restaurantID, "status": status}
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

// mapSubscriptionStatus folds Stripe's subscription states into ours.
func mapSubscriptionStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusActive:
		return models.StatusActive
	case stripe.SubscriptionStatusTrialing:
		return models.StatusTrialing
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return models.StatusPastDue
	case stripe.SubscriptionStatusIncomplete:
		return models.StatusIncomplete
	default:
		return models.StatusCanceled
	}
}
