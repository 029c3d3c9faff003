package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/xbirks/alergenu-sub000/allergens"
	"github.com/xbirks/alergenu-sub000/config"
	"github.com/xbirks/alergenu-sub000/database"
	"github.com/xbirks/alergenu-sub000/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func testConfig(t *testing.T) *config.Config {
	plans, err := config.LoadPlans()
	require.NoError(t, err)
	for i := range plans.Plans {
		if plans.Plans[i].Paid {
			plans.Plans[i].StripePriceID = "price_" + plans.Plans[i].ID
		}
	}
	return &config.Config{
		PublicBaseURL: "https://alergenu.test",
		Location:      time.UTC,
		TrialDays:     90,
		TermsVersion:  "2024-01",
		Plans:         plans,
	}
}

type publishedEvent struct {
	Channel string
	Event   string
	Data    interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(restaurantID, event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{Channel: restaurantID, Event: event, Data: data})
}

func (f *fakePublisher) PublishAdmin(event string, data interface{}) {
	f.Publish("*admin", event, data)
}

func (f *fakePublisher) last(event string) (publishedEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].Event == event {
			return f.events[i], true
		}
	}
	return publishedEvent{}, false
}

type fakeGateway struct {
	checkoutURL string
	checkoutErr error
	requests    []CheckoutRequest
	portalCalls []string
	event       stripe.Event
	parseErr    error
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.checkoutErr != nil {
		return "", f.checkoutErr
	}
	return f.checkoutURL, nil
}

func (f *fakeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	f.portalCalls = append(f.portalCalls, customerID)
	return "https://billing.stripe.test/p/" + customerID, nil
}

func (f *fakeGateway) ParseWebhook(payload []byte, signature string) (stripe.Event, error) {
	if f.parseErr != nil {
		return stripe.Event{}, f.parseErr
	}
	return f.event, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	channel  string
	messages []string
	err      error
}

func (f *fakeNotifier) Channel() string { return f.channel }

func (f *fakeNotifier) Notify(ctx context.Context, title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, title+": "+message)
	return f.err
}

type fakeGenerator struct {
	output  string
	err     error
	prompts []string
	images  []*InlineImage
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, prompt string, image *InlineImage) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.images = append(f.images, image)
	return f.output, f.err
}

type memoryStore struct {
	objects map[string][]byte
	err     error
}

func (m *memoryStore) Save(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return "https://cdn.test/" + key, nil
}

var errBoom = errors.New("boom")

// seedRestaurant creates an owner and a trialing restaurant.
func seedRestaurant(t *testing.T, db *gorm.DB, slug string) *models.Restaurant {
	owner := models.User{Name: "Owner", Email: slug + "@example.com", Password: "x", Role: models.RoleOwner}
	require.NoError(t, db.Create(&owner).Error)

	trialEnd := time.Now().UTC().Add(30 * 24 * time.Hour)
	restaurant := models.Restaurant{
		Name:               "Casa " + slug,
		Slug:               slug,
		OwnerID:            owner.ID,
		SelectedPlan:       config.FreePlanID,
		SubscriptionStatus: models.StatusTrialing,
		TrialEndsAt:        &trialEnd,
		DefaultLanguage:    "es",
	}
	require.NoError(t, db.Create(&restaurant).Error)
	return &restaurant
}

func seedCategory(t *testing.T, db *gorm.DB, restaurantID, name string, order int) *models.Category {
	category := models.Category{RestaurantID: restaurantID, NameES: name, Order: order}
	require.NoError(t, db.Create(&category).Error)
	return &category
}

func seedItem(t *testing.T, db *gorm.DB, category *models.Category, name string, price int64, m allergens.Map, pending bool) *models.MenuItem {
	item := models.MenuItem{
		RestaurantID: category.RestaurantID,
		CategoryID:   category.ID,
		NameES:       name,
		Price:        price,
		Allergens:    m,
		Available:    true,
	}
	if pending {
		status := models.ReviewPending
		item.ReviewStatus = &status
	}
	require.NoError(t, db.Create(&item).Error)
	return &item
}
