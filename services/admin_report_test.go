package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xbirks/alergenu-sub000/allergens"
	"github.com/xbirks/alergenu-sub000/live"
	"github.com/xbirks/alergenu-sub000/models"
)

func TestAdminStats_NoRestaurants(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAdminService(db)

	list, err := svc.Restaurants()
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, AdminStats{}, svc.Stats())
}

func TestAdminStats_DatabaseFailureIsZeroed(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	assert.Equal(t, AdminStats{}, NewAdminService(db).Stats())
}

func TestAdminListing_DerivesTrialExpired(t *testing.T) {
	db := setupTestDB(t)
	expired := seedRestaurant(t, db, "expired")
	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	require.NoError(t, db.Model(expired).Updates(map[string]interface{}{"trial_ends_at": yesterday, "qr_scans": 5}).Error)

	active := seedRestaurant(t, db, "active")
	require.NoError(t, db.Model(active).Updates(map[string]interface{}{"subscription_status": models.StatusActive, "qr_scans": 3}).Error)

	seedRestaurant(t, db, "trial")

	svc := NewAdminService(db)
	list, err := svc.Restaurants()
	require.NoError(t, err)
	require.Len(t, list, 3)

	statuses := map[string]string{}
	for _, r := range list {
		statuses[r.Slug] = r.DerivedStatus
	}
	assert.Equal(t, models.StatusTrialExpired, statuses["expired"])
	assert.Equal(t, models.StatusActive, statuses["active"])
	assert.Equal(t, models.StatusTrialing, statuses["trial"])
	assert.Equal(t, "expired@example.com", list[2].OwnerEmail)

	stats := svc.Stats()
	assert.Equal(t, AdminStats{
		TotalRestaurants:    3,
		ActiveSubscriptions: 1,
		Trials:              2,
		ExpiredTrials:       1,
		TotalQRScans:        8,
	}, stats)
}

func TestReports_RenderPDFs(t *testing.T) {
	db := setupTestDB(t)
	r := seedRestaurant(t, db, "reports")
	cat := seedCategory(t, db, r.ID, "Entrantes", 0)
	items := NewMenuItemService(db, nil, nil)
	item, err := items.Create(r.ID, "u", MenuItemInput{
		CategoryID: cat.ID,
		NameES:     "Pulpo a la gallega con cachelos y pimentón de la Vera",
		Price:      1850,
		Allergens:  allergens.Map{"molluscs": allergens.Yes, "sulphites": allergens.Traces},
	})
	require.NoError(t, err)
	_, err = items.Update(r.ID, "u", item.ID, MenuItemInput{CategoryID: cat.ID, NameES: item.NameES, Price: 1950, Allergens: item.Allergens})
	require.NoError(t, err)

	admin := NewAdminService(db)
	reports := NewReportService(db, admin, time.UTC)

	history, err := reports.DishHistoryPDF(r.ID, item.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(history, []byte("%PDF")))

	matrix, err := reports.AllergenMatrixPDF(r.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(matrix, []byte("%PDF")))

	tenants, err := reports.TenantsPDF()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(tenants, []byte("%PDF")))
}

func TestReports_TenantsPDFWithoutRestaurants(t *testing.T) {
	db := setupTestDB(t)
	reports := NewReportService(db, NewAdminService(db), time.UTC)

	pdf, err := reports.TenantsPDF()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestStatusChartPNG(t *testing.T) {
	png, err := StatusChartPNG(map[string]int{models.StatusTrialing: 1})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = StatusChartPNG(nil)
	assert.Error(t, err)
}

func TestTrialMonitor_NotifiesOnce(t *testing.T) {
	db := setupTestDB(t)
	expired := seedRestaurant(t, db, "old-trial")
	require.NoError(t, db.Model(expired).Update("trial_ends_at", time.Now().UTC().Add(-time.Hour)).Error)
	seedRestaurant(t, db, "fresh-trial")

	notifier := &fakeNotifier{}
	pub := &fakePublisher{}
	monitor := NewTrialMonitor(db, NewNotificationService(db, notifier), pub)
	monitor.Now = func() time.Time { return time.Now().UTC() }

	n, err := monitor.CheckExpiredTrials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, notifier.messages, 1)

	ev, ok := pub.last(live.EventSubscriptionUpdate)
	require.True(t, ok)
	assert.Equal(t, "*admin", ev.Channel)

	n, err = monitor.CheckExpiredTrials(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, notifier.messages, 1)
}

func TestTrialMonitor_StartChecksImmediately(t *testing.T) {
	db := setupTestDB(t)
	expired := seedRestaurant(t, db, "lapsed-trial")
	require.NoError(t, db.Model(expired).Update("trial_ends_at", time.Now().UTC().Add(-time.Hour)).Error)

	notifier := &fakeNotifier{}
	monitor := NewTrialMonitor(db, NewNotificationService(db, notifier), &fakePublisher{})
	monitor.Interval = time.Hour
	monitor.Start()
	defer monitor.Stop()

	require.Eventually(t, func() bool {
		var logged int64
		db.Model(&models.Notification{}).Count(&logged)
		return logged == 1
	}, 2*time.Second, 20*time.Millisecond)

	var reloaded models.Restaurant
	require.NoError(t, db.First(&reloaded, "id = ?", expired.ID).Error)
	assert.NotNil(t, reloaded.TrialExpiredNotifiedAt)
}
