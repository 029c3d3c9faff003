package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xbirks/alergenu-sub000/config"
	"github.com/xbirks/alergenu-sub000/database"
	"github.com/xbirks/alergenu-sub000/middlewares"
	"github.com/xbirks/alergenu-sub000/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

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
	return &config.Config{
		PublicBaseURL: "https://alergenu.test",
		Location:      time.UTC,
		TrialDays:     90,
		TermsVersion:  "2024-01",
		Plans:         plans,
	}
}

// registerOwner signs up a restaurant on the free plan.
func registerOwner(t *testing.T, db *gorm.DB, restaurantName string) *services.RegisterResult {
	auth := services.NewAuthService(db, testConfig(t), nil, nil, nil)
	res, err := auth.Register(context.Background(), services.RegisterInput{
		Name:           "Owner",
		Email:          uuid.NewString()[:8] + "@example.com",
		Password:       "supersecret",
		RestaurantName: restaurantName,
		Plan:           "gratuito",
		AcceptTerms:    true,
	})
	require.NoError(t, err)
	return res
}

// asOwner stands in for AuthMiddleware in controller tests.
func asOwner(res *services.RegisterResult) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxUserID, res.User.ID)
		c.Set(middlewares.CtxRole, res.User.Role)
		c.Set(middlewares.CtxRestaurantID, res.Restaurant.ID)
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) envelope {
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, title+": "+message)
	return f.err
}

func httptestRecorder(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
