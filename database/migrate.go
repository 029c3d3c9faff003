package database

import (
	"errors"
	"strings"

	"github.com/xbirks/alergenu-sub000/models"
	"github.com/xbirks/alergenu-sub000/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migrate creates or updates every table and backfills JSON columns that
// older rows left empty.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.Category{},
		&models.MenuItem{},
		&models.MenuItemHistory{},
		&models.DailyMenu{},
		&models.LegalAcceptance{},
		&models.Notification{},
	)
	if err != nil {
		return err
	}

	backfills := []string{
		"UPDATE menu_items SET extras = '[]' WHERE extras IS NULL OR extras = ''",
		"UPDATE menu_items SET allergens = '{}' WHERE allergens IS NULL OR allergens = ''",
		"UPDATE daily_menus SET courses = '[]' WHERE courses IS NULL OR courses = ''",
	}
	for _, stmt := range backfills {
		if err := db.Exec(stmt).Error; err != nil {
			utils.ErrorLogger.Printf("Error running backfill %q: %v", stmt, err)
		}
	}
	return nil
}

// SeedAdmin creates the platform admin account when it does not exist yet.
func SeedAdmin(db *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Name:     "Admin",
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	utils.InfoLogger.Printf("Admin user %s created", email)
	return nil
}
