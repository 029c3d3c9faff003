package models

const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

type User struct {
	Base
	Name     string `gorm:"type:varchar(255);not null" json:"name"`
	Email    string `gorm:"type:varchar(191);uniqueIndex;not null" json:"email"`
	Password string `gorm:"type:varchar(255);not null" json:"-"`
	Role     string `gorm:"type:varchar(16);not null" json:"role"`
}
