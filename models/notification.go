package models

// Notification logs each message sent to the admin channels, one row per
// channel and attempt.
type Notification struct {
	Base
	Channel string `gorm:"type:varchar(32);index" json:"channel"`
	Title   string `gorm:"type:varchar(100)" json:"title"`
	Message string `gorm:"type:text;not null" json:"message"`
	Error   string `gorm:"type:text" json:"error,omitempty"`
}
