package models

import "time"

// SystemSetting is an admin-editable key/value pair
type SystemSetting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;not null" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// All returns every model for AutoMigrate
func All() []any {
	return []any{
		&User{},
		&BoardMember{},
		&Conversation{},
		&Message{},
		&SystemSetting{},
	}
}
