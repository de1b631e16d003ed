package models

import "time"

// Conversation groups messages between one user and their board
type Conversation struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"userId"`
	Title        string    `json:"title"`
	LastActivity time.Time `gorm:"index" json:"lastActivity"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateConversationRequest is the body of POST /conversations
type CreateConversationRequest struct {
	Title string `json:"title" binding:"max=200"`
}
