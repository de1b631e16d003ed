package models

import (
	"time"

	"ai-board-of-directors/backend/internal/persona"
)

// BoardMember is a persona owned by one user. It is never hard-deleted; IsActive=false hides it.
type BoardMember struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UserID       uint         `gorm:"index;not null" json:"userId"`
	Name         string       `gorm:"not null" json:"name"`
	Personality  persona.Kind `gorm:"type:varchar(64);not null" json:"personality"`
	Description  string       `gorm:"type:text" json:"description,omitempty"`
	AvatarURL    string       `json:"avatarUrl,omitempty"`
	SystemPrompt string       `gorm:"type:text" json:"-"`
	IsActive     bool         `gorm:"index;not null" json:"isActive"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

func (BoardMember) TableName() string { return "board_members" }

// BoardMemberSummary is the part of a board member attached to each reply
type BoardMemberSummary struct {
	ID          uint         `json:"id"`
	Name        string       `json:"name"`
	Personality persona.Kind `json:"personality"`
	AvatarURL   string       `json:"avatarUrl,omitempty"`
}

func (m *BoardMember) Summary() BoardMemberSummary {
	return BoardMemberSummary{
		ID:          m.ID,
		Name:        m.Name,
		Personality: m.Personality,
		AvatarURL:   m.AvatarURL,
	}
}

// CreateBoardMemberRequest is the body of POST /board-members
type CreateBoardMemberRequest struct {
	Name              string `json:"name" binding:"required,max=100"`
	Personality       string `json:"personality" binding:"required"`
	CustomDescription string `json:"description"`
	AvatarURL         string `json:"avatarUrl"`
}

// UpdateBoardMemberRequest is the body of PUT /board-members/:id. Nil fields are left unchanged.
type UpdateBoardMemberRequest struct {
	Name              *string `json:"name" binding:"omitempty,max=100"`
	Personality       *string `json:"personality"`
	CustomDescription *string `json:"description"`
	AvatarURL         *string `json:"avatarUrl"`
}
