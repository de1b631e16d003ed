package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Sender kinds
const (
	SenderUser    = "user"
	SenderPersona = "persona"
)

// Message kinds
const (
	KindText  = "text"
	KindImage = "image"
	KindAudio = "audio"
)

// ValidKind reports whether k is a supported message kind
func ValidKind(k string) bool {
	return k == KindText || k == KindImage || k == KindAudio
}

// IsMedia reports whether k carries an attachment
func IsMedia(k string) bool {
	return k == KindImage || k == KindAudio
}

// Message is one immutable entry in a conversation log, ordered by (CreatedAt, ID)
type Message struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ConversationID uint           `gorm:"index:idx_messages_conversation_created,priority:1;not null" json:"conversationId"`
	SenderType     string         `gorm:"type:varchar(16);not null" json:"senderType"`
	SenderID       *uint          `gorm:"index" json:"senderId"`
	Content        string         `gorm:"type:text" json:"content"`
	MessageType    string         `gorm:"type:varchar(16);not null;default:text" json:"messageType"`
	Metadata       datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt      time.Time      `gorm:"index:idx_messages_conversation_created,priority:2" json:"createdAt"`
}

// MessageMetadata is the structured form of Message.Metadata
type MessageMetadata struct {
	FileURL           string   `json:"fileUrl,omitempty"`
	MimeType          string   `json:"mimeType,omitempty"`
	Size              int64    `json:"size,omitempty"`
	OriginalName      string   `json:"originalName,omitempty"`
	FollowUpQuestions []string `json:"followUpQuestions,omitempty"`
	Personality       string   `json:"personality,omitempty"`
}

// Empty reports whether no field is set
func (m MessageMetadata) Empty() bool {
	return m.FileURL == "" && m.MimeType == "" && m.Size == 0 && m.OriginalName == "" &&
		len(m.FollowUpQuestions) == 0 && m.Personality == ""
}

// JSON encodes the metadata for storage. Empty metadata is stored as NULL.
func (m MessageMetadata) JSON() datatypes.JSON {
	if m.Empty() {
		return nil
	}
	b, _ := json.Marshal(m)
	return datatypes.JSON(b)
}

// Meta decodes the stored metadata. Unknown or malformed content yields the zero value.
func (m *Message) Meta() MessageMetadata {
	var meta MessageMetadata
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &meta)
	}
	return meta
}

// Attachment describes uploaded media referenced by a user message
type Attachment struct {
	URL          string `json:"url"`
	MimeType     string `json:"mimeType,omitempty"`
	Size         int64  `json:"size,omitempty"`
	OriginalName string `json:"originalName,omitempty"`
}
