package models

import "time"

// MaxMessageLength is the maximum number of characters in a message.
const MaxMessageLength = 140

// Message is a short post (a "warble") written by a user.
type Message struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Text      string    `gorm:"type:varchar(140);not null" json:"text"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Liked is a read-only projection: whether the viewing user has liked
	// this message. Populated per-query, never stored.
	Liked bool `gorm:"->" json:"liked"`
}

// MessageAPI is the compact representation returned by the JSON like endpoint.
type MessageAPI struct {
	ID     uint   `json:"id"`
	Text   string `json:"text"`
	UserID uint   `json:"user_id"`
}

// API returns the compact JSON representation of the message.
func (m *Message) API() MessageAPI {
	return MessageAPI{ID: m.ID, Text: m.Text, UserID: m.UserID}
}
