package model

import "time"

// Document is the metadata row for an uploaded or linked file. The blob
// itself lives in the blob store under StoragePath. A conversation holds at
// most one document in the current design; queries fetch a single row.
type Document struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	ConversationID uint      `gorm:"index" json:"conversation_id"` // 0 = not tied to a conversation
	Name           string    `gorm:"size:256;not null" json:"name"`
	ContentType    string    `gorm:"size:128" json:"content_type"`
	Size           int64     `json:"size"`
	StoragePath    string    `gorm:"size:512" json:"storage_path"`
	Preview        string    `gorm:"type:text" json:"preview,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
