package model

import "time"

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_user_role,unique" json:"user_id"`
	Role      string    `gorm:"size:32;not null;index:idx_user_role,unique" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
