package repository

import (
	"fmt"

	"gorm.io/gorm"

	"docuchat/internal/model"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) HasRole(userID uint, role string) (bool, error) {
	var n int64
	if err := r.db.Model(&model.UserRole{}).Where("user_id = ? AND role = ?", userID, role).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check role failed: %w", err)
	}
	return n > 0, nil
}

func (r *RoleRepository) Grant(userID uint, role string) error {
	if err := r.db.Create(&model.UserRole{UserID: userID, Role: role}).Error; err != nil {
		return fmt.Errorf("grant role failed: %w", err)
	}
	return nil
}
