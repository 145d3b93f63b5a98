package store

import (
	"context"
	"fmt"

	"consola/internal/models"
)

// UserChanges holds the columns an administrator may edit. Nil fields are
// left untouched.
type UserChanges struct {
	DisplayName *string
	Active      *bool
	RoleID      *uint
}

func (c UserChanges) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if c.DisplayName != nil {
		cols["display_name"] = *c.DisplayName
	}
	if c.Active != nil {
		cols["active"] = *c.Active
	}
	if c.RoleID != nil {
		cols["role_id"] = *c.RoleID
	}
	return cols
}

// ListUsers returns one page of users with their roles, newest first.
func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	users := []models.User{}
	err := s.db.WithContext(ctx).Preload("Role").
		Order("created_at DESC, id DESC").Limit(limit).Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (s *Store) UpdateUser(ctx context.Context, userID uint, c UserChanges) error {
	cols := c.columns()
	if len(cols) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateUserSessions closes every open session of userID.
func (s *Store) DeactivateUserSessions(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND active = ?", userID, true).
		Update("active", false).Error
}
