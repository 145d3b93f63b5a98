// Package store is the gorm-backed credential store: users, roles,
// grants, sessions and the activity log.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"consola/internal/models"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate")
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Grant is one flattened (module, action) pair held by a role.
type Grant struct {
	Module string `json:"module"`
	Action string `json:"action"`
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// FindLoginCandidate returns the active user whose username or email equals
// login exactly. When login is one user's username and another user's
// email, the username match wins.
func (s *Store) FindLoginCandidate(ctx context.Context, login string) (*models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Preload("Role").
		Where("(username = ? OR email = ?) AND active = ?", login, login, true).
		Order("id").Limit(2).Find(&users).Error
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	for i := range users {
		if users[i].Username == login {
			return &users[i], nil
		}
	}
	return &users[0], nil
}

func (s *Store) UserExists(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).Count(&n).Error
	return n > 0, err
}

func (s *Store) RoleByID(ctx context.Context, id uint) (*models.Role, error) {
	var r models.Role
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// LowestRole is the least privileged role, used as the registration default.
func (s *Store) LowestRole(ctx context.Context) (*models.Role, error) {
	var r models.Role
	if err := s.db.WithContext(ctx).Order("access_level ASC, id ASC").First(&r).Error; err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	err := s.db.WithContext(ctx).Omit("Role").Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (s *Store) SetUserActive(ctx context.Context, userID uint, active bool) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("active", active).Error
}

// ActiveUserWithRole loads an active user joined with its role.
func (s *Store) ActiveUserWithRole(ctx context.Context, userID uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Preload("Role").
		Where("id = ? AND active = ?", userID, true).First(&u).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// UserWithRole loads a user regardless of its active flag.
func (s *Store) UserWithRole(ctx context.Context, userID uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Preload("Role").First(&u, userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// OpenSession inserts sess and stamps the user's last login at in one
// transaction.
func (s *Store) OpenSession(ctx context.Context, sess *models.Session, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sess).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		err := tx.Model(&models.User{}).Where("id = ?", sess.UserID).
			Update("last_login", at).Error
		if err != nil {
			return fmt.Errorf("update last login: %w", err)
		}
		return nil
	})
}

// FindActiveSession matches the exact token for userID that is still active
// and unexpired at now.
func (s *Store) FindActiveSession(ctx context.Context, userID uint, token string, now time.Time) (*models.Session, error) {
	var sess models.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND token = ? AND active = ? AND expires_at > ?", userID, token, true, now.UTC()).
		First(&sess).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &sess, nil
}

// DeactivateSession flips every session holding token to inactive. Calling
// it on an already inactive session is not an error.
func (s *Store) DeactivateSession(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Model(&models.Session{}).Where("token = ?", token).
		Update("active", false).Error
}

// CountGrants counts grants of (module, action) to roleID.
func (s *Store) CountGrants(ctx context.Context, roleID uint, module, action string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Table("role_permissions").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Joins("JOIN modules ON modules.id = permissions.module_id").
		Where("role_permissions.role_id = ? AND modules.name = ? AND permissions.action = ?", roleID, module, action).
		Count(&n).Error
	return n, err
}

func (s *Store) RoleGrants(ctx context.Context, roleID uint) ([]Grant, error) {
	grants := []Grant{}
	err := s.db.WithContext(ctx).Table("role_permissions").
		Select("modules.name AS module, permissions.action AS action").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Joins("JOIN modules ON modules.id = permissions.module_id").
		Where("role_permissions.role_id = ?", roleID).
		Order("modules.sort_order, permissions.action").
		Scan(&grants).Error
	if err != nil {
		return nil, fmt.Errorf("role grants: %w", err)
	}
	return grants, nil
}

// ModulesForRole lists active modules the role can read, in navigation order.
func (s *Store) ModulesForRole(ctx context.Context, roleID uint) ([]models.Module, error) {
	mods := []models.Module{}
	err := s.db.WithContext(ctx).Table("modules").
		Select("DISTINCT modules.id, modules.name, modules.description, modules.icon, modules.route, modules.sort_order, modules.active").
		Joins("JOIN permissions ON permissions.module_id = modules.id").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ? AND modules.active = ? AND permissions.action = ?", roleID, true, models.ActionRead).
		Order("modules.sort_order").
		Find(&mods).Error
	if err != nil {
		return nil, fmt.Errorf("modules for role: %w", err)
	}
	return mods, nil
}

func (s *Store) AppendActivity(ctx context.Context, entry *models.ActivityLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// ActivityForUser returns one page of the user's activity, newest first,
// plus the total row count.
func (s *Store) ActivityForUser(ctx context.Context, userID uint, limit, offset int) ([]models.ActivityLog, int64, error) {
	var total int64
	q := s.db.WithContext(ctx).Model(&models.ActivityLog{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count activity: %w", err)
	}
	logs := []models.ActivityLog{}
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Limit(limit).Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}
	return logs, total, nil
}
