package models

import "time"

// Action tags stored in permissions.action.
const (
	ActionRead   = "leer"
	ActionCreate = "crear"
	ActionEdit   = "editar"
	ActionDelete = "eliminar"
)

type Role struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string    `json:"description"`
	AccessLevel int       `gorm:"not null;default:1" json:"access_level"`
	CreatedAt   time.Time `json:"created_at"`
}

// User is never hard-deleted; Active=false deactivates it.
type User struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email        string     `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	DisplayName  string     `gorm:"size:100;not null" json:"display_name"`
	Phone        *string    `gorm:"size:20" json:"phone,omitempty"`
	AvatarURL    *string    `json:"avatar_url,omitempty"`
	Active       bool       `gorm:"not null;default:true" json:"active"`
	RoleID       uint       `gorm:"index;not null" json:"role_id"`
	Role         Role       `json:"role"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Module is a functional area of the console with its navigation metadata.
type Module struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string    `json:"description"`
	Icon        string    `gorm:"size:50" json:"icon"`
	Route       string    `gorm:"size:100" json:"route"`
	Order       int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time `json:"-"`
}

type Permission struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ModuleID uint   `gorm:"uniqueIndex:idx_permission_module_action;not null" json:"module_id"`
	Module   Module `json:"-"`
	Action   string `gorm:"uniqueIndex:idx_permission_module_action;size:20;not null" json:"action"`
}

// RolePermission is a grant of one permission to one role.
type RolePermission struct {
	RoleID       uint      `gorm:"primaryKey" json:"role_id"`
	PermissionID uint      `gorm:"primaryKey" json:"permission_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session binds an issued token to a user. Rows are deactivated, never purged.
type Session struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Token     string    `gorm:"type:text;not null;index" json:"-"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// ActivityLog is append-only.
type ActivityLog struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      *uint     `gorm:"index" json:"user_id,omitempty"`
	Action      string    `gorm:"size:50;not null" json:"action"`
	Module      string    `gorm:"size:50" json:"module"`
	Description string    `json:"description"`
	IPAddress   string    `gorm:"size:45" json:"ip_address"`
	Payload     JSONText  `gorm:"type:text" json:"payload,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// All lists every model in migration order.
func All() []any {
	return []any{&Role{}, &Module{}, &Permission{}, &RolePermission{}, &User{}, &Session{}, &ActivityLog{}}
}
