package store

import (
	"context"
	"fmt"
	"time"

	"consola/internal/models"
)

type RoleCount struct {
	Role  string `json:"role"`
	Total int64  `json:"total"`
}

type DayCount struct {
	Day   string `json:"day"`
	Total int64  `json:"total"`
}

type RecentLogin struct {
	DisplayName string    `json:"display_name"`
	Username    string    `json:"username"`
	LastLogin   time.Time `json:"last_login"`
	Role        string    `json:"role"`
}

type ModuleCount struct {
	Module string `json:"module"`
	Total  int64  `json:"total"`
}

type DashboardStats struct {
	ActiveUsers    int64         `json:"active_users"`
	UsersByRole    []RoleCount   `json:"users_by_role"`
	RecentActivity []DayCount    `json:"recent_activity"`
	RecentLogins   []RecentLogin `json:"recent_logins"`
	TopModules     []ModuleCount `json:"top_modules"`
	ActiveSessions int64         `json:"active_sessions"`
}

// Stats aggregates the dashboard counters as of now.
func (s *Store) Stats(ctx context.Context, now time.Time) (*DashboardStats, error) {
	now = now.UTC()
	db := s.db.WithContext(ctx)
	st := &DashboardStats{
		UsersByRole:    []RoleCount{},
		RecentActivity: []DayCount{},
		RecentLogins:   []RecentLogin{},
		TopModules:     []ModuleCount{},
	}

	if err := db.Model(&models.User{}).Where("active = ?", true).Count(&st.ActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("active users: %w", err)
	}

	err := db.Table("roles").
		Select("roles.name AS role, COUNT(users.id) AS total").
		Joins("LEFT JOIN users ON users.role_id = roles.id AND users.active = ?", true).
		Group("roles.id, roles.name, roles.access_level").
		Order("roles.access_level DESC").
		Scan(&st.UsersByRole).Error
	if err != nil {
		return nil, fmt.Errorf("users by role: %w", err)
	}

	err = db.Table("activity_logs").
		Select("DATE(created_at) AS day, COUNT(*) AS total").
		Where("created_at >= ?", now.AddDate(0, 0, -7)).
		Group("DATE(created_at)").
		Order("day DESC").
		Scan(&st.RecentActivity).Error
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}

	err = db.Table("users").
		Select("users.display_name, users.username, users.last_login, roles.name AS role").
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("users.last_login IS NOT NULL").
		Order("users.last_login DESC").
		Limit(10).
		Scan(&st.RecentLogins).Error
	if err != nil {
		return nil, fmt.Errorf("recent logins: %w", err)
	}

	err = db.Table("activity_logs").
		Select("module, COUNT(*) AS total").
		Where("created_at >= ? AND module <> ''", now.AddDate(0, 0, -30)).
		Group("module").
		Order("total DESC").
		Limit(5).
		Scan(&st.TopModules).Error
	if err != nil {
		return nil, fmt.Errorf("top modules: %w", err)
	}

	err = db.Model(&models.Session{}).
		Where("active = ? AND expires_at > ?", true, now).
		Count(&st.ActiveSessions).Error
	if err != nil {
		return nil, fmt.Errorf("active sessions: %w", err)
	}
	return st, nil
}
