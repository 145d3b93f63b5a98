package auth

import (
	"context"
	"errors"
	"strings"

	"consola/internal/audit"
	"consola/internal/models"
	"consola/internal/store"
)

// UserUpdate is an administrative edit. Nil fields are left unchanged.
type UserUpdate struct {
	DisplayName *string `json:"display_name,omitempty"`
	Active      *bool   `json:"active,omitempty"`
	RoleID      *uint   `json:"role_id,omitempty"`
}

type UserPage struct {
	Items []Profile `json:"items"`
	Total int64     `json:"total"`
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) (*UserPage, error) {
	users, total, err := s.store.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, internal("list users", err)
	}
	page := &UserPage{Items: make([]Profile, 0, len(users)), Total: total}
	for i := range users {
		p := publicProfile(&users[i])
		p.LastLogin = users[i].LastLogin
		page.Items = append(page.Items, p)
	}
	return page, nil
}

// CreateUser registers a user on behalf of actor. The role must not rank
// above the actor's own.
func (s *Service) CreateUser(ctx context.Context, actor Identity, in RegisterInput) (uint, error) {
	if in.RoleID != nil {
		if err := s.checkAssignable(ctx, actor, *in.RoleID); err != nil {
			return 0, err
		}
	}
	id, err := s.Register(ctx, in)
	if err != nil {
		return 0, err
	}
	aid := actor.UserID()
	s.audit.Record(ctx, audit.Event{
		ActorID:     &aid,
		Action:      audit.ActionUserCreated,
		Module:      audit.ModuleUsers,
		Description: "created user " + in.Username,
		IP:          in.IP,
		Payload:     map[string]any{"user_id": id},
	})
	return id, nil
}

// UpdateUser applies upd to the target user. Actors cannot edit users that
// outrank them, grant roles above their own or deactivate themselves.
func (s *Service) UpdateUser(ctx context.Context, actor Identity, userID uint, upd UserUpdate, ip string) (*Profile, error) {
	target, err := s.manageable(ctx, actor, userID)
	if err != nil {
		return nil, err
	}
	if upd.DisplayName != nil {
		name := strings.TrimSpace(*upd.DisplayName)
		if name == "" {
			return nil, validation("display name is required")
		}
		upd.DisplayName = &name
	}
	if upd.Active != nil && !*upd.Active && userID == actor.UserID() {
		return nil, validation("you cannot deactivate your own account")
	}
	if upd.RoleID != nil {
		if err := s.checkAssignable(ctx, actor, *upd.RoleID); err != nil {
			return nil, err
		}
	}

	err = s.store.UpdateUser(ctx, userID, store.UserChanges{
		DisplayName: upd.DisplayName,
		Active:      upd.Active,
		RoleID:      upd.RoleID,
	})
	if err != nil {
		return nil, internal("update user", err)
	}
	if upd.Active != nil && !*upd.Active {
		if err := s.store.DeactivateUserSessions(ctx, userID); err != nil {
			return nil, internal("close sessions", err)
		}
	}

	aid := actor.UserID()
	s.audit.Record(ctx, audit.Event{
		ActorID:     &aid,
		Action:      audit.ActionUserUpdated,
		Module:      audit.ModuleUsers,
		Description: "updated user " + target.Username,
		IP:          ip,
		Payload:     upd,
	})
	return s.Profile(ctx, userID)
}

// DeactivateUser disables the account and closes its sessions. Rows are
// never deleted so the activity trail keeps its actor.
func (s *Service) DeactivateUser(ctx context.Context, actor Identity, userID uint, ip string) error {
	if userID == actor.UserID() {
		return validation("you cannot deactivate your own account")
	}
	target, err := s.manageable(ctx, actor, userID)
	if err != nil {
		return err
	}
	inactive := false
	if err := s.store.UpdateUser(ctx, userID, store.UserChanges{Active: &inactive}); err != nil {
		return internal("deactivate user", err)
	}
	if err := s.store.DeactivateUserSessions(ctx, userID); err != nil {
		return internal("close sessions", err)
	}

	aid := actor.UserID()
	s.audit.Record(ctx, audit.Event{
		ActorID:     &aid,
		Action:      audit.ActionUserDisabled,
		Module:      audit.ModuleUsers,
		Description: "deactivated user " + target.Username,
		IP:          ip,
	})
	return nil
}

func (s *Service) manageable(ctx context.Context, actor Identity, userID uint) (*models.User, error) {
	u, err := s.store.UserWithRole(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "user not found", nil)
	}
	if err != nil {
		return nil, internal("load user", err)
	}
	if u.ID != actor.UserID() && u.Role.AccessLevel > actor.AccessLevel() {
		return nil, newError(KindForbidden, "you cannot manage a user with a higher access level", nil)
	}
	return u, nil
}

func (s *Service) checkAssignable(ctx context.Context, actor Identity, roleID uint) error {
	role, err := s.store.RoleByID(ctx, roleID)
	if errors.Is(err, store.ErrNotFound) {
		return validation("role does not exist")
	}
	if err != nil {
		return internal("resolve role", err)
	}
	if role.AccessLevel > actor.AccessLevel() {
		return newError(KindForbidden, "you cannot assign a role above your own", nil)
	}
	return nil
}
