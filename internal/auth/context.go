package auth

import (
	"context"

	"consola/internal/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Identity is the authenticated caller resolved for one request.
type Identity struct {
	User      models.User
	Token     string
	SessionID uint
}

func (i Identity) UserID() uint { return i.User.ID }
func (i Identity) RoleID() uint { return i.User.RoleID }
func (i Identity) RoleName() string { return i.User.Role.Name }
func (i Identity) AccessLevel() int { return i.User.Role.AccessLevel }

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
