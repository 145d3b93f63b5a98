package auth

import (
	"context"
	"fmt"
)

// Gate is one authorization check over an already resolved identity.
type Gate func(ctx context.Context, id Identity) error

// GrantCounter counts grants of (module, action) held by a role.
type GrantCounter interface {
	CountGrants(ctx context.Context, roleID uint, module, action string) (int64, error)
}

// RequireRoles passes when the caller's role name is one of names. No route
// uses it yet; it composes into Authorize like the permission gate.
func RequireRoles(names ...string) Gate {
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[n] = struct{}{}
	}
	return func(_ context.Context, id Identity) error {
		if _, ok := allowed[id.RoleName()]; ok {
			return nil
		}
		return newError(KindForbidden, "you do not have access to this resource", nil)
	}
}

// RequireLevel passes when the caller's access level is at least min. It is
// the threshold counterpart of RequirePermission for route composition.
func RequireLevel(min int) Gate {
	return func(_ context.Context, id Identity) error {
		if id.AccessLevel() >= min {
			return nil
		}
		return newError(KindForbidden, "insufficient access level", nil)
	}
}

// RequirePermission passes when the caller's role holds (module, action).
// Every call hits the store.
func RequirePermission(gc GrantCounter, module, action string) Gate {
	return func(ctx context.Context, id Identity) error {
		n, err := gc.CountGrants(ctx, id.RoleID(), module, action)
		if err != nil {
			return internal("check permission", err)
		}
		if n == 0 {
			return newError(KindForbidden, fmt.Sprintf("you do not have permission to %s in %s", action, module), nil)
		}
		return nil
	}
}

// Pipeline runs gates in order and stops at the first failure.
type Pipeline []Gate

func (p Pipeline) Run(ctx context.Context, id Identity) error {
	for _, g := range p {
		if err := g(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
