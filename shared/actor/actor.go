// Package actor carries the authenticated caller through request contexts.
package actor

import (
	"context"

	"teleconsult/shared/constant"
)

type Actor struct {
	ID           string
	Identity     string
	Role         string
	OrgID        string
	DepartmentID string
}

func (a Actor) Is(roles ...string) bool {
	for _, role := range roles {
		if a.Role == role {
			return true
		}
	}

	return false
}

// WithActor stores the actor under the per-field context keys the rest of the code reads.
func WithActor(ctx context.Context, a Actor) context.Context {
	ctx = context.WithValue(ctx, constant.ContextKeyUserID, a.ID)
	ctx = context.WithValue(ctx, constant.ContextKeyUserEmail, a.Identity)
	ctx = context.WithValue(ctx, constant.ContextKeyUserRole, a.Role)
	ctx = context.WithValue(ctx, constant.ContextKeyOrgID, a.OrgID)

	return context.WithValue(ctx, constant.ContextKeyDepartmentID, a.DepartmentID)
}

// FromContext returns the actor, or a guest when the request is unauthenticated.
func FromContext(ctx context.Context) Actor {
	a := Actor{}
	a.ID, _ = ctx.Value(constant.ContextKeyUserID).(string)
	a.Identity, _ = ctx.Value(constant.ContextKeyUserEmail).(string)
	a.Role, _ = ctx.Value(constant.ContextKeyUserRole).(string)
	a.OrgID, _ = ctx.Value(constant.ContextKeyOrgID).(string)
	a.DepartmentID, _ = ctx.Value(constant.ContextKeyDepartmentID).(string)

	if a.Identity == "" {
		a.Identity = constant.ContextGuest
	}

	return a
}

// System is the actor used by background jobs.
func System() Actor {
	return Actor{Identity: constant.ContextSystem, Role: constant.RoleSuperAdmin}
}
