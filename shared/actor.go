package shared

import (
	"context"
	"marina/shared/constant"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role string
}

func ActorFromContext(ctx context.Context) Actor {
	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	return Actor{
		ID:   userID,
		Role: role,
	}
}

func (a Actor) IsCustomer() bool {
	return a.Role == constant.RoleCustomer
}

func (a Actor) IsOwner() bool {
	return a.Role == constant.RoleOwner
}

// IsStaff is true for actors allowed to drive any booking transition.
func (a Actor) IsStaff() bool {
	return a.Role == constant.RoleAdmin || a.Role == constant.RoleSystem
}
