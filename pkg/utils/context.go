package utils

import (
	"context"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RoleKey   contextKey = "role"
)

// Actor roles carried in bearer tokens.
const (
	RoleClient   = "client"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
	RoleService  = "service"
)

// Actor is the identified caller of an operation.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleService
}

// String renders the actor as "role:id" for audit columns and logs.
func (a Actor) String() string {
	return a.Role + ":" + a.ID
}

func GetActorFromContext(ctx context.Context) (Actor, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	if !ok || id == "" {
		return Actor{}, false
	}
	role, _ := ctx.Value(RoleKey).(string)
	return Actor{ID: id, Role: role}, true
}

func SetActorContext(ctx context.Context, actor Actor) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, actor.ID)
	ctx = context.WithValue(ctx, RoleKey, actor.Role)
	return ctx
}
