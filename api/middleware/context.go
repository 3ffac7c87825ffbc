package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/supplychain-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supplychain-backend/pkg/errors"
	"github.com/angelmondragon/supplychain-backend/pkg/types"
)

type contextKey string

const (
	ctxUserID  contextKey = "user_id"
	ctxRole    contextKey = "actor_role"
	ctxSubRole contextKey = "actor_sub_role"
	ctxTokenID contextKey = "token_id"
)

func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func SubRoleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxSubRole).(string); ok {
		return v
	}
	return ""
}

// TokenIDFromContext returns the jti of the access token, which is also
// the session key.
func TokenIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxTokenID).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext builds the engine actor from the authenticated claims.
func ActorFromContext(ctx context.Context) (types.Actor, error) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return types.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	role := enums.Role(RoleFromContext(ctx))
	if !role.IsValid() {
		return types.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return types.Actor{UserID: id, Role: role}, nil
}

// WithActor seeds ctx the way Auth does. Tests and internal callers use it
// to skip token handling.
func WithActor(ctx context.Context, actor types.Actor) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, actor.UserID.String())
	return context.WithValue(ctx, ctxRole, string(actor.Role))
}
