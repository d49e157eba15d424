package middleware

import (
	"context"

	pkgAuth "github.com/angelmondragon/stockledger-backend/pkg/auth"
	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"github.com/google/uuid"
)

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxRole        contextKey = "actor_role"
	ctxEmail       contextKey = "actor_email"
	ctxFranchiseID contextKey = "franchise_id"
	ctxAccessID    contextKey = "access_id"
)

func UserIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxUserID)
}

func RoleFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxRole)
}

func FranchiseIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxFranchiseID)
}

// AccessIDFromContext returns the token id of the current session.
func AccessIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxAccessID)
}

// ActorFromContext rebuilds the authenticated actor seeded by Auth.
func ActorFromContext(ctx context.Context) (pkgAuth.Actor, bool) {
	role := enums.AccountRole(RoleFromContext(ctx))
	if !role.IsValid() {
		return pkgAuth.Actor{}, false
	}
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return pkgAuth.Actor{}, false
	}
	return pkgAuth.Actor{
		AccountID:   id,
		Email:       stringFromContext(ctx, ctxEmail),
		Role:        role,
		FranchiseID: FranchiseIDFromContext(ctx),
	}, true
}

// WithActor injects the actor fields into the context.
func WithActor(ctx context.Context, actor pkgAuth.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, actor.AccountID.String())
	ctx = context.WithValue(ctx, ctxRole, string(actor.Role))
	ctx = context.WithValue(ctx, ctxEmail, actor.Email)
	if actor.FranchiseID != "" {
		ctx = context.WithValue(ctx, ctxFranchiseID, actor.FranchiseID)
	}
	return ctx
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
