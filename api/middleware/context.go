package middleware

import (
	"context"

	"github.com/angelmondragon/vitalflex-backend/pkg/auth"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxUserEmail contextKey = "user_email"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func UserEmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserEmail).(string); ok {
		return v
	}
	return ""
}

// IdentityFromContext rebuilds the authenticated identity, or nil for
// anonymous requests.
func IdentityFromContext(ctx context.Context) *auth.Identity {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return nil
	}
	return &auth.Identity{UserID: userID, Email: UserEmailFromContext(ctx)}
}

// WithIdentity injects the authenticated identity into the context.
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, identity.UserID)
	return context.WithValue(ctx, ctxUserEmail, identity.Email)
}
