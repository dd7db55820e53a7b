package shared

import (
	"context"

	"github.com/google/uuid"
)

type sessionContextKey struct{}

type tenantContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithTenant stores the resolved pharmacy id in context.
func ContextWithTenant(ctx context.Context, pharmacyID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, pharmacyID)
}

// TenantFromContext extracts the pharmacy id scoping the current request.
// The zero UUID means no tenant has been resolved.
func TenantFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(tenantContextKey{}).(uuid.UUID)
	return id
}

// ActorFromContext extracts the authenticated user's id from the session,
// if any. Background jobs have no actor and get the zero UUID.
func ActorFromContext(ctx context.Context) uuid.UUID {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(sess.User())
	if err != nil {
		return uuid.Nil
	}
	return id
}
