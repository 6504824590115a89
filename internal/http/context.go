package http

import (
	"context"

	"github.com/example/studio-scheduler/internal/application"
	"github.com/example/studio-scheduler/internal/persistence"
)

type principalKey struct{}
type studioKey struct{}

// ContextWithPrincipal attaches the resolved principal to the context.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext extracts the principal attached by middleware.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalKey{}).(application.Principal)
	return principal, ok
}

// ContextWithStudio attaches the resolved tenant to the context.
func ContextWithStudio(ctx context.Context, studio persistence.Studio) context.Context {
	return context.WithValue(ctx, studioKey{}, studio)
}

// StudioFromContext extracts the tenant attached by middleware.
func StudioFromContext(ctx context.Context) (persistence.Studio, bool) {
	studio, ok := ctx.Value(studioKey{}).(persistence.Studio)
	return studio, ok
}
