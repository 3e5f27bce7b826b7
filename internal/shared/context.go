package shared

import (
	"context"
	"fmt"
	"strings"
)

type tenantContextKey struct{}

// ContextWithTenant stores the tenant partition key in context.
func ContextWithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, strings.TrimSpace(tenantID))
}

// TenantFromContext extracts the tenant partition key from context.
func TenantFromContext(ctx context.Context) string {
	tenant, _ := ctx.Value(tenantContextKey{}).(string)
	return tenant
}

// RequireTenant returns the tenant in context or ErrValidation when none is set.
func RequireTenant(ctx context.Context) (string, error) {
	tenant := TenantFromContext(ctx)
	if tenant == "" {
		return "", fmt.Errorf("%w: tenant required", ErrValidation)
	}
	return tenant, nil
}
