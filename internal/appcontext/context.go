// Package appcontext carries request-scoped values through the service
package appcontext

import "context"

// ContextKey is the type used for context keys
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	TenantIDKey  ContextKey = "tenant_id"
	ProjectIDKey ContextKey = "project_id"
	UserIDKey    ContextKey = "user_id"
	MethodKey    ContextKey = "method"
	RouteKey     ContextKey = "route"
	RemoteIPKey  ContextKey = "remote_ip"
)

func Set(ctx context.Context, key ContextKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

func get(ctx context.Context, key ContextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// SetRequestID sets the request ID in the context
func SetRequestID(ctx context.Context, id string) context.Context {
	return Set(ctx, RequestIDKey, id)
}

// GetRequestID returns the request ID from the context
func GetRequestID(ctx context.Context) string {
	return get(ctx, RequestIDKey)
}

// SetTenantID sets the tenant ID in the context
func SetTenantID(ctx context.Context, id string) context.Context {
	return Set(ctx, TenantIDKey, id)
}

// GetTenantID returns the tenant ID from the context
func GetTenantID(ctx context.Context) string {
	return get(ctx, TenantIDKey)
}

// SetProjectID sets the linkage project ID in the context
func SetProjectID(ctx context.Context, id string) context.Context {
	return Set(ctx, ProjectIDKey, id)
}

// GetProjectID returns the linkage project ID from the context
func GetProjectID(ctx context.Context) string {
	return get(ctx, ProjectIDKey)
}

// SetUserID sets the user ID in the context
func SetUserID(ctx context.Context, id string) context.Context {
	return Set(ctx, UserIDKey, id)
}

// GetUserID returns the user ID from the context
func GetUserID(ctx context.Context) string {
	return get(ctx, UserIDKey)
}

// SetMethod sets the HTTP method in the context
func SetMethod(ctx context.Context, method string) context.Context {
	return Set(ctx, MethodKey, method)
}

// GetMethod returns the HTTP method from the context
func GetMethod(ctx context.Context) string {
	return get(ctx, MethodKey)
}

// SetRoute sets the matched route in the context
func SetRoute(ctx context.Context, route string) context.Context {
	return Set(ctx, RouteKey, route)
}

// GetRoute returns the matched route from the context
func GetRoute(ctx context.Context) string {
	return get(ctx, RouteKey)
}

// SetRemoteIP sets the caller IP in the context
func SetRemoteIP(ctx context.Context, ip string) context.Context {
	return Set(ctx, RemoteIPKey, ip)
}

// GetRemoteIP returns the caller IP from the context
func GetRemoteIP(ctx context.Context) string {
	return get(ctx, RemoteIPKey)
}
