package domain

type CtxKey string

const (
	KeyUserID      CtxKey = "UserID"
	KeyUserEmail   CtxKey = "Email"
	KeyUserRole    CtxKey = "Role"
	KeyAccessToken CtxKey = "AccessToken"
	KeyRequestID   CtxKey = "RequestID"
)

// RoleFromContext reads the caller's role set by the auth middleware. Gin
// stores values under plain string keys, context.WithValue under CtxKey.
func RoleFromContext(ctx interface{ Value(any) any }) string {
	if r, ok := ctx.Value(string(KeyUserRole)).(string); ok && r != "" {
		return r
	}
	if r, ok := ctx.Value(KeyUserRole).(string); ok {
		return r
	}
	return ""
}
