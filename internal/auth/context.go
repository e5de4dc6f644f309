package auth

import "context"

type contextKey struct{}

var userIDContextKey = contextKey{}

// ContextWithUserID returns a ctx carrying the authenticated user id.
// Set by the auth middleware, read by handlers.
func ContextWithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func UserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int)
	return userID, ok
}
