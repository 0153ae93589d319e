package middleware

import (
	"context"
	"net/http"
	"strings"
)

type userKey struct{}

// UserHeader carries the acting user's identity. It is trusted as given;
// authentication happens upstream of this service.
const UserHeader = "X-User"

// ActingUser stores the caller's identity in the request context, falling
// back to def when the header is absent.
func ActingUser(def string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := strings.TrimSpace(r.Header.Get(UserHeader))
			if u == "" {
				u = def
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
		})
	}
}

// UserFrom returns the acting user set by ActingUser, or "".
func UserFrom(ctx context.Context) string {
	u, _ := ctx.Value(userKey{}).(string)
	return u
}
