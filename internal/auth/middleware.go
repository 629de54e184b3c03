package auth

import (
	"context"
	"net/http"
	"strings"

	"bread-calculator/internal/httpjson"
	"bread-calculator/internal/logger"

	"go.uber.org/zap"
)

type contextKey string

const UserIDKey = contextKey("userID")

// Middleware requires a bearer token. A missing header or a non-Bearer scheme
// is 403; a token that does not verify is 401.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httpjson.Error(w, http.StatusForbidden, "Not authenticated")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			httpjson.Error(w, http.StatusForbidden, "Invalid authentication credentials")
			return
		}

		claims, err := s.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.FromContext(r.Context()).Debug("rejected bearer token", zap.Error(err))
			w.Header().Set("WWW-Authenticate", "Bearer")
			httpjson.Error(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		ctx := WithUserID(r.Context(), claims.UserID)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(zap.Int64("user_id", claims.UserID)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}
