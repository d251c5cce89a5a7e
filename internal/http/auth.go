package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/solawi/internal/auth"
	"github.com/kjstillabower/solawi/internal/models"
	"github.com/kjstillabower/solawi/internal/observability"
)

// currentUser returns the user stored by requireAuth.
func currentUser(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// requireAuth rejects requests without a valid bearer token (401). With
// passwordChanged, users that still have their initial password get 403.
func (h *Handler) requireAuth(passwordChanged bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
				return
			}
			user, err := h.svc.UserForToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					observability.LoggerFromContext(r.Context()).Debug("token rejected", zap.Error(err))
					writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
					return
				}
				writeServiceError(w, r, err)
				return
			}
			if passwordChanged && user.PasswordChangedAt == nil {
				writeError(w, r, http.StatusForbidden, "PASSWORD_CHANGE_REQUIRED", "initial password must be changed")
				return
			}
			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = observability.WithLogger(ctx, observability.LoggerFromContext(ctx).With(zap.Int64("user_id", user.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
