package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"gitlab.com/assessment-grader.net/internal/core/ports/primary"
	"gitlab.com/assessment-grader.net/internal/domain"
)

type ctxKey struct{}

type MiddlewareProvider struct {
	jwtService primary.JWTService
	logger     primary.Logger
}

func New(jwtService primary.JWTService, logger primary.Logger) *MiddlewareProvider {
	return &MiddlewareProvider{
		jwtService: jwtService,
		logger:     logger,
	}
}

// AuthPayloadFrom returns the payload stored by JWTMiddleware
func AuthPayloadFrom(ctx context.Context) (domain.AuthPayload, bool) {
	payload, ok := ctx.Value(ctxKey{}).(domain.AuthPayload)
	return payload, ok
}

func (m *MiddlewareProvider) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			ResponseError(w, "Authorization header missing", http.StatusUnauthorized)
			return
		}

		// Extract token from "Bearer <token>"
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		valid, err := m.jwtService.VerifyTokenHMAC(r.Context(), tokenString, jwt.SigningMethodHS256.Name)
		if err != nil || !valid {
			m.logger.Debug("Rejected token", "path", r.URL.Path, "error", err)
			ResponseError(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		payload, err := m.jwtService.DecodeTokenPayload(r.Context(), tokenString)
		if err != nil {
			ResponseError(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, payload)))
	})
}

// RequirePermission rejects requests whose token lacks the permission string
func (m *MiddlewareProvider) RequirePermission(permission string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, ok := AuthPayloadFrom(r.Context())
		if !ok || !payload.Can(permission) {
			ResponseError(w, "Missing permission "+permission, http.StatusForbidden)
			return
		}
		next(w, r)
	})
}
