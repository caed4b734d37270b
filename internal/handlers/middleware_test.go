package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gitlab.com/assessment-grader.net/internal/adapter/crypto"
	"gitlab.com/assessment-grader.net/internal/adapter/logging"
	"gitlab.com/assessment-grader.net/internal/config"
	"gitlab.com/assessment-grader.net/internal/domain"
	"gitlab.com/assessment-grader.net/internal/handlers"
)

func TestJWTMiddleware(t *testing.T) {
	jwtSvc := crypto.NewJWTService(&config.JwtConfig{Secret: "secret", Issuer: "test"}, "")
	mw := handlers.New(jwtSvc, logging.NewNopLogger())

	sign := func(secret string, permissions []string, exp time.Time) string {
		svc := crypto.NewJWTService(&config.JwtConfig{Secret: secret}, "")
		tok, err := svc.GenerateTokenHMAC(context.Background(), jwt.SigningMethodHS256.Name, map[string]interface{}{
			"username":   "alice",
			"permission": permissions,
			"exp":        exp.Unix(),
		})
		if err != nil {
			t.Fatalf("failed to sign: %v", err)
		}
		return tok
	}

	protected := mw.JWTMiddleware(mw.RequirePermission(domain.PermissionGrade, func(w http.ResponseWriter, r *http.Request) {
		payload, _ := handlers.AuthPayloadFrom(r.Context())
		handlers.ResponseWithJson(w, http.StatusOK, payload)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + sign("other", []string{domain.PermissionGrade}, time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"expired", "Bearer " + sign("secret", []string{domain.PermissionGrade}, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"missing permission", "Bearer " + sign("secret", []string{domain.PermissionView}, time.Now().Add(time.Hour)), http.StatusForbidden},
		{"allowed", "Bearer " + sign("secret", []string{domain.PermissionView, domain.PermissionGrade}, time.Now().Add(time.Hour)), http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api/grading/runs/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
