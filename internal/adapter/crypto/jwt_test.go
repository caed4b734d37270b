package crypto_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gitlab.com/assessment-grader.net/internal/adapter/crypto"
	"gitlab.com/assessment-grader.net/internal/config"
	"gitlab.com/assessment-grader.net/internal/domain"
)

func newService(static string) *crypto.JWTServiceImpl {
	return crypto.NewJWTService(&config.JwtConfig{Secret: "s3cret", Issuer: "grader", ServiceTTL: time.Minute}, static)
}

func TestGenerateAndVerifyHMAC(t *testing.T) {
	svc := newService("")
	ctx := context.Background()

	token, err := svc.GenerateTokenHMAC(ctx, jwt.SigningMethodHS256.Name, map[string]interface{}{
		"username":   "instructor",
		"permission": []string{domain.PermissionView},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err := svc.VerifyTokenHMAC(ctx, token, jwt.SigningMethodHS256.Name)
	if err != nil || !ok {
		t.Fatalf("expected valid token, got %v %v", ok, err)
	}

	payload, err := svc.DecodeTokenPayload(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Username != "instructor" || !payload.Can(domain.PermissionView) || payload.Can(domain.PermissionGrade) {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	other := crypto.NewJWTService(&config.JwtConfig{Secret: "different"}, "")
	if ok, _ := other.VerifyTokenHMAC(ctx, token, jwt.SigningMethodHS256.Name); ok {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := newService("")
	token, err := svc.GenerateTokenHMAC(context.Background(), jwt.SigningMethodHS256.Name, map[string]interface{}{
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok, _ := svc.VerifyTokenHMAC(context.Background(), token, jwt.SigningMethodHS256.Name); ok {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestTokenSource(t *testing.T) {
	tok, err := newService("static-abc").TokenSource().Token()
	if err != nil || tok.AccessToken != "static-abc" {
		t.Fatalf("expected static token, got %v %v", tok, err)
	}

	svc := newService("")
	minted, err := svc.TokenSource().Token()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, err := svc.VerifyTokenHMAC(context.Background(), minted.AccessToken, jwt.SigningMethodHS256.Name)
	if err != nil || !ok {
		t.Fatalf("expected minted token to verify, got %v %v", ok, err)
	}
	payload, _ := svc.DecodeTokenPayload(context.Background(), minted.AccessToken)
	if !payload.Can(domain.PermissionGrade) {
		t.Fatalf("service token lacks grade permission: %+v", payload)
	}
}
