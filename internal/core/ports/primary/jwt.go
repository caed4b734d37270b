package primary

import (
	"context"

	"golang.org/x/oauth2"

	"gitlab.com/assessment-grader.net/internal/domain"
)

type JWTService interface {
	// GenerateTokenHMAC signs claims with the shared secret
	GenerateTokenHMAC(ctx context.Context, method string, claims map[string]interface{}) (string, error)
	// VerifyTokenHMAC validates signature and expiry of an HMAC token
	VerifyTokenHMAC(ctx context.Context, token string, method string) (bool, error)
	// DecodeTokenPayload extracts the auth payload from a verified token
	DecodeTokenPayload(ctx context.Context, token string) (domain.AuthPayload, error)
	// TokenSource issues bearer tokens for outbound calls
	TokenSource() oauth2.TokenSource
}
