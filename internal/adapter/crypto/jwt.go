package crypto

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"gitlab.com/assessment-grader.net/internal/config"
	"gitlab.com/assessment-grader.net/internal/core/ports/primary"
	"gitlab.com/assessment-grader.net/internal/domain"
)

var _ primary.JWTService = (*JWTServiceImpl)(nil)

var (
	ErrInvalidToken = fmt.Errorf("invalid token")
)

// servicePermissions are carried by tokens minted for outbound calls
var servicePermissions = []string{domain.PermissionGrade, domain.PermissionView}

type JWTServiceImpl struct {
	HMACSecretKey string
	Issuer        string
	ServiceTTL    time.Duration
	// StaticToken, when set, is used as is for outbound calls
	StaticToken string
}

func NewJWTService(jwtConfig *config.JwtConfig, staticToken string) *JWTServiceImpl {
	return &JWTServiceImpl{
		HMACSecretKey: jwtConfig.Secret,
		Issuer:        jwtConfig.Issuer,
		ServiceTTL:    jwtConfig.ServiceTTL,
		StaticToken:   staticToken,
	}
}

func (J JWTServiceImpl) GenerateTokenHMAC(ctx context.Context, method string, claims map[string]interface{}) (string, error) {
	signingMethod := jwt.GetSigningMethod(method)
	if signingMethod == nil {
		return "", fmt.Errorf("unsupported signing method: %s", method)
	}
	if _, ok := signingMethod.(*jwt.SigningMethodHMAC); !ok {
		return "", fmt.Errorf("not an HMAC signing method: %s", method)
	}

	// Ensure the claims map contains an expiration time
	if _, exists := claims["exp"]; !exists {
		claims["exp"] = time.Now().Add(time.Hour * 1).Unix()
	}

	tok := jwt.NewWithClaims(signingMethod, jwt.MapClaims(claims))
	return tok.SignedString([]byte(J.HMACSecretKey))
}

func (J JWTServiceImpl) VerifyTokenHMAC(ctx context.Context, token string, method string) (bool, error) {
	signingMethod := jwt.GetSigningMethod(method)
	if signingMethod == nil {
		return false, fmt.Errorf("unsupported signing method: %s", method)
	}

	parsedToken, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(J.HMACSecretKey), nil
	}, jwt.WithValidMethods([]string{signingMethod.Alg()}))
	if err != nil {
		return false, err
	}

	return parsedToken.Valid, nil
}

func decodeSeg(segment string) ([]byte, error) {
	return jwt.NewParser().DecodeSegment(segment)
}

// DecodeTokenPayload reads the auth payload; the token must be verified first
func (J JWTServiceImpl) DecodeTokenPayload(ctx context.Context, token string) (domain.AuthPayload, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return domain.AuthPayload{}, ErrInvalidToken
	}

	payloadData, err := decodeSeg(parts[1])
	if err != nil {
		return domain.AuthPayload{}, fmt.Errorf("failed to decode token payload: %w", err)
	}

	var authPayload domain.AuthPayload
	if err := json.Unmarshal(payloadData, &authPayload); err != nil {
		return domain.AuthPayload{}, fmt.Errorf("failed to parse AuthPayload: %w", err)
	}

	return authPayload, nil
}

// TokenSource issues bearer tokens for outbound calls: the static token when
// configured, otherwise a cached, self-signed service token.
func (J JWTServiceImpl) TokenSource() oauth2.TokenSource {
	if J.StaticToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: J.StaticToken, TokenType: "Bearer"})
	}
	return oauth2.ReuseTokenSource(nil, serviceTokenSource{svc: J})
}

type serviceTokenSource struct {
	svc JWTServiceImpl
}

func (s serviceTokenSource) Token() (*oauth2.Token, error) {
	ttl := s.svc.ServiceTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	expiry := time.Now().Add(ttl)

	signed, err := s.svc.GenerateTokenHMAC(context.Background(), jwt.SigningMethodHS256.Name, map[string]interface{}{
		"iss":        s.svc.Issuer,
		"username":   s.svc.Issuer,
		"permission": servicePermissions,
		"iat":        time.Now().Unix(),
		"exp":        expiry.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign service token: %w", err)
	}

	return &oauth2.Token{AccessToken: signed, TokenType: "Bearer", Expiry: expiry}, nil
}
