// Package identity resolves the participant key of an HTTP caller.
//
// The core treats participant keys as opaque strings. With a signing key the
// key is the subject of an HS256 bearer token; without one it is read from the
// X-Participant-ID header, which is only suitable for development.
package identity

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "covault/pkg/domain"
	dErrors "covault/pkg/domain-errors"
)

// HeaderParticipantID carries the participant key in header mode.
const HeaderParticipantID = "X-Participant-ID"

// Resolver extracts the caller's participant key from a request.
type Resolver interface {
	Resolve(r *http.Request) (id.ParticipantID, error)
}

// Claims are the bearer token claims. The participant key is the subject.
type Claims struct {
	Nickname string `json:"nickname,omitempty"`
	jwt.RegisteredClaims
}

// JWTService issues and validates participant tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
}

func NewJWTService(signingKey, issuer string) *JWTService {
	return &JWTService{signingKey: []byte(signingKey), issuer: issuer}
}

// IssueToken signs a token for p. Used by tooling and tests; the service
// itself never issues tokens.
func (s *JWTService) IssueToken(p id.ParticipantID, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Resolve reads an "Authorization: Bearer" token.
func (s *JWTService) Resolve(r *http.Request) (id.ParticipantID, error) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header")
	}
	claims, err := s.ValidateToken(token)
	if err != nil {
		return "", err
	}
	return id.ParseParticipantID(claims.Subject)
}

// HeaderResolver trusts the X-Participant-ID header.
type HeaderResolver struct{}

func (HeaderResolver) Resolve(r *http.Request) (id.ParticipantID, error) {
	return id.ParseParticipantID(r.Header.Get(HeaderParticipantID))
}

// NewResolver picks bearer tokens when a signing key is configured and the
// header otherwise.
func NewResolver(signingKey, issuer string) Resolver {
	if signingKey == "" {
		return HeaderResolver{}
	}
	return NewJWTService(signingKey, issuer)
}
