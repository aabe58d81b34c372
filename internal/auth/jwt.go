package auth

// SESSION TOKENS:
// Login can hand out an HS256 JWT so clients have a verified alternative
// to the caller-supplied X-User-Id header. The token is stateless; nothing
// about it is stored on the server.
//
//	HEADER.PAYLOAD.SIGNATURE
//	payload → {"sub":"42","role":"user","jti":"cq3r...","iss":"qaforum","exp":...}
//
// "sub" carries the numeric users.user_id as a decimal string, which is
// what RFC 7519 requires of the subject claim.

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	issuer = "qaforum"

	// DefaultTokenTTL is how long a login token stays valid.
	DefaultTokenTTL = 24 * time.Hour

	minSecretLen = 16
)

// ErrTokenExpired is returned by Validate for a well-formed token whose
// exp claim has passed.
var ErrTokenExpired = errors.New("auth: token expired")

// Identity is what a valid token asserts about its bearer.
type Identity struct {
	UserID  int64
	Role    string
	TokenID string
}

// TokenService signs and verifies session tokens with one HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a TokenService. The secret must be at least 16
// characters; generate one with `openssl rand -hex 32`.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLen)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a token for the given user. Every token gets a fresh xid as
// its jti so two logins in the same second still differ.
func (s *TokenService) Issue(userID int64, role string) (string, error) {
	now := s.now()

	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm, issuer and expiry, then decodes
// the identity. Passing jwt.WithValidMethods blocks "alg":"none" tokens.
func (s *TokenService) Validate(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, errors.New("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, fmt.Errorf("auth: token subject %q is not a user id", c.Subject)
	}

	return Identity{UserID: userID, Role: c.Role, TokenID: c.ID}, nil
}
