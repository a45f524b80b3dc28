package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/spacesedan/sentiscope/internal/apperror"
)

const DefaultTokenTTL = 30 * time.Minute

// Token is a signed bearer token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenService issues and verifies HS256 bearer tokens for users known to
// the credential store. It keeps no state between calls.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	store  CredentialStore
	clock  clockwork.Clock
}

func NewTokenService(secret string, ttl time.Duration, store CredentialStore, clock clockwork.Clock) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, store: store, clock: clock}
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue checks the credentials and signs a token with subject = username.
func (s *TokenService) Issue(ctx context.Context, username, password string) (Token, error) {
	cred, ok, err := s.store.Find(ctx, username)
	if err != nil {
		return Token{}, apperror.Internal("credential lookup failed", err)
	}
	if !ok {
		return Token{}, apperror.InvalidCredentials()
	}

	match, err := VerifyPassword(password, cred.Password)
	if err != nil {
		return Token{}, apperror.Internal("stored credential is malformed", err)
	}
	if !match {
		return Token{}, apperror.InvalidCredentials()
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   cred.Username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, apperror.Internal("failed to sign token", err)
	}

	return Token{Value: signed, ExpiresAt: expiresAt}, nil
}

// Verify returns the token subject. Bad signatures, other algorithms,
// expired tokens and unknown subjects are all Unauthorized.
func (s *TokenService) Verify(ctx context.Context, tokenStr string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenStr, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return "", apperror.Unauthorized(err)
	}

	if claims.Subject == "" {
		return "", apperror.Unauthorized(errors.New("token has no subject"))
	}

	_, ok, err := s.store.Find(ctx, claims.Subject)
	if err != nil {
		return "", apperror.Internal("credential lookup failed", err)
	}
	if !ok {
		return "", apperror.Unauthorized(fmt.Errorf("unknown subject %q", claims.Subject))
	}

	return claims.Subject, nil
}
