package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/spacesedan/sentiscope/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*TokenService, *clockwork.FakeClock) {
	t.Helper()
	store, err := NewStaticStore(Credential{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(epoch)
	return NewTokenService(testSecret, 30*time.Minute, store, clock), clock
}

func TestIssueThenVerify(t *testing.T) {
	svc, _ := newTestService(t)

	token, err := svc.Issue(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, epoch.Add(30*time.Minute), token.ExpiresAt)

	username, err := svc.Verify(context.Background(), token.Value)
	require.NoError(t, err)
	assert.Equal(t, "admin", username)
}

func TestIssue_InvalidCredentials(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "root", "admin123"},
		{"wrong password", "admin", "admin"},
		{"empty password", "admin", ""},
		{"empty username", "", ""},
		{"case differs", "Admin", "admin123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Issue(context.Background(), tt.username, tt.password)
			require.Error(t, err)
			assert.True(t, apperror.IsKind(err, apperror.KindInvalidCredentials))
		})
	}
}

func TestIssue_ArgonHashedCredential(t *testing.T) {
	hash, err := HashPassword(ArgonParams{Memory: 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}, "s3cret")
	require.NoError(t, err)
	store, err := NewStaticStore(Credential{Username: "ops", Password: hash})
	require.NoError(t, err)
	svc := NewTokenService(testSecret, time.Minute, store, clockwork.NewFakeClockAt(epoch))

	_, err = svc.Issue(context.Background(), "ops", "s3cret")
	require.NoError(t, err)

	_, err = svc.Issue(context.Background(), "ops", hash)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidCredentials))
}

func TestVerify_Expiry(t *testing.T) {
	svc, clock := newTestService(t)
	token, err := svc.Issue(context.Background(), "admin", "admin123")
	require.NoError(t, err)

	clock.Advance(29 * time.Minute)
	_, err = svc.Verify(context.Background(), token.Value)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = svc.Verify(context.Background(), token.Value)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerify_TamperedPayload(t *testing.T) {
	svc, _ := newTestService(t)
	token, err := svc.Issue(context.Background(), "admin", "admin123")
	require.NoError(t, err)

	parts := strings.Split(token.Value, ".")
	require.Len(t, parts, 3)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"admin","exp":4102444800}`))

	_, err = svc.Verify(context.Background(), strings.Join(parts, "."))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
}

func TestVerify_WrongSecret(t *testing.T) {
	svc, _ := newTestService(t)
	store, err := NewStaticStore(Credential{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	other := NewTokenService("another-secret", time.Hour, store, clockwork.NewFakeClockAt(epoch))

	token, err := other.Issue(context.Background(), "admin", "admin123")
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token.Value)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	svc, _ := newTestService(t)
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(epoch.Add(time.Hour)),
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), unsigned)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), hs512)
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
}

func TestVerify_ClaimProblems(t *testing.T) {
	svc, _ := newTestService(t)
	sign := func(claims jwt.RegisteredClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		return s
	}
	exp := jwt.NewNumericDate(epoch.Add(time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{"missing subject", sign(jwt.RegisteredClaims{ExpiresAt: exp})},
		{"unknown subject", sign(jwt.RegisteredClaims{Subject: "ghost", ExpiresAt: exp})},
		{"missing expiry", sign(jwt.RegisteredClaims{Subject: "admin"})},
		{"garbage", "not.a.token"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(context.Background(), tt.token)
			require.Error(t, err)
			assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
		})
	}
}

type failingStore struct{}

func (failingStore) Find(context.Context, string) (Credential, bool, error) {
	return Credential{}, false, errors.New("store offline")
}

func TestIssue_StoreFailureIsInternal(t *testing.T) {
	svc := NewTokenService(testSecret, time.Minute, failingStore{}, clockwork.NewFakeClockAt(epoch))

	_, err := svc.Issue(context.Background(), "admin", "admin123")
	assert.True(t, apperror.IsKind(err, apperror.KindInternal))
}

func TestNewTokenService_DefaultTTL(t *testing.T) {
	svc := NewTokenService(testSecret, 0, failingStore{}, nil)
	assert.Equal(t, DefaultTokenTTL, svc.TTL())
}
