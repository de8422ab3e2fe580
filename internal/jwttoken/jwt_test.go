package jwttoken

import (
	"testing"
	"time"

	dErrors "usergate/pkg/domain-errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test-signing-key-that-is-long-enough"
	testIssuer   = "test-issuer"
	testAudience = "test-audience"
)

var jwtService = NewJWTService(testSecret, testIssuer, testAudience)

var (
	errInvalid = dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	errExpired = dErrors.New(dErrors.CodeUnauthorized, "token has expired")
)

func signClaims(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func Test_GenerateAccessToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken("user-123", time.Hour, WithEmail("john@example.com"), WithName("John Doe"))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "john@example.com", claims.Email)
	assert.Equal(t, "John Doe", claims.Name)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.Contains(t, []string(claims.Audience), testAudience)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := jwtService.ValidateToken("invalid-token-string")
	require.ErrorIs(t, err, errInvalid)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	token, err := jwtService.GenerateAccessToken("user-123", -time.Hour)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token)
	require.ErrorIs(t, err, errExpired)
}

func Test_ValidateToken_Rejections(t *testing.T) {
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
					Issuer: "someone-else", Audience: jwt.ClaimStrings{testAudience}, ExpiresAt: future,
				})
			},
		},
		{
			name: "wrong audience",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
					Issuer: testIssuer, Audience: jwt.ClaimStrings{"other-api"}, ExpiresAt: future,
				})
			},
		},
		{
			name: "missing audience",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
					Issuer: testIssuer, ExpiresAt: future,
				})
			},
		},
		{
			name: "bad signature",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS256, []byte("another-secret-of-sufficient-size"), jwt.RegisteredClaims{
					Issuer: testIssuer, Audience: jwt.ClaimStrings{testAudience}, ExpiresAt: future,
				})
			},
		},
		{
			name: "algorithm other than HS256",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS512, []byte(testSecret), jwt.RegisteredClaims{
					Issuer: testIssuer, Audience: jwt.ClaimStrings{testAudience}, ExpiresAt: future,
				})
			},
		},
		{
			name: "not yet valid",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
					Issuer: testIssuer, Audience: jwt.ClaimStrings{testAudience}, NotBefore: future,
				})
			},
		},
		{
			name:  "empty string",
			token: func(*testing.T) string { return "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jwtService.ValidateToken(tt.token(t))
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		})
	}
}

func Test_ValidateToken_AudienceContains(t *testing.T) {
	token := signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
		Subject:   "svc",
		Issuer:    testIssuer,
		Audience:  jwt.ClaimStrings{"other-api", testAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "svc", claims.Subject)
}

func Test_ValidateToken_WithoutExpiry(t *testing.T) {
	token := signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
		Subject:  "svc",
		Issuer:   testIssuer,
		Audience: jwt.ClaimStrings{testAudience},
	})

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func Test_JWTServiceAdapter(t *testing.T) {
	token, err := jwtService.GenerateAccessToken("user-9", time.Minute, WithEmail("jane@example.com"))
	require.NoError(t, err)

	adapter := NewJWTServiceAdapter(jwtService)
	claims, err := adapter.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-9", claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.NotEmpty(t, claims.JTI)

	_, err = adapter.ValidateToken("garbage")
	require.ErrorIs(t, err, errInvalid)
}
