package sessioncookie

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"usergate/internal/auth/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "session-secret-that-is-long-enough!"

func TestCodec_RoundTrip(t *testing.T) {
	issued := time.Now().Truncate(time.Second)
	codec := New(testSecret)

	value, err := codec.Encode(models.Session{State: "st-1", Token: "at-1", IssuedAt: issued})
	require.NoError(t, err)

	session, err := codec.Decode(value)
	require.NoError(t, err)
	assert.Equal(t, "st-1", session.State)
	assert.Equal(t, "at-1", session.Token)
	assert.True(t, issued.Equal(session.IssuedAt))
}

func TestCodec_EncodeRequiresToken(t *testing.T) {
	_, err := New(testSecret).Encode(models.Session{State: "st"})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestCodec_DecodeRejects(t *testing.T) {
	codec := New(testSecret)
	good, err := codec.Encode(models.Session{State: "st", Token: "at"})
	require.NoError(t, err)

	expired, err := New(testSecret, WithTTL(time.Minute)).Encode(models.Session{
		State: "st", Token: "at", IssuedAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	otherKey, err := New("a-completely-different-session-key").Encode(models.Session{State: "st", Token: "at"})
	require.NoError(t, err)

	noToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"state": "st",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	tests := []struct {
		name  string
		value string
	}{
		{"garbage", "not-a-session"},
		{"tampered payload", tampered},
		{"signed with another key", otherKey},
		{"expired", expired},
		{"no access token", noToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.value)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestCodec_WriteRead(t *testing.T) {
	codec := New(testSecret, WithSecure(true), WithTTL(2*time.Hour))

	rr := httptest.NewRecorder()
	require.NoError(t, codec.Write(rr, models.Session{State: "st-9", Token: "at-9"}))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, Name, c.Name)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 7200, c.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.AddCookie(c)

	session, err := codec.Read(req)
	require.NoError(t, err)
	assert.Equal(t, "st-9", session.State)
	assert.Equal(t, "at-9", session.Token)

	claims, err := codec.ReadSession(req)
	require.NoError(t, err)
	assert.Equal(t, "st-9", claims.State)
}

func TestCodec_ReadMissing(t *testing.T) {
	codec := New(testSecret)

	_, err := codec.Read(httptest.NewRequest(http.MethodGet, "/", nil))
	require.ErrorIs(t, err, ErrMissing)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: Name, Value: "  "})
	_, err = codec.ReadSession(req)
	require.ErrorIs(t, err, ErrMissing)
}

func TestCodec_Clear(t *testing.T) {
	rr := httptest.NewRecorder()
	New(testSecret).Clear(rr)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, Name, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
