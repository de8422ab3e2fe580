// Package sessioncookie encodes browser sessions into the user_session
// cookie. The value is a compact HS256 JWT so tampering is detected on read.
// Signing gives integrity only: the claims, including the provider access
// token, are readable by anyone holding the cookie value.
package sessioncookie

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"usergate/internal/auth/models"
	authmw "usergate/pkg/platform/middleware/auth"

	"github.com/golang-jwt/jwt/v5"
)

// Name is the canonical session cookie name.
const Name = "user_session"

const DefaultTTL = 12 * time.Hour

var (
	ErrMissing = errors.New("session cookie missing")
	ErrInvalid = errors.New("session cookie invalid")
)

type sessionClaims struct {
	State string `json:"state"`
	Token string `json:"token"`
	jwt.RegisteredClaims
}

// Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	secure bool
	parser *jwt.Parser
	now    func() time.Time
}

type Option func(*Codec)

// WithSecure marks written cookies Secure.
func WithSecure(secure bool) Option {
	return func(c *Codec) { c.secure = secure }
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

func New(secret string, opts ...Option) *Codec {
	c := &Codec{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	return c
}

// Encode serializes a session. IssuedAt defaults to now.
func (c *Codec) Encode(session models.Session) (string, error) {
	if !session.Valid() {
		return "", ErrInvalid
	}
	issuedAt := session.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = c.now()
	}
	claims := sessionClaims{
		State: session.State,
		Token: session.Token,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.ttl)),
		},
	}
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return value, nil
}

func (c *Codec) Decode(value string) (models.Session, error) {
	parsed, err := c.parser.ParseWithClaims(value, &sessionClaims{}, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return models.Session{}, ErrInvalid
	}

	session := models.Session{State: claims.State, Token: claims.Token}
	if !session.Valid() {
		return models.Session{}, ErrInvalid
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	return session, nil
}

// Write encodes the session and sets it on the response.
func (c *Codec) Write(w http.ResponseWriter, session models.Session) error {
	value, err := c.Encode(session)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.ttl / time.Second),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read decodes the session carried by the request.
func (c *Codec) Read(r *http.Request) (models.Session, error) {
	cookie, err := r.Cookie(Name)
	if err != nil {
		return models.Session{}, ErrMissing
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return models.Session{}, ErrMissing
	}
	return c.Decode(value)
}

// Clear expires the session cookie.
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadSession satisfies the session guard's reader contract.
func (c *Codec) ReadSession(r *http.Request) (*authmw.SessionClaims, error) {
	session, err := c.Read(r)
	if err != nil {
		return nil, err
	}
	return &authmw.SessionClaims{State: session.State}, nil
}
