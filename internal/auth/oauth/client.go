// Package oauth talks to the external OAuth2 provider: it builds the
// authorize URL and exchanges authorization codes for access tokens.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

// ErrExchangeFailed wraps every failure of the code-for-token exchange:
// transport errors, timeouts and non-2xx provider answers alike.
var ErrExchangeFailed = errors.New("oauth code exchange failed")

const DefaultExchangeTimeout = 5 * time.Second

var defaultScopes = []string{"openid", "profile", "email"}

// Config describes the provider registration.
type Config struct {
	AuthorizeURL   string
	AccessTokenURL string
	ClientID       string
	ClientSecret   string
	RedirectURL    string
	Scopes         []string
	Timeout        time.Duration
}

// Client is safe for concurrent use.
type Client struct {
	oauth2Config *oauth2.Config
	httpClient   *http.Client
	timeout      time.Duration
	tracer       trace.Tracer
}

func NewClient(cfg Config) *Client {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultExchangeTimeout
	}

	return &Client{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizeURL,
				TokenURL:  cfg.AccessTokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		tracer:     otel.Tracer("usergate/oauth"),
	}
}

// AuthCodeURL returns the provider URL the browser is sent to.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth2Config.AuthCodeURL(state)
}

// Exchange performs a single POST to the token endpoint. It never retries.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, span := c.tracer.Start(ctx, "oauth.exchange",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("oauth.token_url", c.oauth2Config.Endpoint.TokenURL)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth2Config.Exchange(ctx, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exchange failed")
		return nil, fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}
	if token.AccessToken == "" {
		span.SetStatus(codes.Error, "empty access token")
		return nil, fmt.Errorf("%w: empty access token", ErrExchangeFailed)
	}
	return token, nil
}
