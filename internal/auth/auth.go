// Package auth holds the credentials used to open the channel.
//
// The access token is produced by an upstream login step and treated as opaque
// bearer material. It travels to the channel endpoint as a query parameter.
package auth

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenParam is the query parameter carrying the access token.
const TokenParam = "token"

var (
	ErrMissingToken    = errors.New("access token is required")
	ErrMissingUsername = errors.New("username is required")
)

// Credentials identify the local user to the channel endpoint.
type Credentials struct {
	Token    string // Access token from the login endpoint
	Username string // Local username, announced via init_connection
}

// Validate checks that both fields are set.
func (c Credentials) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.Username == "" {
		return ErrMissingUsername
	}
	return nil
}

// ChannelURL returns base with the token added as a query credential.
// Existing query parameters are preserved.
func (c Credentials) ChannelURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse channel url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("channel url scheme must be ws or wss, got %q", u.Scheme)
	}

	q := u.Query()
	q.Set(TokenParam, c.Token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ExpiresAt reads the exp claim if the token is a JWT.
// The signature is NOT verified; this is only used to warn about stale tokens.
// Returns ok=false for opaque tokens or tokens without exp.
func (c Credentials) ExpiresAt() (exp time.Time, ok bool) {
	token, _, err := jwt.NewParser().ParseUnverified(c.Token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}

	date, err := token.Claims.GetExpirationTime()
	if err != nil || date == nil {
		return time.Time{}, false
	}

	return date.Time, true
}

// Expired reports whether the token carries an exp claim that is before now.
func (c Credentials) Expired(now time.Time) bool {
	exp, ok := c.ExpiresAt()
	return ok && now.After(exp)
}

// Redacted returns a log-safe form of the token.
func (c Credentials) Redacted() string {
	if len(c.Token) <= 8 {
		return "****"
	}
	return c.Token[:4] + "****" + c.Token[len(c.Token)-4:]
}
