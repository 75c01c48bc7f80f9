package mailauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/emersion/go-sasl"
	"golang.org/x/oauth2"
)

// Mechanism names a SASL mechanism.
type Mechanism string

const (
	MechanismPlain       Mechanism = "plain"
	MechanismLogin       Mechanism = "login"
	MechanismOAuthBearer Mechanism = "oauthbearer"
	MechanismNone        Mechanism = "none"
)

// Mechanisms lists the accepted mechanism names.
var Mechanisms = []string{
	string(MechanismPlain),
	string(MechanismLogin),
	string(MechanismOAuthBearer),
	string(MechanismNone),
}

// ParseMechanism normalizes s. An empty string selects plain.
func ParseMechanism(s string) (Mechanism, error) {
	m := Mechanism(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case "":
		return MechanismPlain, nil
	case MechanismPlain, MechanismLogin, MechanismOAuthBearer, MechanismNone:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMechanism, s)
}

// OAuth2Config describes a refresh-token flow for OAUTHBEARER.
type OAuth2Config struct {
	ClientID     string   `option:"client_id"`
	ClientSecret string   `option:"client_secret"`
	TokenURL     string   `option:"token_url"`
	RefreshToken string   `option:"refresh_token"`
	Scopes       []string `option:"scopes"`
}

// IsZero reports whether no refresh flow is configured.
func (c *OAuth2Config) IsZero() bool {
	return c == nil || c.RefreshToken == ""
}

// Credentials are the inputs for building a SASL client.
type Credentials struct {
	Mechanism Mechanism
	Username  string
	// Password is the password, or the access token for oauthbearer.
	Password string
	OAuth2   *OAuth2Config
	Host     string
	Port     int
}

// NewClient returns the SASL client for c. It returns nil, nil for
// MechanismNone. For oauthbearer a configured refresh flow takes precedence
// over an access token given as Password.
func NewClient(ctx context.Context, c Credentials) (sasl.Client, error) {
	mech, err := ParseMechanism(string(c.Mechanism))
	if err != nil {
		return nil, err
	}

	switch mech {
	case MechanismNone:
		return nil, nil
	case MechanismPlain:
		if c.Username == "" || c.Password == "" {
			return nil, ErrMissingCredentials
		}
		return sasl.NewPlainClient("", c.Username, c.Password), nil
	case MechanismLogin:
		if c.Username == "" || c.Password == "" {
			return nil, ErrMissingCredentials
		}
		return sasl.NewLoginClient(c.Username, c.Password), nil
	}

	token := c.Password
	if !c.OAuth2.IsZero() {
		token, err = Token(ctx, c.OAuth2)
		if err != nil {
			return nil, err
		}
	}
	if token == "" {
		return nil, ErrMissingToken
	}

	return sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
		Username: c.Username,
		Token:    token,
		Host:     c.Host,
		Port:     c.Port,
	}), nil
}

// Token exchanges the refresh token for an access token.
func Token(ctx context.Context, cfg *OAuth2Config) (string, error) {
	if cfg.IsZero() {
		return "", ErrMissingToken
	}

	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		Scopes:       cfg.Scopes,
	}

	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}).Token()
	if err != nil {
		return "", errors.Join(ErrTokenRefreshFailed, err)
	}
	if tok.AccessToken == "" {
		return "", ErrMissingToken
	}
	return tok.AccessToken, nil
}
