package mailauth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/mailauth"
)

func TestParseMechanism(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want mailauth.Mechanism
	}{
		{"", mailauth.MechanismPlain},
		{"PLAIN", mailauth.MechanismPlain},
		{" login ", mailauth.MechanismLogin},
		{"OAuthBearer", mailauth.MechanismOAuthBearer},
		{"none", mailauth.MechanismNone},
	}
	for _, tt := range tests {
		got, err := mailauth.ParseMechanism(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := mailauth.ParseMechanism("cram-md5")
	assert.ErrorIs(t, err, mailauth.ErrUnsupportedMechanism)
}

func TestNewClient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("plain", func(t *testing.T) {
		t.Parallel()
		c, err := mailauth.NewClient(ctx, mailauth.Credentials{Username: "u", Password: "p"})
		require.NoError(t, err)
		mech, ir, err := c.Start()
		require.NoError(t, err)
		assert.Equal(t, "PLAIN", mech)
		assert.Equal(t, []byte("\x00u\x00p"), ir)
	})

	t.Run("login", func(t *testing.T) {
		t.Parallel()
		c, err := mailauth.NewClient(ctx, mailauth.Credentials{Mechanism: "login", Username: "u", Password: "p"})
		require.NoError(t, err)
		mech, _, err := c.Start()
		require.NoError(t, err)
		assert.Equal(t, "LOGIN", mech)
	})

	t.Run("none", func(t *testing.T) {
		t.Parallel()
		c, err := mailauth.NewClient(ctx, mailauth.Credentials{Mechanism: "none"})
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("oauthbearer with token", func(t *testing.T) {
		t.Parallel()
		c, err := mailauth.NewClient(ctx, mailauth.Credentials{
			Mechanism: mailauth.MechanismOAuthBearer,
			Username:  "user@gmail.com",
			Password:  "access-token",
			Host:      "smtp.gmail.com",
			Port:      465,
		})
		require.NoError(t, err)
		mech, ir, err := c.Start()
		require.NoError(t, err)
		assert.Equal(t, "OAUTHBEARER", mech)
		assert.Contains(t, string(ir), "a=user@gmail.com")
		assert.Contains(t, string(ir), "auth=Bearer access-token")
	})

	t.Run("missing credentials", func(t *testing.T) {
		t.Parallel()
		_, err := mailauth.NewClient(ctx, mailauth.Credentials{Username: "u"})
		assert.ErrorIs(t, err, mailauth.ErrMissingCredentials)

		_, err = mailauth.NewClient(ctx, mailauth.Credentials{Mechanism: mailauth.MechanismOAuthBearer, Username: "u"})
		assert.ErrorIs(t, err, mailauth.ErrMissingToken)

		_, err = mailauth.NewClient(ctx, mailauth.Credentials{Mechanism: "digest"})
		assert.ErrorIs(t, err, mailauth.ErrUnsupportedMechanism)
	})
}

func tokenServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient_OAuth2Refresh(t *testing.T) {
	t.Parallel()

	srv := tokenServer(t, http.StatusOK, `{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`)

	c, err := mailauth.NewClient(context.Background(), mailauth.Credentials{
		Mechanism: mailauth.MechanismOAuthBearer,
		Username:  "user@example.com",
		Password:  "stale-token",
		OAuth2: &mailauth.OAuth2Config{
			ClientID:     "id",
			ClientSecret: "secret",
			TokenURL:     srv.URL,
			RefreshToken: "refresh-1",
		},
	})
	require.NoError(t, err)

	_, ir, err := c.Start()
	require.NoError(t, err)
	assert.Contains(t, string(ir), "auth=Bearer fresh-token")
}

func TestToken_Failure(t *testing.T) {
	t.Parallel()

	srv := tokenServer(t, http.StatusBadRequest, `{"error":"invalid_grant"}`)

	_, err := mailauth.Token(context.Background(), &mailauth.OAuth2Config{
		ClientID:     "id",
		TokenURL:     srv.URL,
		RefreshToken: "refresh-1",
	})
	assert.ErrorIs(t, err, mailauth.ErrTokenRefreshFailed)

	_, err = mailauth.Token(context.Background(), nil)
	assert.ErrorIs(t, err, mailauth.ErrMissingToken)
}
