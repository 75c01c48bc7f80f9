// Package mailauth builds SASL clients for SMTP and IMAP authentication.
//
// Supported mechanisms are plain, login, oauthbearer and none. For
// oauthbearer the access token is either given directly or obtained from an
// OAuth2 refresh-token flow through golang.org/x/oauth2.
//
//	client, err := mailauth.NewClient(ctx, mailauth.Credentials{
//	    Mechanism: mailauth.MechanismOAuthBearer,
//	    Username:  "user@gmail.com",
//	    OAuth2: &mailauth.OAuth2Config{
//	        ClientID:     id,
//	        ClientSecret: secret,
//	        TokenURL:     "https://oauth2.googleapis.com/token",
//	        RefreshToken: refresh,
//	    },
//	    Host: "smtp.gmail.com",
//	    Port: 465,
//	})
package mailauth
