package mailauth

import "errors"

var (
	ErrUnsupportedMechanism = errors.New("unsupported authentication mechanism")
	ErrMissingToken         = errors.New("missing oauth2 access token")
	ErrMissingCredentials   = errors.New("missing username or password")
	ErrTokenRefreshFailed   = errors.New("failed to refresh oauth2 token")
)
