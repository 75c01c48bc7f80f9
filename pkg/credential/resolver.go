package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/99designs/keyring"

	"github.com/dmitrymomot/mailkit/pkg/secrets"
)

// Reference prefixes understood by Resolve.
const (
	PrefixEnv       = "env:"
	PrefixKeyring   = "keyring:"
	PrefixEncrypted = "enc:"
	PrefixPlain     = "plain:"
)

// Resolver turns credential references from transport options into the
// secret values used to authenticate.
type Resolver struct {
	lookupEnv func(string) (string, bool)
	key       []byte

	mu      sync.Mutex
	ring    keyring.Keyring
	ringCfg *keyring.Config
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithKeyring sets an opened keyring.
func WithKeyring(ring keyring.Keyring) Option {
	return func(r *Resolver) {
		r.ring = ring
	}
}

// WithKeyringConfig opens the keyring lazily on the first keyring: reference.
func WithKeyringConfig(cfg keyring.Config) Option {
	return func(r *Resolver) {
		r.ringCfg = &cfg
	}
}

// WithEncryptionKey sets the master key for enc: references.
func WithEncryptionKey(key []byte) Option {
	return func(r *Resolver) {
		r.key = key
	}
}

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.lookupEnv = fn
		}
	}
}

// NewResolver creates a resolver. Without options it understands env:,
// plain: and literal values.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsReference reports whether value uses one of the reference prefixes.
func IsReference(value string) bool {
	for _, p := range []string{PrefixEnv, PrefixKeyring, PrefixEncrypted, PrefixPlain} {
		if strings.HasPrefix(value, p) {
			return true
		}
	}
	return false
}

// Resolve returns the secret behind value. The account scopes enc:
// references to the mailbox they were encrypted for. Values without a
// known prefix are returned as is.
func (r *Resolver) Resolve(ctx context.Context, value, account string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch {
	case strings.HasPrefix(value, PrefixEnv):
		name := strings.TrimPrefix(value, PrefixEnv)
		v, ok := r.lookupEnv(name)
		if !ok {
			return "", fmt.Errorf("%w: environment variable %s", ErrNotFound, name)
		}
		return v, nil

	case strings.HasPrefix(value, PrefixKeyring):
		return r.fromKeyring(strings.TrimPrefix(value, PrefixKeyring))

	case strings.HasPrefix(value, PrefixEncrypted):
		if len(r.key) == 0 {
			return "", ErrNoEncryptionKey
		}
		plain, err := secrets.DecryptString(r.key, account, strings.TrimPrefix(value, PrefixEncrypted))
		if err != nil {
			return "", errors.Join(ErrDecryptFailed, err)
		}
		return plain, nil

	case strings.HasPrefix(value, PrefixPlain):
		return strings.TrimPrefix(value, PrefixPlain), nil
	}

	return value, nil
}

// Encrypt produces an enc: reference for secret, bound to account.
func (r *Resolver) Encrypt(secret, account string) (string, error) {
	if len(r.key) == 0 {
		return "", ErrNoEncryptionKey
	}
	ct, err := secrets.EncryptString(r.key, account, secret)
	if err != nil {
		return "", err
	}
	return PrefixEncrypted + ct, nil
}

func (r *Resolver) fromKeyring(key string) (string, error) {
	ring, err := r.keyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("%w: keyring item %s", ErrNotFound, key)
		}
		return "", errors.Join(ErrKeyringUnavailable, err)
	}
	return string(item.Data), nil
}

func (r *Resolver) keyring() (keyring.Keyring, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ring != nil {
		return r.ring, nil
	}
	if r.ringCfg == nil {
		return nil, ErrKeyringUnavailable
	}

	ring, err := keyring.Open(*r.ringCfg)
	if err != nil {
		return nil, errors.Join(ErrKeyringUnavailable, err)
	}
	r.ring = ring
	return ring, nil
}
