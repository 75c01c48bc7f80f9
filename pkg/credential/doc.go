// Package credential resolves secret references found in transport options.
//
// A password or token in mail options may be written literally or as a
// reference:
//
//	env:MAIL_PASSWORD          environment variable
//	keyring:mail/user@x.com    item in the OS keyring (99designs/keyring)
//	enc:BASE64                 AES-GCM ciphertext from pkg/secrets, bound to the account
//	plain:env:not-a-reference  literal value, prefix stripped
//
// Values without a prefix are returned unchanged.
//
// # Usage
//
//	r := credential.NewResolver(
//	    credential.WithEncryptionKey(key),
//	    credential.WithKeyringConfig(keyring.Config{ServiceName: "mailkit"}),
//	)
//	password, err := r.Resolve(ctx, opts.String("transport.password"), username)
//
// # Error Handling
//
// Missing variables and keyring items return ErrNotFound. ErrKeyringUnavailable
// and ErrNoEncryptionKey report missing configuration; ErrDecryptFailed is
// joined with the pkg/secrets cause.
package credential
