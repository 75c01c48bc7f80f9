// Package secrets encrypts mailbox credentials at rest.
//
// A 32-byte master key and a scope (normally the account the credential
// belongs to, such as "user@example.com") are combined with HKDF-SHA-256
// into a per-scope key, which seals the data with AES-256-GCM. A ciphertext
// encrypted for one account cannot be decrypted under another.
//
// The nonce is prepended to the ciphertext so the output is self-contained.
//
// # Usage
//
//	key, _ := secrets.GenerateKey()
//	fmt.Println(secrets.EncodeKey(key)) // store as MAIL_SECRET_KEY
//
//	ct, err := secrets.EncryptString(key, "user@example.com", "app-password")
//	// credential reference: "enc:" + ct
//
//	plain, err := secrets.DecryptString(key, "user@example.com", ct)
//
// # Error Handling
//
// Errors wrap sentinels such as ErrInvalidKey, ErrInvalidCiphertext and
// ErrDecryptionFailed; match them with errors.Is.
package secrets
