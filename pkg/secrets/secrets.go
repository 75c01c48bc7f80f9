package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// EncryptString encrypts plaintext for scope and returns base64 ciphertext.
func EncryptString(key []byte, scope, plaintext string) (string, error) {
	ciphertext, err := Encrypt(key, scope, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptString reverses EncryptString.
func DecryptString(key []byte, scope, ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}

	plaintext, err := Decrypt(key, scope, raw)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// Encrypt seals data with a key derived from key and scope.
// Output format: nonce + encrypted data + tag.
func Encrypt(key []byte, scope string, data []byte) ([]byte, error) {
	aesGCM, err := newGCM(key, scope, ErrEncryptionFailed)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	return aesGCM.Seal(nonce, nonce, data, nil), nil
}

// Decrypt opens ciphertext produced by Encrypt with the same key and scope.
func Decrypt(key []byte, scope string, ciphertext []byte) ([]byte, error) {
	aesGCM, err := newGCM(key, scope, ErrDecryptionFailed)
	if err != nil {
		return nil, err
	}

	nonceSize := aesGCM.NonceSize()
	if len(ciphertext) < nonceSize+aesGCM.Overhead() {
		return nil, ErrInvalidCiphertext
	}

	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := aesGCM.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

func newGCM(key []byte, scope string, failure error) (cipher.AEAD, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	derived, err := deriveKey(key, scope)
	if err != nil {
		return nil, err
	}
	defer clearBytes(derived)

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, errors.Join(failure, err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(failure, err)
	}
	return aesGCM, nil
}
