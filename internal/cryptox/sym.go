package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != SymmetricKeyLength {
		return nil, fmt.Errorf("%w: expected %d-byte symmetric key, got %d", ErrInvalidKey, SymmetricKeyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	// 16-byte nonces to stay wire-compatible with WebCrypto AES-GCM peers.
	aead, err := cipher.NewGCMWithNonceSize(block, IVLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return aead, nil
}

// EncryptSym encrypts data with AES-256-GCM under key and iv. The iv must be
// IVLength bytes and must never be reused with the same key.
func EncryptSym(data, key, iv []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != IVLength {
		return nil, fmt.Errorf("%w: expected %d-byte IV, got %d", ErrInvalidKey, IVLength, len(iv))
	}
	return aead.Seal(nil, iv, data, nil), nil
}

// DecryptSym decrypts AES-256-GCM ciphertext. It fails closed with
// ErrDecryptionFailed on any tag mismatch and never returns partial
// plaintext.
func DecryptSym(ciphertext, key, iv []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != IVLength {
		return nil, fmt.Errorf("%w: expected %d-byte IV, got %d", ErrInvalidKey, IVLength, len(iv))
	}
	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
