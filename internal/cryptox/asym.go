package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"fmt"
)

// AsymmetricKeyBits is the RSA modulus size for correspondence-init keypairs.
const AsymmetricKeyBits = 4096

// GenerateAsymmetricKeyPair generates an RSA keypair for RSA-OAEP/SHA-512.
func GenerateAsymmetricKeyPair() (*rsa.PublicKey, *rsa.PrivateKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, AsymmetricKeyBits)
	if err != nil {
		return nil, nil, err
	}
	return &priv.PublicKey, priv, nil
}

// EncryptAsym encrypts data for pub using RSA-OAEP with SHA-512. The
// plaintext must fit within k − 2·hLen − 2 bytes (382 for a 4096-bit key).
func EncryptAsym(data []byte, pub *rsa.PublicKey) ([]byte, error) {
	ciphertext, err := rsa.EncryptOAEP(sha512.New(), rand.Reader, pub, data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	return ciphertext, nil
}

// DecryptAsym decrypts RSA-OAEP/SHA-512 ciphertext with priv. Fails closed
// with ErrDecryptionFailed on any mismatch.
func DecryptAsym(ciphertext []byte, priv *rsa.PrivateKey) ([]byte, error) {
	plaintext, err := rsa.DecryptOAEP(sha512.New(), rand.Reader, priv, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
