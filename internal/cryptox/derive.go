package cryptox

import (
	"crypto/sha512"

	"golang.org/x/crypto/pbkdf2"

	"github.com/plume-im/plume/internal/common"
)

// Key-derivation and size parameters. The iteration count is a security
// parameter, not a performance knob; lowering it weakens every stored
// password proof at once.
const (
	KeyDerivationIterations = 310_000
	SymmetricKeyLength      = 32
	SaltLength              = 16
	IVLength                = 16
)

// DeriveKey derives a 256-bit symmetric key from a password and salt using
// PBKDF2 with SHA-512. Deterministic for a given (password, salt) pair, and
// deliberately slow.
func DeriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, KeyDerivationIterations, SymmetricKeyLength, sha512.New)
}

// Hash returns the SHA-512 digest of data in the framed textual encoding.
func Hash(data []byte) string {
	digest := sha512.Sum512(data)
	return SerializeBuffer(digest[:])
}

// GenerateRandomBuffer returns n cryptographically random bytes.
// Panics if the system randomness source fails.
func GenerateRandomBuffer(n int) []byte {
	return common.GenerateRandByteArray(n)
}

// GenerateSalt returns a fresh random salt.
func GenerateSalt() []byte {
	return GenerateRandomBuffer(SaltLength)
}

// GenerateIV returns a fresh random initialization vector.
func GenerateIV() []byte {
	return GenerateRandomBuffer(IVLength)
}

// GenerateSymmetricKey returns a fresh random AES-256 key.
func GenerateSymmetricKey() []byte {
	return GenerateRandomBuffer(SymmetricKeyLength)
}
