package cryptox

import "errors"

var (
	// ErrDecryptionFailed is returned when authenticated decryption fails,
	// including GCM tag mismatches and OAEP errors.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrEncryptionFailed is returned when encryption cannot be performed,
	// e.g. an asymmetric plaintext exceeding the OAEP size limit.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrImportFailed is returned when serialized key material cannot be
	// parsed as a key of the requested kind.
	ErrImportFailed = errors.New("key import failed")

	// ErrDeserializationFailed is returned when a framed buffer string is
	// malformed: missing markers, bad length, characters outside the
	// alphabet, or non-canonical padding.
	ErrDeserializationFailed = errors.New("buffer deserialization failed")

	// ErrInvalidKey is returned when a raw key has the wrong size or type
	// for the requested operation.
	ErrInvalidKey = errors.New("invalid key")
)
