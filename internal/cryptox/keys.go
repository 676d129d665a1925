package cryptox

import (
	"crypto/rsa"
	"crypto/x509"
	"fmt"
)

// KeyKind selects the interpretation of serialized key material.
type KeyKind int

const (
	KindSymmetric KeyKind = iota
	KindAsymmetricPublic
	KindAsymmetricPrivate
)

func (k KeyKind) String() string {
	switch k {
	case KindSymmetric:
		return "symmetric"
	case KindAsymmetricPublic:
		return "asymmetric-public"
	case KindAsymmetricPrivate:
		return "asymmetric-private"
	default:
		return "unknown"
	}
}

// ExportSymmetricKey serializes a raw symmetric key into the framed form.
func ExportSymmetricKey(key []byte) (string, error) {
	if len(key) != SymmetricKeyLength {
		return "", fmt.Errorf("%w: expected %d-byte symmetric key, got %d", ErrInvalidKey, SymmetricKeyLength, len(key))
	}
	return SerializeBuffer(key), nil
}

// ExportPublicKey serializes an RSA public key as framed PKIX DER.
func ExportPublicKey(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return SerializeBuffer(der), nil
}

// ExportPrivateKey serializes an RSA private key as framed PKCS#8 DER.
func ExportPrivateKey(priv *rsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return SerializeBuffer(der), nil
}

// ImportKey parses serialized key material according to kind. The result is
// []byte for KindSymmetric, *rsa.PublicKey for KindAsymmetricPublic and
// *rsa.PrivateKey for KindAsymmetricPrivate. Malformed input, material that
// does not match the kind, or an unknown kind all yield ErrImportFailed.
func ImportKey(serialized string, kind KeyKind) (any, error) {
	switch kind {
	case KindSymmetric:
		return ImportSymmetricKey(serialized)
	case KindAsymmetricPublic:
		return ImportPublicKey(serialized)
	case KindAsymmetricPrivate:
		return ImportPrivateKey(serialized)
	default:
		return nil, fmt.Errorf("%w: unknown key kind %d", ErrImportFailed, int(kind))
	}
}

// ImportSymmetricKey parses framed symmetric key material.
func ImportSymmetricKey(serialized string) ([]byte, error) {
	raw, err := DeserializeBuffer(serialized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	if len(raw) != SymmetricKeyLength {
		return nil, fmt.Errorf("%w: expected %d-byte symmetric key, got %d", ErrImportFailed, SymmetricKeyLength, len(raw))
	}
	return raw, nil
}

// ImportPublicKey parses framed PKIX DER into an RSA public key.
func ImportPublicKey(serialized string) (*rsa.PublicKey, error) {
	raw, err := DeserializeBuffer(serialized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	parsed, err := x509.ParsePKIXPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", ErrImportFailed)
	}
	return pub, nil
}

// ImportPrivateKey parses framed PKCS#8 DER into an RSA private key.
func ImportPrivateKey(serialized string) (*rsa.PrivateKey, error) {
	raw, err := DeserializeBuffer(serialized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA private key", ErrImportFailed)
	}
	return priv, nil
}
