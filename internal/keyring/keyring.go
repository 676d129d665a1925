// Package keyring implements the key-wrapping protocol helpers: sealing and
// opening {content, iv} envelopes for a named key strategy, plus an
// additive-only cache of imported keys keyed by their serialized material.
package keyring

import (
	"crypto/rsa"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/plume-im/plume/internal/common"
	"github.com/plume-im/plume/internal/cryptox"
)

// Keyring holds the security context of one client session: the master key
// (if logged in) and caches of imported keys. Safe for concurrent use; the
// caches only ever grow, mirroring the lifetime of a session.
type Keyring struct {
	mu        sync.RWMutex
	masterKey []byte

	symKeys  sync.Map // serialized material -> []byte
	pubKeys  sync.Map // serialized material -> *rsa.PublicKey
	privKeys sync.Map // serialized material -> *rsa.PrivateKey
}

func New() *Keyring {
	return &Keyring{}
}

// SetMasterKey installs the session master key, wiping any previous one.
// Passing nil clears it.
func (k *Keyring) SetMasterKey(key []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	common.WipeByteArray(k.masterKey)
	k.masterKey = key
}

// MasterKey returns the session master key or ErrNoMasterKey.
func (k *Keyring) MasterKey() ([]byte, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.masterKey == nil {
		return nil, ErrNoMasterKey
	}
	return k.masterKey, nil
}

// SymmetricKey imports serialized symmetric key material through the cache.
func (k *Keyring) SymmetricKey(serialized string) ([]byte, error) {
	if cached, ok := k.symKeys.Load(serialized); ok {
		return cached.([]byte), nil
	}
	key, err := cryptox.ImportSymmetricKey(serialized)
	if err != nil {
		return nil, err
	}
	k.symKeys.Store(serialized, key)
	return key, nil
}

// PublicKey imports serialized public key material through the cache.
func (k *Keyring) PublicKey(serialized string) (*rsa.PublicKey, error) {
	if cached, ok := k.pubKeys.Load(serialized); ok {
		return cached.(*rsa.PublicKey), nil
	}
	pub, err := cryptox.ImportPublicKey(serialized)
	if err != nil {
		return nil, err
	}
	k.pubKeys.Store(serialized, pub)
	return pub, nil
}

// PrivateKey imports serialized private key material through the cache.
func (k *Keyring) PrivateKey(serialized string) (*rsa.PrivateKey, error) {
	if cached, ok := k.privKeys.Load(serialized); ok {
		return cached.(*rsa.PrivateKey), nil
	}
	priv, err := cryptox.ImportPrivateKey(serialized)
	if err != nil {
		return nil, err
	}
	k.privKeys.Store(serialized, priv)
	return priv, nil
}

// Resolve maps a strategy to the concrete symmetric key it names.
func (k *Keyring) Resolve(s Strategy) ([]byte, error) {
	switch s := s.(type) {
	case Direct:
		return s.Key, nil
	case MasterKey:
		return k.MasterKey()
	case PlainKey:
		return k.SymmetricKey(s.Serialized)
	case WrappedByMasterKey:
		master, err := k.MasterKey()
		if err != nil {
			return nil, err
		}
		material, err := k.Open(s.Envelope, Direct{Key: master})
		if err != nil {
			return nil, fmt.Errorf("unwrap key envelope: %w", err)
		}
		return k.SymmetricKey(string(material))
	default:
		return nil, fmt.Errorf("unsupported key strategy %T", s)
	}
}

// Seal encrypts data under the resolved key with a fresh IV and returns the
// framed envelope.
func (k *Keyring) Seal(data []byte, s Strategy) (cryptox.Envelope, error) {
	key, err := k.Resolve(s)
	if err != nil {
		return cryptox.Envelope{}, err
	}
	iv := cryptox.GenerateIV()
	ciphertext, err := cryptox.EncryptSym(data, key, iv)
	if err != nil {
		return cryptox.Envelope{}, err
	}
	return cryptox.Envelope{
		Content: cryptox.SerializeBuffer(ciphertext),
		IV:      cryptox.SerializeBuffer(iv),
	}, nil
}

// SealText seals a UTF-8 string.
func (k *Keyring) SealText(text string, s Strategy) (cryptox.Envelope, error) {
	return k.Seal([]byte(text), s)
}

// Open decrypts an envelope with the resolved key. Failures carry the stage
// that produced them via OpenError.
func (k *Keyring) Open(env cryptox.Envelope, s Strategy) ([]byte, error) {
	key, err := k.Resolve(s)
	if err != nil {
		return nil, err
	}
	ciphertext, err := cryptox.DeserializeBuffer(env.Content)
	if err != nil {
		return nil, &OpenError{Stage: StageDeserializeData, Err: err}
	}
	iv, err := cryptox.DeserializeBuffer(env.IV)
	if err != nil {
		return nil, &OpenError{Stage: StageDeserializeIV, Err: err}
	}
	plaintext, err := cryptox.DecryptSym(ciphertext, key, iv)
	if err != nil {
		return nil, &OpenError{Stage: StageDecrypt, Err: err}
	}
	return plaintext, nil
}

// OpenText opens an envelope and decodes the plaintext as UTF-8.
func (k *Keyring) OpenText(env cryptox.Envelope, s Strategy) (string, error) {
	plaintext, err := k.Open(env, s)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", &OpenError{Stage: StageTextDecode, Err: fmt.Errorf("plaintext is not valid UTF-8")}
	}
	return string(plaintext), nil
}

// OpenAsym decrypts a framed asymmetric ciphertext with the private key.
func (k *Keyring) OpenAsym(serialized string, priv *rsa.PrivateKey) ([]byte, error) {
	ciphertext, err := cryptox.DeserializeBuffer(serialized)
	if err != nil {
		return nil, &OpenError{Stage: StageDeserializeData, Err: err}
	}
	plaintext, err := cryptox.DecryptAsym(ciphertext, priv)
	if err != nil {
		return nil, &OpenError{Stage: StageDecrypt, Err: err}
	}
	return plaintext, nil
}

// OpenAsymText decrypts a framed asymmetric ciphertext as UTF-8 text.
func (k *Keyring) OpenAsymText(serialized string, priv *rsa.PrivateKey) (string, error) {
	plaintext, err := k.OpenAsym(serialized, priv)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", &OpenError{Stage: StageTextDecode, Err: fmt.Errorf("plaintext is not valid UTF-8")}
	}
	return string(plaintext), nil
}
