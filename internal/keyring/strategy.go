package keyring

import "github.com/plume-im/plume/internal/cryptox"

// Strategy names the key a protocol payload is sealed under. It is a closed
// sum: the unexported marker method keeps external packages from adding
// variants, so the resolver's switch stays exhaustive.
type Strategy interface {
	keyStrategy()
}

// Direct uses a concrete symmetric key the caller already holds.
type Direct struct {
	Key []byte
}

// MasterKey uses the session's password-derived master key. Resolving it
// without a master key present is a hard error, never a silent no-op.
type MasterKey struct{}

// PlainKey carries serialized symmetric key material, imported on demand
// through the keyring cache.
type PlainKey struct {
	Serialized string
}

// WrappedByMasterKey is a key stored as an envelope sealed under the master
// key: resolving it decrypts the envelope, then imports the plaintext as
// key material.
type WrappedByMasterKey struct {
	Envelope cryptox.Envelope
}

func (Direct) keyStrategy()             {}
func (MasterKey) keyStrategy()          {}
func (PlainKey) keyStrategy()           {}
func (WrappedByMasterKey) keyStrategy() {}
