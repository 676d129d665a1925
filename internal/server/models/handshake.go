package models

import (
	"time"

	"github.com/plume-im/plume/internal/cryptox"
)

// CorrespondenceInit is the phase-1 record on the initiator's server: the
// shareable code, the ephemeral public key, and the private half encrypted
// under the initiator's master key.
type CorrespondenceInit struct {
	ID                   string
	ForUserID            string
	CorrespondenceInitID string
	CorrespondenceCode   string
	PublicKey            string
	PrivateKeyMK         cryptox.Envelope
	CreatedAt            time.Time
}

// AnsweredRequest is the phase-2/3 record on the target's server: the fresh
// correspondence key under the target's master key, plus where to reach the
// initiator's server. At most one answer may exist per init id.
type AnsweredRequest struct {
	ID                   string
	ForUserID            string
	CorrespondenceInitID string
	CorrespondenceKeyMK  cryptox.Envelope
	ServerURL            string
	CreatedAt            time.Time
}

// FilledRequest is the phase-3/4 record on the initiator's server: the
// correspondence key wrapped under the init public key, and the target's
// display name under the correspondence key.
type FilledRequest struct {
	ID                    string
	ForUserID             string
	CorrespondenceInitID  string
	CorrespondenceKeyCIPK string
	UserDisplayNameCK     cryptox.Envelope
	ServerURL             string
	CreatedAt             time.Time
}

// FullyFilledRequest is the phase-4/5 record on the target's server: the
// initiator's display name under the shared key, awaiting the target's
// final acceptance.
type FullyFilledRequest struct {
	ID                   string
	ForUserID            string
	CorrespondenceInitID string
	UserDisplayNameCK    cryptox.Envelope
	CreatedAt            time.Time
}

// AcceptedRelay holds the initiator's re-encrypted correspondence key
// between phase 5's local confirmation and the counterpart's finalizing
// push, which consumes it.
type AcceptedRelay struct {
	ID                   string
	ForUserID            string
	CorrespondenceInitID string
	CorrespondenceKeyMK  cryptox.Envelope
	CreatedAt            time.Time
}

// PendingFilled joins a FilledRequest with its init record for the
// initiator's client, which owns the keys to open it.
type PendingFilled struct {
	CorrespondenceInitID  string
	CorrespondenceKeyCIPK string
	UserDisplayNameCK     cryptox.Envelope
	PrivateKeyMK          cryptox.Envelope
}

// PendingFullyFilled joins a FullyFilledRequest with its answered record
// for the target's client.
type PendingFullyFilled struct {
	CorrespondenceInitID string
	CorrespondenceKeyMK  cryptox.Envelope
	UserDisplayNameCK    cryptox.Envelope
	ServerURL            string
}
