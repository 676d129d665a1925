package models

import (
	"time"

	"github.com/plume-im/plume/internal/cryptox"
)

// Correspondent is the durable per-side record of an established federated
// relationship. IncomingAccessToken is the credential the counterpart server
// presents when pushing to us; OutgoingAccessToken is what we present to it.
type Correspondent struct {
	ID                  string
	ForUserID           string
	IncomingAccessToken string
	OutgoingAccessToken string
	CorrespondenceKeyMK cryptox.Envelope
	UserDisplayNameCK   cryptox.Envelope
	ServerURL           string
	IsInitiator         bool
	IsService           bool
	CreatedAt           time.Time
}
