package models

import (
	"time"

	"github.com/plume-im/plume/internal/cryptox"
)

// Exchange is a thread of messages with one correspondent.
type Exchange struct {
	ID              string
	ExchangeID      string
	CorrespondentID string
	UserID          string
	CreatedAt       time.Time
}

// Message is a single encrypted message inside an exchange. All content
// fields are sealed under the exchange's correspondence key.
type Message struct {
	ID          string
	ExchangeID  string
	IsImportant bool
	TitleCK     cryptox.Envelope
	CategoryCK  cryptox.Envelope
	BodyCK      cryptox.Envelope
	CreatedAt   time.Time
}

// MessageView joins a message with the owning exchange and the envelope
// needed to decrypt it client-side.
type MessageView struct {
	Message
	ThreadExchangeID    string
	CorrespondentID     string
	CorrespondenceKeyMK cryptox.Envelope
}
