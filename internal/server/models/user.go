// Package models defines the persistence-level records of the Plume server.
// Every *MK / *PK / *CK field is ciphertext in the framed envelope encoding;
// the server stores and relays these without ever holding the paired key.
package models

import (
	"time"

	"github.com/plume-im/plume/internal/cryptox"
)

// User is an account record. The server keeps only the username hash, the
// password salt, and material encrypted under keys derived client-side.
type User struct {
	ID                     string
	UsernameHash           string
	PasswordSalt           string
	PasswordProofPlainText string
	PasswordProofPK        cryptox.Envelope
	MasterKeyPK            cryptox.Envelope
	DisplayNameMK          cryptox.Envelope
	CreatedAt              time.Time
}
