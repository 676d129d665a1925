// Package api defines the JSON wire types of the Plume HTTP protocol,
// shared by the server handlers, the client SDK, and the federation client.
//
// Every field carrying secret material is an Envelope ({content, iv});
// public keys travel as framed serialized key material, never as raw bytes.
package api

import (
	"time"

	"github.com/plume-im/plume/internal/cryptox"
)

// --- users ---

type RegisterRequest struct {
	UsernameHash           string           `json:"usernameHash"`
	PasswordSalt           string           `json:"passwordSalt"`
	PasswordProofPlainText string           `json:"passwordProofPlainText"`
	PasswordProofPK        cryptox.Envelope `json:"passwordProofPK"`
	MasterKeyPK            cryptox.Envelope `json:"masterKeyPK"`
	DisplayNameMK          cryptox.Envelope `json:"displayNameMK"`
}

type LoginInfoRequest struct {
	UsernameHash string `json:"usernameHash"`
}

// LoginInfoResponse deliberately carries the proof plaintext and the proof
// IV, never the proof ciphertext: the client must reproduce the ciphertext
// itself to prove password knowledge.
type LoginInfoResponse struct {
	PasswordSalt           string `json:"passwordSalt"`
	PasswordProofPlainText string `json:"passwordProofPlainText"`
	PasswordProofPKIV      string `json:"passwordProofPKIV"`
}

type LoginRequest struct {
	UsernameHash    string `json:"usernameHash"`
	PasswordProofPK string `json:"passwordProofPK"`
}

type LoginResponse struct {
	AccessToken   string           `json:"accessToken"`
	MasterKeyPK   cryptox.Envelope `json:"masterKeyPK"`
	DisplayNameMK cryptox.Envelope `json:"displayNameMK"`
}

// --- correspondence handshake ---

type GenerateCodeRequest struct {
	CorrespondenceInitPublicKey  string           `json:"correspondenceInitPublicKey"`
	CorrespondenceInitPrivateKey cryptox.Envelope `json:"correspondenceInitPrivateKeyMK"`
}

type GenerateCodeResponse struct {
	CorrespondenceCode string `json:"correspondenceCode"`
}

type PublicKeyResponse struct {
	CorrespondenceInitID        string `json:"correspondenceInitID"`
	CorrespondenceInitPublicKey string `json:"correspondenceInitPublicKey"`
}

type CreateAnsweredRequest struct {
	CorrespondenceInitID  string           `json:"correspondenceInitID"`
	CorrespondenceKeyMK   cryptox.Envelope `json:"correspondenceKeyMK"`
	ServerURL             string           `json:"serverUrl"`
	CorrespondenceKeyCIPK string           `json:"correspondenceKeyCIPK"`
	DisplayNameCK         cryptox.Envelope `json:"displayNameCK"`
}

type FillInfosRequest struct {
	CorrespondenceInitID  string           `json:"correspondenceInitID"`
	CorrespondenceKeyCIPK string           `json:"correspondenceKeyCIPK"`
	DisplayNameCK         cryptox.Envelope `json:"displayNameCK"`
	ServerURL             string           `json:"serverUrl"`
}

// PendingFilledRequest couples the target's answer with the init record it
// answers: the correspondence key is wrapped under the public key whose
// private half sits (master-key-encrypted) in the same entry.
type PendingFilledRequest struct {
	CorrespondenceInitID           string           `json:"correspondenceInitID"`
	CorrespondenceKeyCIPK          string           `json:"correspondenceKeyCIPK"`
	UserDisplayNameCK              cryptox.Envelope `json:"userDisplayNameCK"`
	CorrespondenceInitPrivateKeyMK cryptox.Envelope `json:"correspondenceInitPrivateKeyMK"`
}

type PendingFilledResponse struct {
	Requests []PendingFilledRequest `json:"requests"`
}

type AnswerFilledRequest struct {
	CorrespondenceInitID string           `json:"correspondenceInitID"`
	CorrespondenceKeyMK  cryptox.Envelope `json:"correspondenceKeyMK"`
	UserDisplayNameCK    cryptox.Envelope `json:"userDisplayNameCK"`
}

type FilledRequestAnswer struct {
	CorrespondenceInitID string           `json:"correspondenceInitID"`
	UserDisplayNameCK    cryptox.Envelope `json:"userDisplayNameCK"`
}

type PendingFullyFilledRequest struct {
	CorrespondenceInitID string           `json:"correspondenceInitID"`
	CorrespondenceKeyMK  cryptox.Envelope `json:"correspondenceKeyMK"`
	UserDisplayNameCK    cryptox.Envelope `json:"userDisplayNameCK"`
	ServerURL            string           `json:"serverUrl"`
}

type PendingFullyFilledResponse struct {
	Requests []PendingFullyFilledRequest `json:"requests"`
}

type MarkAcceptedRequest struct {
	CorrespondenceInitID string `json:"correspondenceInitID"`
}

// FullyAcceptRequest carries the target side's freshly minted incoming
// access token; the response returns the initiator side's, so each server
// ends up holding the token the other will present.
type FullyAcceptRequest struct {
	CorrespondenceInitID string `json:"correspondenceInitID"`
	AccessToken          string `json:"accessToken"`
}

type FullyAcceptResponse struct {
	AccessToken string `json:"accessToken"`
}

// --- correspondents & exchanges ---

type Correspondent struct {
	ID                  string           `json:"id"`
	CorrespondenceKeyMK cryptox.Envelope `json:"correspondenceKeyMK"`
	UserDisplayNameCK   cryptox.Envelope `json:"userDisplayNameCK"`
	ServerURL           string           `json:"serverUrl"`
	IsInitiator         bool             `json:"isInitiator"`
	IsService           bool             `json:"isService"`
}

type CorrespondentsResponse struct {
	Correspondents []Correspondent `json:"correspondents"`
}

type MessagePayload struct {
	IsImportant bool             `json:"isImportant"`
	TitleCK     cryptox.Envelope `json:"titleCK"`
	CategoryCK  cryptox.Envelope `json:"categoryCK"`
	BodyCK      cryptox.Envelope `json:"bodyCK"`
}

type SendMessageRequest struct {
	CorrespondentID string         `json:"correspondentId"`
	ExchangeID      string         `json:"exchangeId,omitempty"`
	Message         MessagePayload `json:"message"`
}

type SendMessageResponse struct {
	ExchangeID string `json:"exchangeId"`
}

type ReceiveMessageRequest struct {
	AccessToken string         `json:"accessToken"`
	ExchangeID  string         `json:"exchangeId,omitempty"`
	NewExchange bool           `json:"newExchange"`
	Message     MessagePayload `json:"message"`
}

type ReceiveMessageResponse struct {
	ExchangeID string `json:"exchangeId"`
}

type Message struct {
	ExchangeID          string           `json:"exchangeId"`
	CorrespondentID     string           `json:"correspondentId"`
	CorrespondenceKeyMK cryptox.Envelope `json:"correspondenceKeyMK"`
	IsImportant         bool             `json:"isImportant"`
	TitleCK             cryptox.Envelope `json:"titleCK"`
	CategoryCK          cryptox.Envelope `json:"categoryCK"`
	BodyCK              cryptox.Envelope `json:"bodyCK"`
	CreatedAt           time.Time        `json:"createdAt"`
}

type MessagesResponse struct {
	Messages []Message `json:"messages"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
