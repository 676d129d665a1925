package cryptox

// Envelope is the wire shape of authenticated-encrypted data: the framed
// ciphertext plus the framed initialization vector needed to decrypt it.
// An envelope must only ever be opened with the key it was sealed under;
// the keyring package enforces this pairing at the protocol level.
type Envelope struct {
	Content string `json:"content"`
	IV      string `json:"iv"`
}
