// Package cryptox implements the envelope-cryptography primitives shared by
// the Plume client and server: PBKDF2 password key derivation, AES-256-GCM
// symmetric encryption, RSA-OAEP asymmetric encryption, SHA-512 hashing,
// random generation, key serialization, and the framed buffer encoding used
// on the wire.
//
// Every fallible primitive returns a typed sentinel error (matchable with
// errors.Is) and fails closed: no function ever substitutes a default key
// or IV, and authenticated decryption never returns partial plaintext.
package cryptox
