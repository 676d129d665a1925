package cryptox

import (
	"bytes"
	"crypto/rsa"
	"errors"
	"sync"
	"testing"
)

// Keypair generation at 4096 bits is slow, so tests share one pair.
var (
	testKeyOnce sync.Once
	testPub     *rsa.PublicKey
	testPriv    *rsa.PrivateKey
)

func testKeyPair(t *testing.T) (*rsa.PublicKey, *rsa.PrivateKey) {
	t.Helper()
	testKeyOnce.Do(func() {
		var err error
		testPub, testPriv, err = GenerateAsymmetricKeyPair()
		if err != nil {
			t.Fatalf("keypair generation failed: %v", err)
		}
	})
	return testPub, testPriv
}

func TestEncryptDecryptAsym_RoundTrip(t *testing.T) {
	pub, priv := testKeyPair(t)
	plaintext := []byte("wrapped key material")

	ciphertext, err := EncryptAsym(plaintext, pub)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}

	got, err := DecryptAsym(ciphertext, priv)
	if err != nil {
		t.Fatalf("decrypt error: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("expected %q, got %q", plaintext, got)
	}
}

func TestEncryptAsym_Nondeterministic(t *testing.T) {
	pub, _ := testKeyPair(t)

	c1, err := EncryptAsym([]byte("same input"), pub)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}
	c2, err := EncryptAsym([]byte("same input"), pub)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}
	if bytes.Equal(c1, c2) {
		t.Fatal("OAEP must randomize ciphertexts")
	}
}

func TestDecryptAsym_Tampered(t *testing.T) {
	pub, priv := testKeyPair(t)

	ciphertext, err := EncryptAsym([]byte("secret"), pub)
	if err != nil {
		t.Fatalf("encrypt error: %v", err)
	}
	ciphertext[len(ciphertext)-1] ^= 0x01

	if _, err := DecryptAsym(ciphertext, priv); !errors.Is(err, ErrDecryptionFailed) {
		t.Fatalf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestEncryptAsym_PlaintextTooLong(t *testing.T) {
	pub, _ := testKeyPair(t)

	// 4096-bit modulus with SHA-512 OAEP caps plaintext at 382 bytes.
	if _, err := EncryptAsym(make([]byte, 383), pub); !errors.Is(err, ErrEncryptionFailed) {
		t.Fatalf("expected ErrEncryptionFailed, got %v", err)
	}
}
