package crypto

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, err := NewEncryptor([]byte("a-passphrase-of-any-length"))
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	plaintext := "ya29.a0AfH6SMB-access-token"
	ciphertext, err := enc.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if ciphertext == plaintext {
		t.Fatal("ciphertext equals plaintext")
	}
	if !IsEncrypted(ciphertext) {
		t.Error("IsEncrypted should recognize our own output")
	}

	got, err := enc.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != plaintext {
		t.Errorf("round trip: got %q, want %q", got, plaintext)
	}
}

func TestEncryptEmptyIsEmpty(t *testing.T) {
	enc, _ := NewEncryptor([]byte("key"))
	out, err := enc.Encrypt("")
	if err != nil || out != "" {
		t.Errorf("Encrypt(\"\") = %q, %v", out, err)
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	enc, _ := NewEncryptor([]byte("key"))
	ciphertext, _ := enc.Encrypt("secret")

	raw, _ := base64.StdEncoding.DecodeString(ciphertext)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)
	if _, err := enc.Decrypt(tampered); err == nil {
		t.Error("tampered ciphertext should fail")
	}

	if _, err := enc.Decrypt("dG9vc2hvcnQ="); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("short ciphertext error = %v, want ErrInvalidCiphertext", err)
	}
}

func TestIsEncrypted(t *testing.T) {
	if IsEncrypted("") {
		t.Error("empty string is not encrypted")
	}
	if IsEncrypted("plain-token") {
		t.Error("non-base64 is not encrypted")
	}
}
