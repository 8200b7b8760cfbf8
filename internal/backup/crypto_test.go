package backup

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	enc := filepath.Join(dir, "plain.db.enc")
	dec := filepath.Join(dir, "restored.db")

	payload := []byte("roster snapshot payload")
	if err := os.WriteFile(src, payload, 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := EncryptFile(src, enc, "correct horse"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	encrypted, _ := os.ReadFile(enc)
	if bytes.Contains(encrypted, payload) {
		t.Error("ciphertext contains plaintext")
	}
	if len(encrypted) <= saltSize+nonceSize {
		t.Fatalf("encrypted size = %d, want header plus ciphertext", len(encrypted))
	}

	if err := DecryptFile(enc, dec, "correct horse"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	restored, _ := os.ReadFile(dec)
	if !bytes.Equal(restored, payload) {
		t.Errorf("restored = %q, want %q", restored, payload)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	enc := filepath.Join(dir, "plain.db.enc")

	os.WriteFile(src, []byte("secret"), 0o600)
	if err := EncryptFile(src, enc, "right"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if err := DecryptFile(enc, filepath.Join(dir, "out.db"), "wrong"); err == nil {
		t.Error("expected authentication failure with wrong passphrase")
	}
}

func TestDecryptTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	enc := filepath.Join(dir, "short.enc")
	os.WriteFile(enc, []byte("tiny"), 0o600)

	if err := DecryptFile(enc, filepath.Join(dir, "out.db"), "pw"); err == nil {
		t.Error("expected error for truncated input")
	}
}

func TestEncryptFreshSaltPerFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	os.WriteFile(src, []byte("same payload"), 0o600)

	enc1 := filepath.Join(dir, "a.enc")
	enc2 := filepath.Join(dir, "b.enc")
	if err := EncryptFile(src, enc1, "pw"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if err := EncryptFile(src, enc2, "pw"); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	a, _ := os.ReadFile(enc1)
	b, _ := os.ReadFile(enc2)
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same payload must differ")
	}
}

func TestManagerDisabledWithoutConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewManager(Config{}, nil, nil, logger)
	if m.Enabled() {
		t.Error("manager should be disabled without S3 credentials and passphrase")
	}
	if m.Status().State != StateDisabled {
		t.Errorf("state = %q, want disabled", m.Status().State)
	}
}
