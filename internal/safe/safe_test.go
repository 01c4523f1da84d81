package safe

import (
	"bytes"
	"testing"
)

func marshalSalt(salt [16]byte) ([]byte, error) {
	return salt[:], nil
}

func unmarshalSalt(b []byte) ([16]byte, error) {
	var salt [16]byte
	copy(salt[:], b)
	return salt, nil
}

func TestSealOpenRoundTrip(t *testing.T) {
	key := DeriveEncryptionKeyWithSalt([]byte("hunter2"), [16]byte{1, 2, 3}, 4)
	plaintext := []byte("the quick brown fox")

	s, err := Seal([16]byte{1, 2, 3}, key, plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	got, err := s.Open(key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("Open = %q, want %q", got, plaintext)
	}
}

func TestOpenWithWrongKeyFails(t *testing.T) {
	key := DeriveEncryptionKeyWithSalt([]byte("hunter2"), [16]byte{1, 2, 3}, 4)
	wrongKey := DeriveEncryptionKeyWithSalt([]byte("wrong"), [16]byte{1, 2, 3}, 4)

	s, err := Seal([16]byte{1, 2, 3}, key, []byte("secret"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	if _, err := s.Open(wrongKey); err == nil {
		t.Fatal("expected Open with wrong key to fail")
	}
}

func TestToBytesFromBytesRoundTrip(t *testing.T) {
	salt := [16]byte{9, 9, 9, 9}
	key := DeriveEncryptionKeyWithSalt([]byte("pw"), salt, 4)
	plaintext := []byte("payload data")

	s, err := Seal(salt, key, plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	raw, err := s.ToBytes(marshalSalt)
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}

	restored, err := FromBytes(raw, unmarshalSalt)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}

	if restored.Metadata != salt {
		t.Errorf("restored salt = %v, want %v", restored.Metadata, salt)
	}

	got, err := restored.Open(key)
	if err != nil {
		t.Fatalf("Open after round trip: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("Open after round trip = %q, want %q", got, plaintext)
	}
}

func TestFromBytesTruncatedFails(t *testing.T) {
	if _, err := FromBytes([]byte{0, 1, 2}, unmarshalSalt); err == nil {
		t.Fatal("expected error for truncated buffer")
	}
}

func TestMetadataTooLarge(t *testing.T) {
	big := make([]byte, 16)
	var salt [16]byte
	copy(salt[:], big)
	key := DeriveEncryptionKeyWithSalt([]byte("pw"), salt, 4)
	s, err := Seal(salt, key, []byte("x"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	oversized := func([16]byte) ([]byte, error) {
		return make([]byte, 256), nil
	}
	if _, err := s.ToBytes(oversized); err == nil {
		t.Fatal("expected error for oversized metadata")
	}
}
