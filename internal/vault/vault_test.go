package vault

import (
	"bytes"
	"testing"
)

// stringIdentity is a minimal serializer/deserializer/destroyer identity
// used to exercise the Vault state machine without depending on hdkey.
type stringIdentity struct {
	value     string
	destroyed bool
}

func (s *stringIdentity) Serialize() []byte { return []byte(s.value) }

func (s *stringIdentity) Deserialize(b []byte) error {
	s.value = string(b)
	return nil
}

func (s *stringIdentity) Destroy() {
	s.destroyed = true
	s.value = ""
}

func newStringVault(t *testing.T, value string) *Vault[*stringIdentity] {
	t.Helper()
	v, err := New(func() (*stringIdentity, error) {
		return &stringIdentity{value: value}, nil
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestVaultLockUnlockRoundTrip(t *testing.T) {
	v := newStringVault(t, "secret payload")

	if !v.IsUnlocked() {
		t.Fatal("expected new vault to be unlocked")
	}

	if err := v.Lock([]byte("password")); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if v.IsUnlocked() {
		t.Fatal("expected vault to be locked")
	}

	newIdentity := func() *stringIdentity { return &stringIdentity{} }
	if err := v.Unlock([]byte("password"), newIdentity); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if !v.IsUnlocked() {
		t.Fatal("expected vault to be unlocked again")
	}

	identity, err := v.Identity()
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if identity.value != "secret payload" {
		t.Errorf("restored identity value = %q, want %q", identity.value, "secret payload")
	}
}

func TestLockIsIdempotentNoOp(t *testing.T) {
	v := newStringVault(t, "payload")

	if err := v.Lock([]byte("pw")); err != nil {
		t.Fatalf("first Lock: %v", err)
	}
	if err := v.Lock([]byte("pw")); err != nil {
		t.Fatalf("second Lock on already-locked vault should be a no-op, got: %v", err)
	}
}

func TestUnlockWhenAlreadyUnlockedFails(t *testing.T) {
	v := newStringVault(t, "payload")

	newIdentity := func() *stringIdentity { return &stringIdentity{} }
	err := v.Unlock([]byte("pw"), newIdentity)
	if err == nil {
		t.Fatal("expected error unlocking an already-unlocked vault")
	}
	verr, ok := err.(*Error)
	if !ok || verr.Kind != ErrAlreadyUnlocked {
		t.Fatalf("expected ErrAlreadyUnlocked, got %v", err)
	}
}

func TestUnlockWithWrongPasswordFails(t *testing.T) {
	v := newStringVault(t, "payload")
	if err := v.Lock([]byte("correct")); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	newIdentity := func() *stringIdentity { return &stringIdentity{} }
	err := v.Unlock([]byte("wrong"), newIdentity)
	if err == nil {
		t.Fatal("expected error unlocking with wrong password")
	}
	verr, ok := err.(*Error)
	if !ok || verr.Kind != ErrSafeDecrypt {
		t.Fatalf("expected ErrSafeDecrypt, got %v", err)
	}
	if v.IsUnlocked() {
		t.Fatal("vault should remain locked after a failed Unlock")
	}
}

func TestToBytesForbiddenWhileUnlocked(t *testing.T) {
	v := newStringVault(t, "payload")
	if _, err := v.ToBytes(); err == nil {
		t.Fatal("expected error calling ToBytes on an unlocked vault")
	}
}

func TestIdentityForbiddenWhileLocked(t *testing.T) {
	v := newStringVault(t, "payload")
	if err := v.Lock([]byte("pw")); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	_, err := v.Identity()
	if err == nil {
		t.Fatal("expected error calling Identity on a locked vault")
	}
	verr, ok := err.(*Error)
	if !ok || verr.Kind != ErrForbiddenWhileLocked {
		t.Fatalf("expected ErrForbiddenWhileLocked, got %v", err)
	}
}

func TestToBytesFromBytesRoundTrip(t *testing.T) {
	v := newStringVault(t, "payload")
	if err := v.Lock([]byte("pw")); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	raw, err := v.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}

	restored := FromBytes[*stringIdentity](raw)
	if restored.IsUnlocked() {
		t.Fatal("expected FromBytes to produce a locked vault")
	}

	newIdentity := func() *stringIdentity { return &stringIdentity{} }
	if err := restored.Unlock([]byte("pw"), newIdentity); err != nil {
		t.Fatalf("Unlock restored vault: %v", err)
	}
	identity, err := restored.Identity()
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if identity.value != "payload" {
		t.Errorf("restored value = %q, want %q", identity.value, "payload")
	}
}

func TestLockDestroysIdentitySecrets(t *testing.T) {
	v := newStringVault(t, "payload")
	identity, err := v.Identity()
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if err := v.Lock([]byte("pw")); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if !identity.destroyed {
		t.Error("expected identity.Destroy() to have been called on Lock")
	}
}

func TestSafeBytesAreNotAliasedAcrossCopies(t *testing.T) {
	v := newStringVault(t, "payload")
	if err := v.Lock([]byte("pw")); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	a, _ := v.ToBytes()
	b, _ := v.ToBytes()
	a[0] ^= 0xff
	if bytes.Equal(a, b) {
		t.Fatal("expected independent copies from repeated ToBytes calls")
	}
}
