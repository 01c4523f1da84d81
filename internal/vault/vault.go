// Package vault implements the two-state (locked/unlocked) container that
// wraps a single identity, sealing it under a password-derived key when
// locked.
package vault

import (
	"fmt"

	"github.com/jasony/keychain-core/internal/safe"
)

// ErrorKind enumerates the ways a Vault operation can fail.
type ErrorKind int

const (
	_ ErrorKind = iota
	ErrForbiddenWhileLocked
	ErrForbiddenWhileUnlocked
	ErrAlreadyUnlocked
	ErrSafeCreation
	ErrSafeDecrypt
	ErrSafeExport
	ErrSafeRestore
	ErrIdentityError
)

// Error is the typed error returned by this package. The Safe-related kinds
// mirror the sealing pipeline's four failure points (deriving/sealing a new
// Safe on Lock, decrypting on Unlock, and serializing/deserializing the
// sealed bytes); Unlock never distinguishes a wrong password from tampered
// ciphertext, both surface as ErrSafeDecrypt. Failures originating from the
// wrapped identity itself (bad mnemonic, key derivation, signer setup) are
// not re-classified here: they stay wrapped as ErrIdentityError and callers
// recover the specific cause with errors.As against the identity's own
// typed error (e.g. hdkey.Error).
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrForbiddenWhileLocked:
		return "vault: operation forbidden while locked"
	case ErrForbiddenWhileUnlocked:
		return "vault: operation forbidden while unlocked"
	case ErrAlreadyUnlocked:
		return "vault: already unlocked"
	case ErrSafeCreation:
		return fmt.Sprintf("vault: safe creation failed: %v", e.Err)
	case ErrSafeDecrypt:
		return fmt.Sprintf("vault: safe decrypt failed: %v", e.Err)
	case ErrSafeExport:
		return fmt.Sprintf("vault: safe export failed: %v", e.Err)
	case ErrSafeRestore:
		return fmt.Sprintf("vault: safe restore failed: %v", e.Err)
	case ErrIdentityError:
		return fmt.Sprintf("vault: identity error: %v", e.Err)
	default:
		return "vault: unknown error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// destroyer is implemented by identities that hold zeroable secret state.
type destroyer interface {
	Destroy()
}

// vaultState is the sum-type tag: exactly one of lockedState/unlockedState[T]
// is ever held by a Vault.
type vaultState interface {
	isVaultState()
}

type lockedState struct {
	safeBytes []byte
}

func (lockedState) isVaultState() {}

type unlockedState[T any] struct {
	identity T
}

func (unlockedState[T]) isVaultState() {}

// Vault wraps a single identity of type T, password-sealed when locked.
type Vault[T any] struct {
	state  vaultState
	rounds int
}

// Option configures a Vault.
type Option func(*config)

type config struct {
	rounds int
}

// WithKDFRounds overrides the PBKDF2 round count used by this vault's
// Lock/Unlock calls. Defaults to safe.DefaultKDFRounds.
func WithKDFRounds(rounds int) Option {
	return func(c *config) { c.rounds = rounds }
}

func resolveConfig(opts []Option) config {
	c := config{rounds: safe.DefaultKDFRounds}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// New constructs an unlocked Vault around a freshly-built identity produced
// by factory.
func New[T any](factory func() (T, error), opts ...Option) (*Vault[T], error) {
	c := resolveConfig(opts)
	identity, err := factory()
	if err != nil {
		return nil, &Error{Kind: ErrIdentityError, Err: err}
	}
	return &Vault[T]{
		state:  unlockedState[T]{identity: identity},
		rounds: c.rounds,
	}, nil
}

// IsUnlocked reports whether the vault currently holds a live identity.
func (v *Vault[T]) IsUnlocked() bool {
	_, ok := v.state.(unlockedState[T])
	return ok
}

// Identity returns the wrapped identity, or ErrForbiddenWhileLocked if the
// vault is locked.
func (v *Vault[T]) Identity() (T, error) {
	var zero T
	u, ok := v.state.(unlockedState[T])
	if !ok {
		return zero, &Error{Kind: ErrForbiddenWhileLocked}
	}
	return u.identity, nil
}

// serializer is implemented by identities that can seal themselves into
// bytes for storage, and rebuild themselves from those bytes.
type serializer interface {
	Serialize() []byte
}

type deserializer interface {
	Deserialize(b []byte) error
}

// Lock seals the current identity under password and drops it from memory.
// Locking an already-locked vault is a no-op success.
func (v *Vault[T]) Lock(password []byte, opts ...Option) error {
	u, ok := v.state.(unlockedState[T])
	if !ok {
		return nil
	}

	c := resolveConfig(opts)
	if c.rounds == safe.DefaultKDFRounds {
		c.rounds = v.rounds
	}

	ser, ok := any(u.identity).(serializer)
	if !ok {
		return &Error{Kind: ErrIdentityError, Err: fmt.Errorf("identity does not implement Serialize")}
	}
	plaintext := ser.Serialize()

	ek, err := safe.DeriveEncryptionKey(password, c.rounds)
	if err != nil {
		return &Error{Kind: ErrSafeCreation, Err: err}
	}

	sealed, err := safe.Seal(ek.Salt, ek.Pubk, plaintext)
	if err != nil {
		return &Error{Kind: ErrSafeCreation, Err: err}
	}

	raw, err := sealed.ToBytes(func(salt [16]byte) ([]byte, error) { return salt[:], nil })
	if err != nil {
		return &Error{Kind: ErrSafeExport, Err: err}
	}

	if d, ok := any(u.identity).(destroyer); ok {
		d.Destroy()
	}

	v.state = lockedState{safeBytes: raw}
	return nil
}

// Unlock decrypts the sealed identity under password. Unlocking an
// already-unlocked vault returns ErrAlreadyUnlocked.
func (v *Vault[T]) Unlock(password []byte, newIdentity func() T, opts ...Option) error {
	l, ok := v.state.(lockedState)
	if !ok {
		return &Error{Kind: ErrAlreadyUnlocked}
	}

	c := resolveConfig(opts)
	if c.rounds == safe.DefaultKDFRounds {
		c.rounds = v.rounds
	}

	sealed, err := safe.FromBytes(l.safeBytes, func(b []byte) ([16]byte, error) {
		var salt [16]byte
		if len(b) != 16 {
			return salt, fmt.Errorf("expected 16-byte salt, got %d", len(b))
		}
		copy(salt[:], b)
		return salt, nil
	})
	if err != nil {
		return &Error{Kind: ErrSafeRestore, Err: err}
	}

	key := safe.DeriveEncryptionKeyWithSalt(password, sealed.Metadata, c.rounds)
	plaintext, err := sealed.Open(key)
	if err != nil {
		return &Error{Kind: ErrSafeDecrypt, Err: err}
	}

	identity := newIdentity()
	d, ok := any(identity).(deserializer)
	if !ok {
		return &Error{Kind: ErrIdentityError, Err: fmt.Errorf("identity does not implement Deserialize")}
	}
	if err := d.Deserialize(plaintext); err != nil {
		return &Error{Kind: ErrIdentityError, Err: err}
	}

	v.state = unlockedState[T]{identity: identity}
	return nil
}

// ToBytes serializes the vault. Only valid while locked.
func (v *Vault[T]) ToBytes() ([]byte, error) {
	l, ok := v.state.(lockedState)
	if !ok {
		return nil, &Error{Kind: ErrForbiddenWhileUnlocked}
	}
	out := make([]byte, len(l.safeBytes))
	copy(out, l.safeBytes)
	return out, nil
}

// FromBytes reconstructs a locked Vault directly from the bytes produced by
// ToBytes, without attempting to decrypt.
func FromBytes[T any](b []byte) *Vault[T] {
	safeBytes := make([]byte, len(b))
	copy(safeBytes, b)
	return &Vault[T]{
		state:  lockedState{safeBytes: safeBytes},
		rounds: safe.DefaultKDFRounds,
	}
}
