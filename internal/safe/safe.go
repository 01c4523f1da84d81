// Package safe implements the password-sealed AEAD container used to store
// an identity's serialized secret bytes: XChaCha20-Poly1305 encryption with
// a PBKDF2-HMAC-SHA256 derived key.
package safe

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
)

// DefaultKDFRounds is the PBKDF2 round count used unless a caller overrides
// it. Kept fixed for wire compatibility with existing backups; changing it
// changes every future EncryptionKey derived with the default.
const DefaultKDFRounds = 1000

// KDFConfig carries the tunable parameters of key derivation.
type KDFConfig struct {
	Rounds int
}

// DefaultKDFConfig returns the wire-compatible default KDFConfig.
func DefaultKDFConfig() KDFConfig {
	return KDFConfig{Rounds: DefaultKDFRounds}
}

// ErrorKind enumerates the ways a Safe operation can fail.
type ErrorKind int

const (
	_ ErrorKind = iota
	ErrSerialization
	ErrDeserialization
	ErrSeal
	ErrOpen
	ErrMetadataTooLarge
)

// Error is the typed error returned by this package.
type Error struct {
	Kind ErrorKind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("safe: %s", e.Msg)
}

// EncryptionKey is a password-derived symmetric key together with the salt
// used to derive it.
type EncryptionKey struct {
	Pubk [32]byte
	Salt [16]byte
}

// DeriveEncryptionKey derives a fresh EncryptionKey from password, generating
// a new random salt.
func DeriveEncryptionKey(password []byte, rounds int) (*EncryptionKey, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, &Error{Kind: ErrSeal, Msg: fmt.Sprintf("salt generation failed: %v", err)}
	}
	key := pbkdf2.Key(password, salt[:], rounds, 32, sha256.New)
	var ek EncryptionKey
	copy(ek.Pubk[:], key)
	ek.Salt = salt
	return &ek, nil
}

// DeriveEncryptionKeyWithSalt deterministically re-derives the key bytes for
// a known salt (used on unlock, once the salt has been read back from the
// Safe's metadata).
func DeriveEncryptionKeyWithSalt(password []byte, salt [16]byte, rounds int) [32]byte {
	key := pbkdf2.Key(password, salt[:], rounds, 32, sha256.New)
	var out [32]byte
	copy(out[:], key)
	return out
}

// Safe is a password-sealed AEAD container for arbitrary plaintext, carrying
// caller-supplied metadata (e.g. a KDF salt) in the clear alongside it.
type Safe[M any] struct {
	Metadata       M
	encryptedBytes []byte
	nonce          [24]byte
}

// Seal encrypts plaintext under key, producing a new Safe with the given
// metadata attached.
func Seal[M any](metadata M, key [32]byte, plaintext []byte) (*Safe[M], error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, &Error{Kind: ErrSeal, Msg: fmt.Sprintf("cipher init failed: %v", err)}
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, &Error{Kind: ErrSeal, Msg: fmt.Sprintf("nonce generation failed: %v", err)}
	}

	ciphertext := aead.Seal(nil, nonce[:], plaintext, nil)

	return &Safe[M]{
		Metadata:       metadata,
		encryptedBytes: ciphertext,
		nonce:          nonce,
	}, nil
}

// Open decrypts the Safe's ciphertext under key. It never distinguishes a
// wrong key from tampered ciphertext: both surface as ErrOpen.
func (s *Safe[M]) Open(key [32]byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return nil, &Error{Kind: ErrOpen, Msg: fmt.Sprintf("cipher init failed: %v", err)}
	}

	plaintext, err := aead.Open(nil, s.nonce[:], s.encryptedBytes, nil)
	if err != nil {
		return nil, &Error{Kind: ErrOpen, Msg: "decryption failed"}
	}
	return plaintext, nil
}

// ToBytes serializes the Safe as: metadataLen(1) | metadata | ciphertext
// (with trailing AEAD tag) | nonce(24). metadata is capped at 255 bytes.
func (s *Safe[M]) ToBytes(marshalMetadata func(M) ([]byte, error)) ([]byte, error) {
	metaBytes, err := marshalMetadata(s.Metadata)
	if err != nil {
		return nil, &Error{Kind: ErrSerialization, Msg: fmt.Sprintf("metadata marshal failed: %v", err)}
	}
	if len(metaBytes) > 255 {
		return nil, &Error{Kind: ErrMetadataTooLarge, Msg: fmt.Sprintf("metadata is %d bytes, max 255", len(metaBytes))}
	}

	out := make([]byte, 0, 1+len(metaBytes)+len(s.encryptedBytes)+24)
	out = append(out, byte(len(metaBytes)))
	out = append(out, metaBytes...)
	out = append(out, s.encryptedBytes...)
	out = append(out, s.nonce[:]...)
	return out, nil
}

// FromBytes parses the layout produced by ToBytes.
func FromBytes[M any](b []byte, unmarshalMetadata func([]byte) (M, error)) (*Safe[M], error) {
	if len(b) < 1+24 {
		return nil, &Error{Kind: ErrDeserialization, Msg: "buffer too short"}
	}

	metaLen := int(b[0])
	if len(b) < 1+metaLen+24 {
		return nil, &Error{Kind: ErrDeserialization, Msg: "buffer too short for declared metadata length"}
	}

	metaBytes := b[1 : 1+metaLen]
	rest := b[1+metaLen:]
	ciphertext := rest[:len(rest)-24]
	var nonce [24]byte
	copy(nonce[:], rest[len(rest)-24:])

	metadata, err := unmarshalMetadata(metaBytes)
	if err != nil {
		return nil, &Error{Kind: ErrDeserialization, Msg: fmt.Sprintf("metadata unmarshal failed: %v", err)}
	}

	return &Safe[M]{
		Metadata:       metadata,
		encryptedBytes: ciphertext,
		nonce:          nonce,
	}, nil
}
