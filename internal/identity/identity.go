// Package identity defines the capability interfaces every key-custody
// identity must satisfy, and the Account value type returned by account
// derivation.
package identity

import (
	"fmt"

	"github.com/jasony/keychain-core/internal/hexutil"
)

// Account is a derived, publicly-shareable account: an address, the public
// key it was derived from, and the path used to derive it.
type Account[P any] struct {
	Address   string
	PublicKey []byte
	Path      P
}

// GenericIdentity is the minimal capability every identity exposes: a type
// tag and a serialize/deserialize round trip used to seal/unseal it inside
// a Vault.
type GenericIdentity interface {
	IdentityType() string
	Serialize() []byte
	Deserialize(b []byte) error
}

// Initializable identities can construct a fresh instance of themselves,
// e.g. with freshly generated random key material.
type Initializable interface {
	GenericIdentity
	New() (GenericIdentity, error)
}

// AccountDeriver derives a single Account at a given path.
type AccountDeriver[P any] interface {
	AccountAt(path P) (Account[P], error)
}

// MultiKeyPair is an identity capable of holding many keys reachable by
// path, deriving accounts, and signing/verifying on their behalf.
type MultiKeyPair[P any] interface {
	GenericIdentity
	AccountDeriver[P]
	PrivateKeyAt(path P) ([]byte, error)
	PublicKeyAt(path P) ([]byte, error)
	Sign(from Account[P], message []byte) ([]byte, error)
	Verify(from Account[P], message, signature []byte) error
}

// AccountErrorKind enumerates the ways building an Account can fail.
type AccountErrorKind int

const (
	_ AccountErrorKind = iota
	ErrInvalidHexAddress
	ErrInvalidKeyLength
	ErrInvalidPrivateKey
)

// AccountError is the typed error returned while constructing an Account.
type AccountError struct {
	Kind AccountErrorKind
	Err  error
}

func (e *AccountError) Error() string {
	switch e.Kind {
	case ErrInvalidHexAddress:
		return fmt.Sprintf("identity: invalid hex address: %v", e.Err)
	case ErrInvalidKeyLength:
		return fmt.Sprintf("identity: invalid key length: %v", e.Err)
	case ErrInvalidPrivateKey:
		return fmt.Sprintf("identity: invalid private key: %v", e.Err)
	default:
		return "identity: unknown account error"
	}
}

func (e *AccountError) Unwrap() error { return e.Err }

// SignerErrorKind enumerates the ways signing/verification can fail.
type SignerErrorKind int

const (
	_ SignerErrorKind = iota
	ErrSignerInvalidPrivateKey
	ErrSignerInvalidSignature
	ErrSignerGeneric
)

// SignerError is the typed error returned by Sign/Verify implementations.
type SignerError struct {
	Kind SignerErrorKind
	Err  error
}

func (e *SignerError) Error() string {
	switch e.Kind {
	case ErrSignerInvalidPrivateKey:
		return fmt.Sprintf("identity: invalid private key for signing: %v", e.Err)
	case ErrSignerInvalidSignature:
		return fmt.Sprintf("identity: invalid signature: %v", e.Err)
	default:
		return fmt.Sprintf("identity: signer error: %v", e.Err)
	}
}

func (e *SignerError) Unwrap() error { return e.Err }

// FromPublicKeyAddress formats an uncompressed public key's Keccak-derived
// address (caller supplies the already-hashed 20 bytes); kept here so
// callers outside internal/hdkey can validate an address shape consistently.
func FromPublicKeyAddress(addressBytes []byte) (string, error) {
	if len(addressBytes) != 20 {
		return "", &AccountError{Kind: ErrInvalidKeyLength, Err: fmt.Errorf("want 20 bytes, got %d", len(addressBytes))}
	}
	addr := hexutil.Add0x(hexutil.Encode(addressBytes))
	if err := hexutil.AssertIsValidHexAddress(addr); err != nil {
		return "", &AccountError{Kind: ErrInvalidHexAddress, Err: err}
	}
	return addr, nil
}
