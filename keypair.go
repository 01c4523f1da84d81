package keychain

import (
	"fmt"

	"github.com/jasony/keychain-core/internal/hdkey"
	"github.com/jasony/keychain-core/internal/vault"
)

// multiKeyPairTag is the wire type tag for the only KeyPair variant this
// module ships.
const multiKeyPairTag byte = 0x00

// KeyPair is a tagged union over the kinds of key pair a Keychain can hold.
// Today it has a single variant, MultiKeyPair, wrapping a Vault[*hdkey.HDKey].
type KeyPair struct {
	vault *vault.Vault[*hdkey.HDKey]
}

// newMultiKeyPair wraps an already-constructed vault as a KeyPair.
func newMultiKeyPair(v *vault.Vault[*hdkey.HDKey]) KeyPair {
	return KeyPair{vault: v}
}

// Identity returns the wrapped HDKey, or ErrForbiddenWhileLocked (wrapped as
// ErrVaultError) if the underlying vault is locked. This is how a caller
// materializes accounts after AddMultiKeyPair or after Unlock, since neither
// touches the accounts projection on the caller's behalf.
func (kp KeyPair) Identity() (*hdkey.HDKey, error) {
	ident, err := kp.vault.Identity()
	if err != nil {
		return nil, wrapVaultError(err)
	}
	return ident, nil
}

func (kp KeyPair) toBytes() ([]byte, error) {
	b, err := kp.vault.ToBytes()
	if err != nil {
		return nil, wrapVaultError(err)
	}
	return b, nil
}

func keyPairFromBytes(tag byte, b []byte) (KeyPair, error) {
	switch tag {
	case multiKeyPairTag:
		return KeyPair{vault: vault.FromBytes[*hdkey.HDKey](b)}, nil
	default:
		return KeyPair{}, &Error{
			Kind: ErrByteDeserializationError,
			Msg:  fmt.Sprintf("unsupported key pair type %d", tag),
		}
	}
}
