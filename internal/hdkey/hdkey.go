// Package hdkey implements the single Identity realization this module
// ships: a BIP-39 mnemonic-backed seed deriving BIP-32 hierarchical
// SECP256K1 keys along m/44'/60'/0'/0/{index}, with Ethereum-style
// addressing and SHA-256-digest ECDSA signing.
package hdkey

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil/hdkeychain"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"

	"github.com/jasony/keychain-core/internal/identity"
)

// purpose'/coinType'/account'/change prefix of the derivation path, per
// BIP-44 and SLIP-44's Ethereum coin type, with change fixed at 0. Kept as a
// single fixed prefix — change and chain fan-out are not exposed, only the
// address index.
var pathPrefix = []uint32{
	hdkeychain.HardenedKeyStart + 44,
	hdkeychain.HardenedKeyStart + 60,
	hdkeychain.HardenedKeyStart + 0,
	0,
}

// ErrorKind enumerates the ways an HDKey operation can fail.
type ErrorKind int

const (
	_ ErrorKind = iota
	ErrWrongDerivationPath
	ErrInvalidMnemonic
	ErrInvalidPrivateKey
	ErrInvalidSignature
	ErrHDKeyGeneric
)

// Error is the typed error returned by this package.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrWrongDerivationPath:
		return fmt.Sprintf("hdkey: wrong derivation path: %v", e.Err)
	case ErrInvalidMnemonic:
		return fmt.Sprintf("hdkey: invalid mnemonic: %v", e.Err)
	case ErrInvalidPrivateKey:
		return fmt.Sprintf("hdkey: invalid private key: %v", e.Err)
	case ErrInvalidSignature:
		return fmt.Sprintf("hdkey: invalid signature: %v", e.Err)
	default:
		return fmt.Sprintf("hdkey: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// HDKey holds the raw BIP-39 seed. It derives every account and key lazily
// from this seed — nothing else is cached or persisted.
type HDKey struct {
	seed []byte
}

// New generates a fresh 128-bit-entropy (12-word) mnemonic and derives its
// seed with an empty BIP-39 passphrase.
func New() (*HDKey, error) {
	return NewWithEntropy(128)
}

// NewWithEntropy generates a fresh mnemonic at the given entropy bit count
// (128, 160, 192, 224, or 256, per BIP-39) and derives its seed.
func NewWithEntropy(bits int) (*HDKey, error) {
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return nil, &Error{Kind: ErrInvalidMnemonic, Err: err}
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, &Error{Kind: ErrInvalidMnemonic, Err: err}
	}
	return FromMnemonic(mnemonic)
}

// FromMnemonic derives an HDKey's seed from a BIP-39 mnemonic phrase, with
// an empty passphrase.
func FromMnemonic(mnemonic string) (*HDKey, error) {
	if mnemonic == "" {
		return nil, &Error{Kind: ErrInvalidMnemonic, Err: fmt.Errorf("mnemonic is empty")}
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, &Error{Kind: ErrInvalidMnemonic, Err: fmt.Errorf("mnemonic failed checksum validation")}
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, &Error{Kind: ErrInvalidMnemonic, Err: err}
	}
	return &HDKey{seed: seed}, nil
}

// FromSeedBytes wraps an already-derived seed directly.
func FromSeedBytes(seed []byte) *HDKey {
	cpy := make([]byte, len(seed))
	copy(cpy, seed)
	return &HDKey{seed: cpy}
}

// IdentityType satisfies identity.GenericIdentity.
func (k *HDKey) IdentityType() string { return "HDKey" }

// Serialize returns the raw seed bytes, for sealing inside a Vault.
func (k *HDKey) Serialize() []byte {
	cpy := make([]byte, len(k.seed))
	copy(cpy, k.seed)
	return cpy
}

// Deserialize replaces this HDKey's seed with the given bytes.
func (k *HDKey) Deserialize(b []byte) error {
	if len(b) == 0 {
		return &Error{Kind: ErrHDKeyGeneric, Err: fmt.Errorf("empty seed bytes")}
	}
	k.seed = make([]byte, len(b))
	copy(k.seed, b)
	return nil
}

// New satisfies identity.Initializable by generating a fresh random 64-byte
// seed (not a mnemonic-backed one, so there is no user-facing mnemonic for
// it).
func (k *HDKey) New() (identity.GenericIdentity, error) {
	seed := make([]byte, 64)
	if _, err := rand.Read(seed); err != nil {
		return nil, &Error{Kind: ErrHDKeyGeneric, Err: err}
	}
	return &HDKey{seed: seed}, nil
}

// Destroy zeroes the seed in place. Called by vault.Vault.Lock once the
// identity has been sealed, so the plaintext seed doesn't linger.
func (k *HDKey) Destroy() {
	for i := range k.seed {
		k.seed[i] = 0
	}
}

func (k *HDKey) deriveECDSAPrivateKey(index uint32) (*ecdsa.PrivateKey, error) {
	masterKey, err := hdkeychain.NewMaster(k.seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, &Error{Kind: ErrWrongDerivationPath, Err: err}
	}

	key := masterKey
	path := append(append([]uint32{}, pathPrefix...), index)
	for _, n := range path {
		key, err = key.Child(n)
		if err != nil {
			return nil, &Error{Kind: ErrWrongDerivationPath, Err: err}
		}
	}

	privKey, err := key.ECPrivKey()
	if err != nil {
		return nil, &Error{Kind: ErrWrongDerivationPath, Err: err}
	}
	return privKey.ToECDSA(), nil
}

// PrivateKeyAt returns the raw 32-byte private scalar at the given index.
func (k *HDKey) PrivateKeyAt(index uint32) ([]byte, error) {
	priv, err := k.deriveECDSAPrivateKey(index)
	if err != nil {
		return nil, err
	}
	return crypto.FromECDSA(priv), nil
}

// PublicKeyAt returns the 33-byte compressed public key at the given index.
func (k *HDKey) PublicKeyAt(index uint32) ([]byte, error) {
	priv, err := k.deriveECDSAPrivateKey(index)
	if err != nil {
		return nil, err
	}
	return compressPublicKey(&priv.PublicKey), nil
}

// AccountAt derives the Account (address + compressed public key) at index.
// The address is the last 20 bytes of the Keccak-256 hash of the
// uncompressed public key, formatted as lowercase 0x-prefixed hex — no
// EIP-55 checksum casing.
func (k *HDKey) AccountAt(index uint32) (identity.Account[uint32], error) {
	priv, err := k.deriveECDSAPrivateKey(index)
	if err != nil {
		return identity.Account[uint32]{}, err
	}

	ethAddress := crypto.PubkeyToAddress(priv.PublicKey)
	address, err := identity.FromPublicKeyAddress(ethAddress.Bytes())
	if err != nil {
		return identity.Account[uint32]{}, &Error{Kind: ErrHDKeyGeneric, Err: err}
	}

	return identity.Account[uint32]{
		Address:   address,
		PublicKey: compressPublicKey(&priv.PublicKey),
		Path:      index,
	}, nil
}

// Sign produces a DER-encoded ECDSA signature over the SHA-256 digest of
// message, using the private key at account.Path.
func (k *HDKey) Sign(account identity.Account[uint32], message []byte) ([]byte, error) {
	priv, err := k.deriveECDSAPrivateKey(account.Path)
	if err != nil {
		return nil, err
	}

	btcPriv := btcec.PrivKeyFromBytes(crypto.FromECDSA(priv))
	digest := sha256.Sum256(message)
	sig := btcecdsa.Sign(btcPriv, digest[:])
	return sig.Serialize(), nil
}

// Verify checks a compact 64-byte (r||s) signature over the SHA-256 digest
// of message against account's public key.
func (k *HDKey) Verify(account identity.Account[uint32], message, signature []byte) error {
	if len(signature) != 64 {
		return &Error{Kind: ErrInvalidSignature, Err: fmt.Errorf("want 64-byte compact signature, got %d bytes", len(signature))}
	}

	pubKey, err := btcec.ParsePubKey(account.PublicKey)
	if err != nil {
		return &Error{Kind: ErrInvalidPrivateKey, Err: err}
	}

	var r, s btcec.ModNScalar
	if overflow := r.SetByteSlice(signature[:32]); overflow {
		return &Error{Kind: ErrInvalidSignature, Err: fmt.Errorf("r overflows the group order")}
	}
	if overflow := s.SetByteSlice(signature[32:]); overflow {
		return &Error{Kind: ErrInvalidSignature, Err: fmt.Errorf("s overflows the group order")}
	}

	digest := sha256.Sum256(message)
	sig := btcecdsa.NewSignature(&r, &s)
	if !sig.Verify(digest[:], pubKey) {
		return &Error{Kind: ErrInvalidSignature, Err: fmt.Errorf("signature does not verify")}
	}
	return nil
}

// compressPublicKey encodes an ECDSA public key in SEC1 compressed form:
// a one-byte parity prefix followed by the 32-byte X coordinate.
func compressPublicKey(pub *ecdsa.PublicKey) []byte {
	out := make([]byte, 33)
	if pub.Y.Bit(0) == 0 {
		out[0] = 0x02
	} else {
		out[0] = 0x03
	}
	xBytes := pub.X.Bytes()
	copy(out[33-len(xBytes):], xBytes)
	return out
}
