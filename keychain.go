package keychain

import (
	"fmt"

	"github.com/jasony/keychain-core/internal/hdkey"
	"github.com/jasony/keychain-core/internal/identity"
	"github.com/jasony/keychain-core/internal/observable"
	"github.com/jasony/keychain-core/internal/vault"
)

// KeychainState is the public, lock-safe projection a Keychain's Observable
// carries: the list of accounts callers have materialized via Update. Lock
// clears it; nothing else in this package writes to it.
type KeychainState struct {
	Accounts []identity.Account[uint32]
}

// Keychain is an ordered collection of password-protected HDKey-backed key
// pairs, with a single Observable projecting the currently-unlocked
// accounts.
type Keychain struct {
	keyPairs []KeyPair
	store    *observable.Observable[KeychainState]
}

// New creates an empty Keychain.
func New() *Keychain {
	return &Keychain{store: observable.New(KeychainState{})}
}

func newHDKeyZeroValue() *hdkey.HDKey {
	return &hdkey.HDKey{}
}

// AddMultiKeyPair constructs a new HDKey via factory (e.g. hdkey.New,
// hdkey.FromMnemonic bound to a caller-supplied mnemonic), wraps it in an
// unlocked Vault, and appends it to the keychain. It returns the identity
// so the caller can derive accounts from it immediately. The accounts
// projection is not touched here — the core never auto-populates it; a
// caller that wants an account reflected in GetState/Accounts derives it
// and calls Update itself.
func (k *Keychain) AddMultiKeyPair(factory func() (*hdkey.HDKey, error)) (*hdkey.HDKey, error) {
	v, err := vault.New(factory)
	if err != nil {
		return nil, wrapVaultError(err)
	}

	ident, err := v.Identity()
	if err != nil {
		return nil, wrapVaultError(err)
	}

	k.keyPairs = append(k.keyPairs, newMultiKeyPair(v))
	return ident, nil
}

// GetKeyPair returns the key pair at index i, or false if out of range.
func (k *Keychain) GetKeyPair(i int) (KeyPair, bool) {
	if i < 0 || i >= len(k.keyPairs) {
		return KeyPair{}, false
	}
	return k.keyPairs[i], true
}

// Lock seals every key pair's identity under password. The accounts
// projection is cleared up front, then every vault is locked in order;
// locking is not atomic across vaults — if one fails, the vaults already
// locked stay locked and the rest stay unlocked.
func (k *Keychain) Lock(password string) error {
	k.store.Update(func(s *KeychainState) { s.Accounts = nil })

	for _, kp := range k.keyPairs {
		if err := kp.vault.Lock([]byte(password)); err != nil {
			return wrapVaultError(err)
		}
	}
	return nil
}

// Unlock decrypts every key pair's identity under password, in order, not
// atomically: a failure partway through leaves earlier vaults unlocked.
// It does not repopulate the accounts projection — the caller chooses
// which accounts to materialize post-unlock, same as AddMultiKeyPair.
func (k *Keychain) Unlock(password string) error {
	for _, kp := range k.keyPairs {
		if err := kp.vault.Unlock([]byte(password), newHDKeyZeroValue); err != nil {
			return wrapVaultError(err)
		}
	}
	return nil
}

// Backup serializes every key pair under password and concatenates them
// into the fixed frame layout: length(1) | type(1) | inner bytes, per
// frame. A key pair that is already unlocked is transiently locked,
// serialized, and re-unlocked, so Backup never leaves the keychain's
// lock state changed; a key pair that is already locked is serialized
// directly, keeping its existing salt and nonce.
func (k *Keychain) Backup(password string) ([]byte, error) {
	var out []byte

	for _, kp := range k.keyPairs {
		wasUnlocked := kp.vault.IsUnlocked()
		if wasUnlocked {
			if err := kp.vault.Lock([]byte(password)); err != nil {
				return nil, wrapVaultError(err)
			}
		}

		raw, err := kp.toBytes()
		if err != nil {
			return nil, err
		}

		if wasUnlocked {
			if err := kp.vault.Unlock([]byte(password), newHDKeyZeroValue); err != nil {
				return nil, wrapVaultError(err)
			}
		}

		if len(raw) > 255 {
			return nil, &Error{Kind: ErrByteSerializationError, Msg: fmt.Sprintf("vault bytes length %d exceeds the 255-byte frame limit", len(raw))}
		}

		out = append(out, byte(len(raw)), multiKeyPairTag)
		out = append(out, raw...)
	}

	return out, nil
}

// Restore rebuilds a Keychain from a Backup blob, then unlocks it under
// password.
func Restore(backup []byte, password string) (*Keychain, error) {
	k := New()
	rest := backup

	for len(rest) > 0 {
		if len(rest) < 2 {
			return nil, &Error{Kind: ErrByteDeserializationError, Msg: "truncated frame header"}
		}
		length := int(rest[0])
		tag := rest[1]
		if len(rest) < 2+length {
			return nil, &Error{Kind: ErrByteDeserializationError, Msg: "truncated frame body"}
		}

		kp, err := keyPairFromBytes(tag, rest[2:2+length])
		if err != nil {
			return nil, err
		}
		k.keyPairs = append(k.keyPairs, kp)

		rest = rest[2+length:]
	}

	if err := k.Unlock(password); err != nil {
		return nil, err
	}
	return k, nil
}

// GetState returns the current KeychainState.
func (k *Keychain) GetState() KeychainState {
	return k.store.GetState()
}

// Update mutates the KeychainState in place and notifies subscribers.
func (k *Keychain) Update(fn func(*KeychainState)) {
	k.store.Update(fn)
}

// Subscribe registers a listener for state changes, returning its id.
func (k *Keychain) Subscribe(fn func(KeychainState)) int {
	return k.store.Subscribe(fn)
}

// Unsubscribe removes a previously registered listener.
func (k *Keychain) Unsubscribe(id int) {
	k.store.Unsubscribe(id)
}

// Accounts returns a copy of the currently-projected accounts list.
func (k *Keychain) Accounts() []identity.Account[uint32] {
	state := k.store.GetState()
	cpy := make([]identity.Account[uint32], len(state.Accounts))
	copy(cpy, state.Accounts)
	return cpy
}

// AccountByAddress scans the current accounts projection for addr.
func (k *Keychain) AccountByAddress(addr string) (identity.Account[uint32], error) {
	for _, account := range k.store.GetState().Accounts {
		if account.Address == addr {
			return account, nil
		}
	}
	return identity.Account[uint32]{}, &Error{Kind: ErrKeyNotFoundForAddress, Msg: addr}
}

// AccountByIndex returns the account at position index in the current
// accounts projection. The position is the order in which callers added
// accounts via Update; it is not a key-pair index or a derivation index.
func (k *Keychain) AccountByIndex(index int) (identity.Account[uint32], error) {
	accounts := k.store.GetState().Accounts
	if index < 0 || index >= len(accounts) {
		return identity.Account[uint32]{}, &Error{Kind: ErrKeyNotFoundForIndex, Msg: fmt.Sprintf("%d", index)}
	}
	return accounts[index], nil
}
