package keychain

// Package keychain provides a hierarchical, password-protected collection
// of BIP-39/BIP-32 key identities.
//
// The layering is: Safe (internal/safe) seals arbitrary bytes under a
// password-derived key; Vault (internal/vault) wraps a single identity,
// sealing it into a Safe when locked; HDKey (internal/hdkey) is the one
// identity this module ships, deriving SECP256K1 accounts from a BIP-39
// seed; Keychain (this package) holds an ordered collection of
// Vault-wrapped HDKeys and exposes a single password covering backup and
// restore of the whole collection.
//
// Logging: listener panics inside a Keychain's Observable are recovered
// and logged via the standard log package (see internal/observable),
// never propagated to the caller that triggered the state change.
