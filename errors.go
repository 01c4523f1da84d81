package keychain

import "fmt"

// ErrorKind enumerates the ways a Keychain operation can fail.
type ErrorKind int

const (
	_ ErrorKind = iota
	ErrVaultError
	ErrKeyNotFoundForAddress
	ErrKeyNotFoundForIndex
	ErrByteSerializationError
	ErrByteDeserializationError
)

// Error is the typed error returned by this package. errors.As recovers it;
// Unwrap reaches the wrapped cause for ErrVaultError.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrVaultError:
		return fmt.Sprintf("keychain: vault error: %v", e.Err)
	case ErrKeyNotFoundForAddress:
		return fmt.Sprintf("keychain: no key found for address %s", e.Msg)
	case ErrKeyNotFoundForIndex:
		return fmt.Sprintf("keychain: no key found for index %s", e.Msg)
	case ErrByteSerializationError:
		return "keychain: byte serialization error"
	case ErrByteDeserializationError:
		return fmt.Sprintf("keychain: byte deserialization error: %s", e.Msg)
	default:
		return "keychain: unknown error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

func wrapVaultError(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrVaultError, Err: err}
}
