package storage

import "errors"

// Store keys.
const (
	KeyTimers  = "stopwatches"
	KeyHistory = "history"
)

// ErrMalformedData marks a stored value that could not be decoded. It is
// logged and recovered from, never returned to callers of Load*.
var ErrMalformedData = errors.New("malformed persisted data")

// Store is a persistent string-keyed, string-valued blob store.
type Store interface {
	// Load returns "" when the key is absent.
	Load(key string) (string, error)
	Save(key, value string) error
	Remove(key string) error
}
