// Package storage persists monthly records, the shopping list and the
// application settings behind a small key-value Medium, and exposes them
// through the typed Accessor.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// Kind names one family of persisted records. Each kind lives in its own
// table, map or key namespace depending on the medium.
type Kind string

const (
	KindFinancial Kind = "financial"
	KindShopping  Kind = "shopping"
	KindSettings  Kind = "settings"
)

// AllKinds lists every record kind, used by ClearAll and the SQLite schema.
var AllKinds = []Kind{KindFinancial, KindShopping, KindSettings}

const (
	// ShoppingKey and SettingsKey are the keys of the two singleton records.
	ShoppingKey = "shopping"
	SettingsKey = "settings"
)

var (
	// ErrNotFound is returned by a Medium when the key is absent.
	ErrNotFound = errors.New("record not found")
	// ErrStorageUnavailable wraps every failure of the underlying medium.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrInvalidKind is returned for kinds outside AllKinds.
	ErrInvalidKind = errors.New("invalid record kind")
)

// Medium is the minimal capability a backing store must offer. Values are
// opaque serialized records.
type Medium interface {
	Get(ctx context.Context, kind Kind, key string) ([]byte, error)
	Set(ctx context.Context, kind Kind, key string, data []byte) error
	Delete(ctx context.Context, kind Kind, key string) error
	ListKeys(ctx context.Context, kind Kind) ([]string, error)
	Close() error
}

func (k Kind) Valid() bool {
	switch k {
	case KindFinancial, KindShopping, KindSettings:
		return true
	}
	return false
}

// singleton reports whether the kind holds exactly one record.
func (k Kind) singleton() bool {
	return k == KindShopping || k == KindSettings
}

// FlatKey renders the key used by flat key-value media:
// financial_<month>, shopping and settings.
func (k Kind) FlatKey(key string) string {
	if k.singleton() {
		return string(k)
	}
	return string(k) + "_" + key
}

func validateKind(k Kind) error {
	if !k.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
	return nil
}
