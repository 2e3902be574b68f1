// Package ledger is the key/value persistence layer every marketplace
// component reads and writes through. Writes are durable only if the
// enclosing Update commits; any error aborts all writes made in that call.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned by typed readers when a key has no value.
var ErrKeyNotFound = errors.New("ledger key not found")

// Tx is the storage contract scoped to a single transaction.
type Tx interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// Ledger runs functions against transactional storage.
type Ledger interface {
	// Update runs fn in a read-write transaction. If fn returns an error
	// every write performed by fn is discarded.
	Update(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error
}

// GetJSON reads key and unmarshals it into out. Returns ErrKeyNotFound if
// the key has no value.
func GetJSON(tx Tx, key string, out any) error {
	raw, ok, err := tx.Get(key)
	if err != nil {
		return fmt.Errorf("getting %s: %w", key, err)
	}

	if !ok {
		return ErrKeyNotFound
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}

	return nil
}

// SetJSON marshals value and stores it under key.
func SetJSON(tx Tx, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	if err := tx.Set(key, raw); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}

	return nil
}
