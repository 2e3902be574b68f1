package ledger

import (
	"context"
	"sync"
)

// Memory is an in-process Ledger used by tests and local runs. Updates stage
// writes in an overlay and apply them only when fn succeeds, matching the
// all-or-nothing guarantee of the Postgres implementation.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

type memoryTx struct {
	base    map[string][]byte
	staged  map[string][]byte
	removed map[string]struct{}
}

func (t *memoryTx) Get(key string) ([]byte, bool, error) {
	if _, gone := t.removed[key]; gone {
		return nil, false, nil
	}

	if v, ok := t.staged[key]; ok {
		return append([]byte(nil), v...), true, nil
	}

	v, ok := t.base[key]
	if !ok {
		return nil, false, nil
	}

	return append([]byte(nil), v...), true, nil
}

func (t *memoryTx) Set(key string, value []byte) error {
	delete(t.removed, key)
	t.staged[key] = append([]byte(nil), value...)

	return nil
}

func (t *memoryTx) Remove(key string) error {
	delete(t.staged, key)
	t.removed[key] = struct{}{}

	return nil
}

func (m *Memory) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{
		base:    m.data,
		staged:  make(map[string][]byte),
		removed: make(map[string]struct{}),
	}

	if err := fn(tx); err != nil {
		return err
	}

	for key := range tx.removed {
		delete(m.data, key)
	}

	for key, value := range tx.staged {
		m.data[key] = value
	}

	return nil
}

func (m *Memory) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{
		base:    m.data,
		staged:  make(map[string][]byte),
		removed: make(map[string]struct{}),
	}

	return fn(tx)
}
