package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// Postgres stores ledger entries in a single keyed table, one SQL
// transaction per Update.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the ledger table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS ledger_entries (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating ledger schema: %w", err)
	}

	return nil
}

type pgTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *pgTx) Get(key string) ([]byte, bool, error) {
	var value []byte

	err := t.tx.QueryRowContext(t.ctx,
		`SELECT value FROM ledger_entries WHERE key = $1`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("reading ledger entry: %w", err)
	}

	return value, true, nil
}

func (t *pgTx) Set(key string, value []byte) error {
	query := `
		INSERT INTO ledger_entries (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := t.tx.ExecContext(t.ctx, query, key, value); err != nil {
		return fmt.Errorf("writing ledger entry: %w", err)
	}

	return nil
}

func (t *pgTx) Remove(key string) error {
	if _, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM ledger_entries WHERE key = $1`, key,
	); err != nil {
		return fmt.Errorf("removing ledger entry: %w", err)
	}

	return nil
}

func (p *Postgres) run(ctx context.Context, readOnly bool, fn func(tx Tx) error) error {
	dbTx, err := p.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("beginning ledger tx: %w", err)
	}
	defer dbTx.Rollback()

	if err := fn(&pgTx{ctx: ctx, tx: dbTx}); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing ledger tx: %w", err)
	}

	return nil
}

func (p *Postgres) Update(ctx context.Context, fn func(tx Tx) error) error {
	return p.run(ctx, false, fn)
}

func (p *Postgres) View(ctx context.Context, fn func(tx Tx) error) error {
	return p.run(ctx, true, fn)
}
