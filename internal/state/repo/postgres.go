package repo

import (
	"context"
	"database/sql"
	"errors"
)

// Postgres implementa o armazenamento chave-valor na tabela kv_state
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de estado
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Load retorna o blob gravado para a chave
func (p *Postgres) Load(ctx context.Context, key string) ([]byte, error) {
	var b []byte
	err := p.db.QueryRowContext(ctx, `SELECT value FROM kv_state WHERE key=$1`, key).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Save faz upsert do blob (substitui o valor anterior por inteiro)
func (p *Postgres) Save(ctx context.Context, key string, blob []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO kv_state (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, string(blob),
	)
	return err
}
