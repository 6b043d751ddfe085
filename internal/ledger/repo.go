package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
)

// Entry é uma linha do event_ledger
type Entry struct {
	Type        string
	Key         string
	Payload     json.RawMessage
	TsUnixMs    int64
	KafkaOffset int64
}

// PostgresRepo grava eventos de domínio no event_ledger
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	const q = `
		INSERT INTO event_ledger
		  (event_type, event_key, payload, ts_unix_ms, kafka_offset)
		VALUES
		  ($1,$2,$3,$4,$5)
	`
	_, err := r.DB.ExecContext(ctx, q, e.Type, e.Key, string(e.Payload), e.TsUnixMs, e.KafkaOffset)
	return err
}

// CountByType devolve quantos eventos de cada tipo já foram gravados
func (r *PostgresRepo) CountByType(ctx context.Context) (map[string]int64, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT event_type, count(*) FROM event_ledger GROUP BY event_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var typ string
		var n int64
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		out[typ] = n
	}
	return out, rows.Err()
}
