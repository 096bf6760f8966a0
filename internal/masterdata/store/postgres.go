package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"scriba/internal/masterdata"
)

// PostgresProvider reads master records from the case database. The record
// lives as one jsonb document per case, mirroring the flat field map the
// intake application maintains.
type PostgresProvider struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresProvider {
	return &PostgresProvider{db: db}
}

func (p *PostgresProvider) Get(ctx context.Context, caseID string) (masterdata.Record, error) {
	var raw []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT data FROM master_records WHERE case_id = $1`, caseID,
	).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch master record: %w", err)
	}

	var rec masterdata.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode master record: %w", err)
	}
	return rec, nil
}

// Health verifies database connectivity.
func (p *PostgresProvider) Health(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
