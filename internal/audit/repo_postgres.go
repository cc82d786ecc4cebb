package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// NOTE: This repository assumes an INSERT-only table:
//
//	CREATE TABLE auth_events (
//	  id         UUID PRIMARY KEY,
//	  type       TEXT NOT NULL,
//	  username   TEXT,
//	  actor      TEXT,
//	  ip_address TEXT,
//	  message    TEXT,
//	  created_at TIMESTAMPTZ NOT NULL
//	);

// PostgresRepo appends events to the auth_events table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO auth_events (id, type, username, actor, ip_address, message, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	_, err := r.db.ExecContext(ctx, q,
		e.ID,
		string(e.Type),
		e.Username,
		e.Actor,
		e.IPAddress,
		e.Message,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: append %s: %w", e.Type, err)
	}
	return nil
}
