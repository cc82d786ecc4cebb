package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dundie-api/pkg/utils"
)

// NOTE: This repository assumes the following table exists:
//
//	CREATE TABLE users (
//	  id         BIGSERIAL PRIMARY KEY,
//	  email      TEXT NOT NULL UNIQUE,
//	  username   TEXT NOT NULL UNIQUE,
//	  avatar     TEXT,
//	  bio        TEXT,
//	  password   TEXT NOT NULL,
//	  name       TEXT NOT NULL,
//	  dept       TEXT NOT NULL,
//	  currency   TEXT NOT NULL,
//	  superuser  BOOLEAN NOT NULL DEFAULT FALSE,
//	  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
// Existing rows are backfilled once with: UPDATE users SET superuser = (dept = 'management').

// PostgresRepo is a Store backed by database/sql (pgx stdlib driver).
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const userColumns = `id, email, username, avatar, bio, password, name, dept, currency, superuser, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		u      User
		avatar sql.NullString
		bio    sql.NullString
	)
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&avatar,
		&bio,
		&u.PasswordHash,
		&u.Name,
		&u.Dept,
		&u.Currency,
		&u.Superuser,
		&u.CreatedAt,
	); err != nil {
		return User{}, err
	}
	u.Avatar = avatar.String
	u.Bio = bio.String
	return u, nil
}

func (r *PostgresRepo) FindByUsername(ctx context.Context, username string) (User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	u, err := scanUser(r.db.QueryRowContext(ctx, q, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("users: find %q: %w", username, err)
	}
	return u, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]User, error) {
	const q = `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	out := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("users: list scan: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) Create(ctx context.Context, u User) (User, error) {
	const q = `
INSERT INTO users (email, username, avatar, bio, password, name, dept, currency, superuser)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id, created_at
`
	err := r.db.QueryRowContext(ctx, q,
		u.Email,
		u.Username,
		nullString(u.Avatar),
		nullString(u.Bio),
		u.PasswordHash,
		u.Name,
		u.Dept,
		u.Currency,
		u.Superuser,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if utils.IsUniqueViolation(err) {
			return User{}, ErrAlreadyExists
		}
		return User{}, fmt.Errorf("users: create %q: %w", u.Username, err)
	}
	return u, nil
}

// UpdatePassword replaces the stored hash. The row is locked first so a
// concurrent change for the same user is serialized.
func (r *PostgresRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	if passwordHash == "" {
		return ErrInvalidArgument
	}
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username = $1 FOR UPDATE`, username).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("users: lock %q: %w", username, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET password = $1 WHERE id = $2`, passwordHash, id); err != nil {
			return fmt.Errorf("users: update password %q: %w", username, err)
		}
		return nil
	})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
