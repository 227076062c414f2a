package infra

import (
	"context"
	"database/sql"
	"time"

	"github.com/abakusuz/paybot/internal/ports"
)

// PostgresStore keeps one row per uid. Upserts and updates are single
// statements, so mutations on a row are atomic at the engine level.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if err := migrate(db); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS subscriptions (
			uid    TEXT PRIMARY KEY,
			expiry TIMESTAMPTZ,
			note   TEXT NOT NULL DEFAULT ''
		)
	`)
	return err
}

func (s *PostgresStore) List(ctx context.Context) ([]ports.SubscriptionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uid, expiry, note FROM subscriptions
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.SubscriptionRecord
	for rows.Next() {
		var rec ports.SubscriptionRecord
		var expiry sql.NullTime
		if err := rows.Scan(&rec.UID, &expiry, &rec.Note); err != nil {
			return nil, err
		}
		if expiry.Valid {
			t := expiry.Time.UTC()
			rec.Expiry = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, uid string) (*ports.SubscriptionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT uid, expiry, note FROM subscriptions WHERE uid = $1
	`, uid)

	var rec ports.SubscriptionRecord
	var expiry sql.NullTime
	err := row.Scan(&rec.UID, &expiry, &rec.Note)
	if err == sql.ErrNoRows {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if expiry.Valid {
		t := expiry.Time.UTC()
		rec.Expiry = &t
	}
	return &rec, nil
}

func (s *PostgresStore) UpsertExpiry(ctx context.Context, uid string, expiry time.Time, note *string) error {
	if note != nil {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO subscriptions (uid, expiry, note)
			VALUES ($1, $2, $3)
			ON CONFLICT (uid) DO UPDATE SET expiry = EXCLUDED.expiry, note = EXCLUDED.note
		`, uid, expiry.UTC(), *note)
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (uid, expiry)
		VALUES ($1, $2)
		ON CONFLICT (uid) DO UPDATE SET expiry = EXCLUDED.expiry
	`, uid, expiry.UTC())
	return err
}

func (s *PostgresStore) UpdateExpiry(ctx context.Context, uid string, expiry time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions SET expiry = $1 WHERE uid = $2
	`, expiry.UTC(), uid)
	return oneRow(res, err)
}

func (s *PostgresStore) UpdateNote(ctx context.Context, uid string, note string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions SET note = $1 WHERE uid = $2
	`, note, uid)
	return oneRow(res, err)
}

func (s *PostgresStore) Delete(ctx context.Context, uid string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM subscriptions WHERE uid = $1
	`, uid)
	return oneRow(res, err)
}

func oneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}
