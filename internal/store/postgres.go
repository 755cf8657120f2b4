package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlink/internal/shortener"
)

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed URL store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Exists(ctx context.Context, code shortener.Code) (bool, error) {
	var exists bool

	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM short_urls WHERE code = $1)`,
		string(code),
	).Scan(&exists)

	return exists, err
}

func (p *PostgresStore) Get(ctx context.Context, code shortener.Code) (*shortener.URLRecord, error) {
	query := `
		SELECT code, original_url, created_at, expires_at, validity_minutes
		FROM short_urls
		WHERE code = $1
	`

	var record shortener.URLRecord

	err := p.pool.QueryRow(ctx, query, string(code)).Scan(
		&record.Code,
		&record.OriginalURL,
		&record.CreatedAt,
		&record.ExpiresAt,
		&record.ValidityMinutes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	record.CreatedAt = record.CreatedAt.UTC()
	record.ExpiresAt = record.ExpiresAt.UTC()

	return &record, nil
}

func (p *PostgresStore) Put(ctx context.Context, record *shortener.URLRecord) error {
	query := `
		INSERT INTO short_urls (code, original_url, created_at, expires_at, validity_minutes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			original_url = EXCLUDED.original_url,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at,
			validity_minutes = EXCLUDED.validity_minutes
	`

	_, err := p.pool.Exec(ctx, query,
		string(record.Code),
		record.OriginalURL,
		record.CreatedAt,
		record.ExpiresAt,
		record.ValidityMinutes,
	)

	return err
}

// Analytics reads the counter and the clicks from one snapshot.
func (p *PostgresStore) Analytics(ctx context.Context, code shortener.Code) (*shortener.Analytics, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	analytics := shortener.EmptyAnalytics()

	err = tx.QueryRow(ctx,
		`SELECT total_clicks FROM short_urls WHERE code = $1`,
		string(code),
	).Scan(&analytics.TotalClicks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return analytics, nil
		}

		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT clicked_at, referrer, user_agent, location
		FROM url_clicks
		WHERE code = $1
		ORDER BY id
	`, string(code))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var click shortener.ClickRecord
		if err := rows.Scan(&click.Timestamp, &click.Referrer, &click.UserAgent, &click.Location); err != nil {
			return nil, err
		}

		click.Timestamp = click.Timestamp.UTC()
		analytics.Clicks = append(analytics.Clicks, click)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return analytics, tx.Commit(ctx)
}

func (p *PostgresStore) AppendClick(ctx context.Context, code shortener.Code, click shortener.ClickRecord) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO url_clicks (code, clicked_at, referrer, user_agent, location)
		VALUES ($1, $2, $3, $4, $5)
	`, string(code), click.Timestamp, click.Referrer, click.UserAgent, click.Location)
	if err != nil {
		return fmt.Errorf("insert click: %w", err)
	}

	if _, err = tx.Exec(ctx,
		`UPDATE short_urls SET total_clicks = total_clicks + 1 WHERE code = $1`,
		string(code),
	); err != nil {
		return fmt.Errorf("increment clicks: %w", err)
	}

	return tx.Commit(ctx)
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
