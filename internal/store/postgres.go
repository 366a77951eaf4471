package store

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/short-links/internal/shortener"
)

//go:embed schema.sql
var postgresSchema string

const uniqueViolation = "23505"

const linkColumns = `short_code, original_url, url_hash, custom_alias, owner_id,
	created_at, last_used_at, expires_at, clicks, is_active`

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the links table and its indexes if they do not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresSchema)

	return err
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (p *PostgresStore) Close() error {
	p.pool.Close()

	return nil
}

func (p *PostgresStore) Insert(ctx context.Context, link *shortener.Link) error {
	query := `
		INSERT INTO links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := p.pool.Exec(ctx, query,
		string(link.Code),
		link.OriginalURL,
		string(link.URLHash),
		nullable(link.CustomAlias),
		nullable(string(link.Owner)),
		link.CreatedAt,
		link.LastUsedAt,
		link.ExpiresAt,
		link.Clicks,
		link.Active,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return shortener.ErrCodeConflict
	}

	return err
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE short_code = $1
		ORDER BY is_active DESC, created_at DESC, id DESC
		LIMIT 1
	`

	link, err := scanLink(p.pool.QueryRow(ctx, query, string(code)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shortener.ErrNotFound
	}

	return link, err
}

func (p *PostgresStore) FindByURLHash(ctx context.Context, hash shortener.URLHash) ([]*shortener.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE url_hash = $1 AND is_active
		ORDER BY created_at
	`

	rows, err := p.pool.Query(ctx, query, string(hash))
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*shortener.Link, error) {
		return scanLink(row)
	})
}

func (p *PostgresStore) Update(
	ctx context.Context, code shortener.Code, update shortener.LinkUpdate,
) (*shortener.Link, error) {
	query := `
		UPDATE links SET
			original_url = COALESCE($2, original_url),
			url_hash = COALESCE($3, url_hash),
			expires_at = COALESCE($4, expires_at)
		WHERE short_code = $1 AND is_active
		RETURNING ` + linkColumns

	var urlHash *string
	if update.OriginalURL != nil {
		urlHash = nullable(string(update.URLHash))
	}

	link, err := scanLink(p.pool.QueryRow(ctx, query, string(code), update.OriginalURL, urlHash, update.ExpiresAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shortener.ErrNotFound
	}

	return link, err
}

func (p *PostgresStore) SoftDelete(ctx context.Context, code shortener.Code) (bool, error) {
	tag, err := p.pool.Exec(ctx,
		`UPDATE links SET is_active = FALSE WHERE short_code = $1 AND is_active`,
		string(code),
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (p *PostgresStore) IncrementClicks(ctx context.Context, code shortener.Code, at time.Time) error {
	query := `
		UPDATE links SET
			clicks = clicks + 1,
			last_used_at = GREATEST(COALESCE(last_used_at, $2), $2)
		WHERE short_code = $1 AND is_active
	`

	tag, err := p.pool.Exec(ctx, query, string(code), at)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) ListCodes(ctx context.Context) ([]shortener.Code, error) {
	rows, err := p.pool.Query(ctx, `SELECT short_code FROM links WHERE is_active`)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[shortener.Code])
}

func (p *PostgresStore) DeactivateExpired(ctx context.Context, now time.Time) ([]shortener.Code, error) {
	rows, err := p.pool.Query(ctx, `
		UPDATE links SET is_active = FALSE
		WHERE is_active AND expires_at IS NOT NULL AND expires_at <= $1
		RETURNING short_code
	`, now)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[shortener.Code])
}

func (p *PostgresStore) DeactivateUnused(ctx context.Context, cutoff time.Time) ([]shortener.Code, error) {
	rows, err := p.pool.Query(ctx, `
		UPDATE links SET is_active = FALSE
		WHERE is_active AND COALESCE(last_used_at, created_at) < $1
		RETURNING short_code
	`, cutoff)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[shortener.Code])
}

func scanLink(row pgx.Row) (*shortener.Link, error) {
	var (
		link        shortener.Link
		customAlias *string
		owner       *string
	)

	err := row.Scan(
		&link.Code,
		&link.OriginalURL,
		&link.URLHash,
		&customAlias,
		&owner,
		&link.CreatedAt,
		&link.LastUsedAt,
		&link.ExpiresAt,
		&link.Clicks,
		&link.Active,
	)
	if err != nil {
		return nil, err
	}

	if customAlias != nil {
		link.CustomAlias = *customAlias
	}

	if owner != nil {
		link.Owner = shortener.OwnerID(*owner)
	}

	return &link, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

var _ shortener.Repository = (*PostgresStore)(nil)
