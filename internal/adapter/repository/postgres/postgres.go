package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shrimpli/internal/entity"
	"github.com/vadimbarashkov/shrimpli/internal/shortcode"
)

const (
	uniqueViolationErrCode = "23505"
	shortCodeConstraint    = "urls_short_code_key"
)

// isShortCodeCollision reports whether err is a unique violation on the
// short_code constraint. Other unique violations are not collisions.
func isShortCodeCollision(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == uniqueViolationErrCode &&
		pgErr.ConstraintName == shortCodeConstraint
}

type urlDB struct {
	ID          int64     `db:"id"`
	ShortCode   string    `db:"short_code"`
	OriginalURL string    `db:"original_url"`
	Clicks      int64     `db:"clicks"`
	CreatedAt   time.Time `db:"created_at"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ID:          u.ID,
		ShortCode:   u.ShortCode,
		OriginalURL: u.OriginalURL,
		Clicks:      u.Clicks,
		CreatedAt:   u.CreatedAt,
	}
}

type Option func(*URLRepository)

// WithCodeGenerator replaces shortcode.Generate.
func WithCodeGenerator(generate func() string) Option {
	return func(r *URLRepository) {
		r.generate = generate
	}
}

// WithCollisionHook registers fn to be called with every discarded code.
func WithCollisionHook(fn func(shortCode string)) Option {
	return func(r *URLRepository) {
		r.onCollision = fn
	}
}

type URLRepository struct {
	db          *sqlx.DB
	generate    func() string
	onCollision func(shortCode string)
}

func NewURLRepository(db *sqlx.DB, opts ...Option) *URLRepository {
	r := &URLRepository{
		db:          db,
		generate:    shortcode.Generate,
		onCollision: func(string) {},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// CreateShortURL stores originalURL under a freshly generated short code.
// A collision with an existing code is retried with a new code until the
// insert succeeds; any other error is returned as is.
func (r *URLRepository) CreateShortURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.CreateShortURL"

	for {
		shortCode := r.generate()

		url, err := r.save(ctx, shortCode, originalURL)
		if err == nil {
			return url, nil
		}

		if !errors.Is(err, entity.ErrShortCodeExists) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		r.onCollision(shortCode)
	}
}

func (r *URLRepository) save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const query = `INSERT INTO urls (short_code, original_url)
		VALUES ($1, $2)
		RETURNING id, short_code, original_url, clicks, created_at`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode, originalURL); err != nil {
		if isShortCodeCollision(err) {
			return nil, entity.ErrShortCodeExists
		}

		return nil, fmt.Errorf("failed to insert into urls table: %w", err)
	}

	return url.toEntity(), nil
}

// FindByCode returns the URL stored under shortCode or entity.ErrURLNotFound.
func (r *URLRepository) FindByCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.FindByCode"
	const query = `SELECT id, short_code, original_url, clicks, created_at
		FROM urls
		WHERE short_code = $1`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w", op, err)
	}

	return url.toEntity(), nil
}

// IncrementClicksAndFetch adds one click to shortCode and returns the updated
// row in a single statement. Unknown codes yield entity.ErrURLNotFound and
// nothing is written.
func (r *URLRepository) IncrementClicksAndFetch(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.IncrementClicksAndFetch"
	const query = `UPDATE urls
		SET clicks = clicks + 1
		WHERE short_code = $1
		RETURNING id, short_code, original_url, clicks, created_at`

	var url urlDB

	if err := r.db.GetContext(ctx, &url, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to update urls table row: %w", op, err)
	}

	return url.toEntity(), nil
}
