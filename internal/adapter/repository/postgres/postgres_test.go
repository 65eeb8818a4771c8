package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shrimpli/internal/entity"
)

func TestIsShortCodeCollision(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "short code unique violation",
			err:  &pgconn.PgError{Code: uniqueViolationErrCode, ConstraintName: shortCodeConstraint},
			want: true,
		},
		{
			name: "wrapped short code unique violation",
			err:  fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: uniqueViolationErrCode, ConstraintName: shortCodeConstraint}),
			want: true,
		},
		{
			name: "unique violation on another constraint",
			err:  &pgconn.PgError{Code: uniqueViolationErrCode, ConstraintName: "urls_pkey"},
			want: false,
		},
		{
			name: "not null violation",
			err:  &pgconn.PgError{Code: "23502", ConstraintName: shortCodeConstraint},
			want: false,
		},
		{
			name: "not PgError",
			err:  errors.New("unknown error"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isShortCodeCollision(tt.err))
		})
	}
}

// codeSequence returns a generator yielding codes in order, repeating the last one.
func codeSequence(codes ...string) func() string {
	i := 0
	return func() string {
		code := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return code
	}
}

type URLRepositoryTestSuite struct {
	suite.Suite
	errUnknown   error
	errCollision error
	columns      []string
	createdAt    time.Time
	collisions   []string
	mock         sqlmock.Sqlmock
	repo         *URLRepository
}

func (suite *URLRepositoryTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
	suite.errCollision = &pgconn.PgError{Code: uniqueViolationErrCode, ConstraintName: shortCodeConstraint}
	suite.columns = []string{"id", "short_code", "original_url", "clicks", "created_at"}
	suite.createdAt = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
}

func (suite *URLRepositoryTestSuite) SetupSubTest() {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		suite.T().Fatalf("Failed to create mock database: %v", err)
	}
	suite.T().Cleanup(func() {
		mockDB.Close()
	})

	db := sqlx.NewDb(mockDB, "sqlmock")

	suite.collisions = nil
	suite.mock = mock
	suite.repo = NewURLRepository(db,
		WithCodeGenerator(codeSequence("abc123", "def456", "ghi789")),
		WithCollisionHook(func(shortCode string) {
			suite.collisions = append(suite.collisions, shortCode)
		}),
	)
}

func (suite *URLRepositoryTestSuite) TearDownSubTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
}

func (suite *URLRepositoryTestSuite) TestCreateShortURL() {
	suite.Run("unknown error is not retried", func() {
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abc123", "https://example.com").
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.CreateShortURL(context.Background(), "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.NotErrorIs(err, entity.ErrShortCodeExists)
		suite.Nil(url)
		suite.Empty(suite.collisions)
	})

	suite.Run("unrelated unique violation is not retried", func() {
		pgErr := &pgconn.PgError{Code: uniqueViolationErrCode, ConstraintName: "urls_pkey"}

		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abc123", "https://example.com").
			WillReturnError(pgErr)

		url, err := suite.repo.CreateShortURL(context.Background(), "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, pgErr)
		suite.Nil(url)
		suite.Empty(suite.collisions)
	})

	suite.Run("collisions are retried with new codes", func() {
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abc123", "https://example.com").
			WillReturnError(suite.errCollision)
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("def456", "https://example.com").
			WillReturnError(suite.errCollision)

		rows := sqlmock.NewRows(suite.columns).
			AddRow(1, "ghi789", "https://example.com", 0, suite.createdAt)

		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("ghi789", "https://example.com").
			WillReturnRows(rows)

		url, err := suite.repo.CreateShortURL(context.Background(), "https://example.com")

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal("ghi789", url.ShortCode)
		suite.Equal([]string{"abc123", "def456"}, suite.collisions)
	})

	suite.Run("error after collision is returned", func() {
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abc123", "https://example.com").
			WillReturnError(suite.errCollision)
		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("def456", "https://example.com").
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.CreateShortURL(context.Background(), "https://example.com")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
		suite.Equal([]string{"abc123"}, suite.collisions)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(1, "abc123", "https://example.com", 0, suite.createdAt)

		suite.mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("abc123", "https://example.com").
			WillReturnRows(rows)

		url, err := suite.repo.CreateShortURL(context.Background(), "https://example.com")

		suite.NoError(err)
		suite.Equal(&entity.URL{
			ID:          1,
			ShortCode:   "abc123",
			OriginalURL: "https://example.com",
			Clicks:      0,
			CreatedAt:   suite.createdAt,
		}, url)
	})
}

func (suite *URLRepositoryTestSuite) TestFindByCode() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls`).
			WithArgs("abc123").
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.FindByCode(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM urls`).
			WithArgs("abc123").
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.FindByCode(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.NotErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(1, "abc123", "https://example.com", 7, suite.createdAt)

		suite.mock.ExpectQuery(`SELECT (.+) FROM urls`).
			WithArgs("abc123").
			WillReturnRows(rows)

		url, err := suite.repo.FindByCode(context.Background(), "abc123")

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal("abc123", url.ShortCode)
		suite.Equal("https://example.com", url.OriginalURL)
		suite.Equal(int64(7), url.Clicks)
	})
}

func (suite *URLRepositoryTestSuite) TestIncrementClicksAndFetch() {
	suite.Run("url not found", func() {
		suite.mock.ExpectQuery(`UPDATE urls\s+SET clicks = clicks \+ 1\s+WHERE short_code = \$1\s+RETURNING`).
			WithArgs("abc123").
			WillReturnError(sql.ErrNoRows)

		url, err := suite.repo.IncrementClicksAndFetch(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`UPDATE urls\s+SET clicks = clicks \+ 1\s+WHERE short_code = \$1\s+RETURNING`).
			WithArgs("abc123").
			WillReturnError(suite.errUnknown)

		url, err := suite.repo.IncrementClicksAndFetch(context.Background(), "abc123")

		suite.Error(err)
		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(suite.columns).
			AddRow(1, "abc123", "https://example.com", 1, suite.createdAt)

		suite.mock.ExpectQuery(`UPDATE urls\s+SET clicks = clicks \+ 1\s+WHERE short_code = \$1\s+RETURNING`).
			WithArgs("abc123").
			WillReturnRows(rows)

		url, err := suite.repo.IncrementClicksAndFetch(context.Background(), "abc123")

		suite.NoError(err)
		suite.NotNil(url)
		suite.Equal("https://example.com", url.OriginalURL)
		suite.Equal(int64(1), url.Clicks)
	})
}

func TestURLRepository(t *testing.T) {
	suite.Run(t, new(URLRepositoryTestSuite))
}
