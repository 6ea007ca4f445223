package credentials

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-audio-vault/internal/logger"
)

func newMockProvider(t *testing.T) (Provider, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db := &DB{
		DB:         conn,
		classifier: NewPostgresErrorClassifier(),
		logger:     logger.Nop(),
	}
	return NewPostgresProvider(db, logger.Nop()), mock
}

func TestPostgresProvider_Resolve(t *testing.T) {
	p, mock := newMockProvider(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT principal FROM credentials WHERE passphrase = $1")).
		WithArgs("correct horse battery staple").
		WillReturnRows(sqlmock.NewRows([]string{"principal"}).AddRow("alice@example.com"))

	principal, err := p.Resolve(context.Background(), "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", principal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProvider_ResolveUnknown(t *testing.T) {
	p, mock := newMockProvider(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT principal FROM credentials WHERE passphrase = $1")).
		WithArgs("wrong").
		WillReturnError(sql.ErrNoRows)

	_, err := p.Resolve(context.Background(), "wrong")
	assert.True(t, errors.Is(err, ErrUnknownCredentials))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProvider_Lookup(t *testing.T) {
	p, mock := newMockProvider(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT passphrase FROM credentials WHERE principal = $1")).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"passphrase"}).AddRow("correct horse battery staple"))

	passphrase, err := p.Lookup(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "correct horse battery staple", passphrase)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProvider_LookupUnknown(t *testing.T) {
	p, mock := newMockProvider(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT passphrase FROM credentials WHERE principal = $1")).
		WithArgs("mallory@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := p.Lookup(context.Background(), "mallory@example.com")
	assert.True(t, errors.Is(err, ErrUnknownCredentials))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProvider_RetriesTransientError(t *testing.T) {
	p, mock := newMockProvider(t)

	query := regexp.QuoteMeta("SELECT passphrase FROM credentials WHERE principal = $1")
	mock.ExpectQuery(query).
		WithArgs("alice@example.com").
		WillReturnError(&pgconn.PgError{Code: "08006"}) // connection_failure
	mock.ExpectQuery(query).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"passphrase"}).AddRow("correct horse battery staple"))

	passphrase, err := p.Lookup(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "correct horse battery staple", passphrase)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresProvider_NonRetryableFailsFast(t *testing.T) {
	p, mock := newMockProvider(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT passphrase FROM credentials WHERE principal = $1")).
		WithArgs("alice@example.com").
		WillReturnError(&pgconn.PgError{Code: "42P01"}) // undefined_table

	_, err := p.Lookup(context.Background(), "alice@example.com")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownCredentials))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassifyPgError(t *testing.T) {
	tests := []struct {
		code string
		want ErrorClassification
	}{
		{code: "08006", want: Retryable},    // connection_failure
		{code: "40001", want: Retryable},    // serialization_failure
		{code: "40P01", want: Retryable},    // deadlock_detected
		{code: "57P03", want: Retryable},    // cannot_connect_now
		{code: "23505", want: NonRetryable}, // unique_violation
		{code: "42601", want: NonRetryable}, // syntax_error
		{code: "99999", want: NonRetryable},
	}
	for _, tt := range tests {
		got := ClassifyPgError(&pgconn.PgError{Code: tt.code})
		assert.Equalf(t, tt.want, got, "code %s", tt.code)
	}
}
