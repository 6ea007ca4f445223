// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/MKhiriev/go-audio-vault/internal/config"
	"github.com/MKhiriev/go-audio-vault/internal/logger"
)

// DB wraps the SQL handle together with the error classifier used to decide
// whether a failed query deserves a second attempt.
type DB struct {
	*sql.DB
	classifier *PostgresErrorClassifier
	logger     *logger.Logger
}

// NewConnectPostgres opens and pings the credentials database.
func NewConnectPostgres(ctx context.Context, cfg config.Credentials, log *logger.Logger) (*DB, error) {
	conn, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error occured during database connection")
		return nil, fmt.Errorf("error occured during database connection: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(4)

	if err := conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error connecting database (ping)")
		return nil, err
	}
	log.Info().Str("func", "NewConnectPostgres").Msg("connected to database successfully")

	return &DB{
		DB:         conn,
		classifier: NewPostgresErrorClassifier(),
		logger:     log,
	}, nil
}

// postgresProvider is the PostgreSQL-backed implementation of [Provider]
// against the "credentials" table.
type postgresProvider struct {
	db     *DB
	logger *logger.Logger
	sb     sq.StatementBuilderType
}

// NewPostgresProvider constructs a [Provider] backed by the provided
// database connection and logger.
func NewPostgresProvider(db *DB, log *logger.Logger) Provider {
	log.Debug().Msg("creating credentials provider")
	return &postgresProvider{
		db:     db,
		logger: log,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (p *postgresProvider) Resolve(ctx context.Context, passphrase string) (string, error) {
	query, args, err := p.sb.
		Select("principal").
		From("credentials").
		Where(sq.Eq{"passphrase": passphrase}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build resolve query: %w", err)
	}

	var principal string
	if err := p.queryOne(ctx, query, args, &principal); err != nil {
		return "", err
	}
	return principal, nil
}

func (p *postgresProvider) Lookup(ctx context.Context, principal string) (string, error) {
	query, args, err := p.sb.
		Select("passphrase").
		From("credentials").
		Where(sq.Eq{"principal": principal}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build lookup query: %w", err)
	}

	var passphrase string
	if err := p.queryOne(ctx, query, args, &passphrase); err != nil {
		return "", err
	}
	return passphrase, nil
}

// queryOne runs a single-row lookup, retrying once when the classifier
// deems the failure transient. [sql.ErrNoRows] becomes
// [ErrUnknownCredentials]; query text and arguments are never logged since
// both may contain a passphrase.
func (p *postgresProvider) queryOne(ctx context.Context, query string, args []any, dst *string) error {
	log := logger.FromContext(ctx)

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = p.db.QueryRowContext(ctx, query, args...).Scan(dst)
		if err == nil {
			return nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUnknownCredentials
		}
		if p.db.classifier.Classify(err) != Retryable {
			break
		}
		log.Warn().Str("func", "*postgresProvider.queryOne").Msg("transient database error, retrying lookup")
	}

	log.Err(err).Str("func", "*postgresProvider.queryOne").Msg("error: credentials lookup failed")
	return fmt.Errorf("unexpected DB error: %w", err)
}
