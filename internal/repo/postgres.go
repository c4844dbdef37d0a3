package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/trip-ledger/internal/domain"
)

// collectionRowID is the primary key of the single row holding the document.
const collectionRowID = 1

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgCollectionRepo is the Postgres implementation of CollectionRepo.
// The collection lives in one jsonb row of the trip_collection table.
type pgCollectionRepo struct {
	db db
}

// NewPostgresCollectionRepo constructs a CollectionRepo backed by the provided
// db connection. In production pass *pgxpool.Pool; in tests pass a pgx.Tx for
// rollback isolation.
func NewPostgresCollectionRepo(db db) CollectionRepo {
	return &pgCollectionRepo{db: db}
}

// Load reads the collection document. An absent row is an empty collection.
func (r *pgCollectionRepo) Load(ctx context.Context) ([]domain.Trip, error) {
	const q = `SELECT document FROM trip_collection WHERE id = @id`

	var doc []byte
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": collectionRowID}).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.Trip{}, nil
		}
		return nil, fmt.Errorf("repo.PostgresCollectionRepo.Load: %w", err)
	}

	trips, err := decodeCollection(doc)
	if err != nil {
		return trips, fmt.Errorf("repo.PostgresCollectionRepo.Load: %w", err)
	}
	return trips, nil
}

// Save upserts the collection document in a single statement.
func (r *pgCollectionRepo) Save(ctx context.Context, trips []domain.Trip) error {
	const q = `
		INSERT INTO trip_collection (id, document)
		VALUES (@id, @document)
		ON CONFLICT (id) DO UPDATE
		SET document   = EXCLUDED.document,
		    updated_at = now()`

	data, err := encodeCollection(trips)
	if err != nil {
		return fmt.Errorf("repo.PostgresCollectionRepo.Save: encode: %w", err)
	}

	args := pgx.NamedArgs{
		"id":       collectionRowID,
		"document": string(data),
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.PostgresCollectionRepo.Save: %w", err)
	}
	return nil
}
