package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/reelroom/backend/internal/db"
	"github.com/reelroom/backend/internal/models"
)

// PostgresWatchlistRepository keeps each user's watchlist document in a single
// row. Updates lock the row and bump its version inside a retried transaction,
// so concurrent mutations of the same user serialize instead of overwriting
// each other.
type PostgresWatchlistRepository struct {
	pool db.Pool
	now  func() time.Time
}

// NewPostgresWatchlistRepository constructs a watchlist repository backed by PostgreSQL.
func NewPostgresWatchlistRepository(pool db.Pool) *PostgresWatchlistRepository {
	return &PostgresWatchlistRepository{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Load returns the user's document or ErrNotFound.
func (r *PostgresWatchlistRepository) Load(ctx context.Context, userID string) (models.WatchlistDocument, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.WatchlistDocument{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	doc, err := selectDocument(ctx, conn, userID, false)
	if err != nil {
		return models.WatchlistDocument{}, err
	}
	return doc, nil
}

// Update applies fn to the user's document within a transaction. When the user
// has no document yet, a fresh one is created only if createMissing is set.
// The first committed write leaves the document at version 1.
func (r *PostgresWatchlistRepository) Update(ctx context.Context, userID string, createMissing bool, fn MutateFunc) (models.WatchlistDocument, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.WatchlistDocument{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var result models.WatchlistDocument
	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		// A version-0 placeholder gives first-time writers a row to lock, so
		// they queue behind each other instead of racing on the insert.
		if createMissing {
			if _, err := tx.Exec(ctx, `
                INSERT INTO watchlist_documents (user_id, watchlists, watchlist_timestamps, version, updated_at)
                VALUES ($1, '[]', '{}', 0, $2)
                ON CONFLICT (user_id) DO NOTHING
            `, userID, r.now()); err != nil {
				return fmt.Errorf("insert watchlist document: %w", err)
			}
		}

		doc, err := selectDocument(ctx, tx, userID, true)
		if err != nil {
			return err
		}

		if err := fn(&doc); err != nil {
			return err
		}

		lists, err := json.Marshal(doc.Watchlists)
		if err != nil {
			return fmt.Errorf("encode watchlists: %w", err)
		}
		stamps, err := json.Marshal(doc.Timestamps)
		if err != nil {
			return fmt.Errorf("encode watchlist timestamps: %w", err)
		}
		doc.UpdatedAt = r.now()

		tag, err := tx.Exec(ctx, `
            UPDATE watchlist_documents
            SET watchlists = $2, watchlist_timestamps = $3, version = version + 1, updated_at = $4
            WHERE user_id = $1 AND version = $5
        `, userID, lists, stamps, doc.UpdatedAt, doc.Version)
		if err != nil {
			return fmt.Errorf("update watchlist document: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrConflict
		}
		doc.Version++
		result = doc
		return nil
	})
	if err != nil {
		return models.WatchlistDocument{}, err
	}

	return result, nil
}

func selectDocument(ctx context.Context, q queryRower, userID string, forUpdate bool) (models.WatchlistDocument, error) {
	query := `
        SELECT watchlists, watchlist_timestamps, version, updated_at
        FROM watchlist_documents
        WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		lists  []byte
		stamps []byte
		doc    = models.WatchlistDocument{UserID: userID}
	)
	if err := q.QueryRow(ctx, query, userID).Scan(&lists, &stamps, &doc.Version, &doc.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.WatchlistDocument{}, ErrNotFound
		}
		return models.WatchlistDocument{}, fmt.Errorf("select watchlist document: %w", err)
	}

	if err := json.Unmarshal(lists, &doc.Watchlists); err != nil {
		return models.WatchlistDocument{}, fmt.Errorf("decode watchlists: %w", err)
	}
	if err := json.Unmarshal(stamps, &doc.Timestamps); err != nil {
		return models.WatchlistDocument{}, fmt.Errorf("decode watchlist timestamps: %w", err)
	}
	if doc.Watchlists == nil {
		doc.Watchlists = []models.Watchlist{}
	}
	if doc.Timestamps == nil {
		doc.Timestamps = make(map[string]time.Time)
	}
	for i := range doc.Watchlists {
		if doc.Watchlists[i].Media == nil {
			doc.Watchlists[i].Media = []models.MediaRef{}
		}
	}

	return doc, nil
}

var _ WatchlistRepository = (*PostgresWatchlistRepository)(nil)
