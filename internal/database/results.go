package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/maltedev/amazon-search-ranker/internal/models"
	"github.com/maltedev/amazon-search-ranker/internal/storage"
)

const resultsSchema = `
	CREATE TABLE IF NOT EXISTS search_results (
		term                 TEXT NOT NULL,
		position             INTEGER NOT NULL,
		name                 TEXT NOT NULL,
		stars                DOUBLE PRECISION NOT NULL,
		review_count         INTEGER NOT NULL,
		discounted_price     DOUBLE PRECISION NOT NULL,
		original_price       DOUBLE PRECISION NOT NULL,
		currency             TEXT NOT NULL,
		image_url            TEXT NOT NULL,
		product_url          TEXT NOT NULL,
		discount_percent     DOUBLE PRECISION NOT NULL,
		popularity_score     DOUBLE PRECISION NOT NULL,
		inverse_price        DOUBLE PRECISION NOT NULL,
		discount_amount      DOUBLE PRECISION NOT NULL,
		inverse_price_norm   DOUBLE PRECISION NOT NULL,
		popularity_norm      DOUBLE PRECISION NOT NULL,
		discount_amount_norm DOUBLE PRECISION NOT NULL,
		saved_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (term, position)
	)`

var resultColumns = []string{
	"term", "position", "name", "stars", "review_count",
	"discounted_price", "original_price", "currency", "image_url", "product_url",
	"discount_percent", "popularity_score", "inverse_price", "discount_amount",
	"inverse_price_norm", "popularity_norm", "discount_amount_norm",
}

// ResultStore keeps the active result set in PostgreSQL. It implements
// storage.Store.
type ResultStore struct {
	db *DB
}

func NewResultStore(db *DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, resultsSchema); err != nil {
		return fmt.Errorf("failed to create search_results table: %w", err)
	}
	return nil
}

// Save replaces every stored row with records in one transaction.
func (s *ResultStore) Save(ctx context.Context, term string, records []models.ScoredRecord) error {
	key := storage.ArtifactName(term)
	if key == "" {
		return fmt.Errorf("search term is required")
	}

	return s.db.Transaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM search_results`); err != nil {
			return fmt.Errorf("failed to clear previous results: %w", err)
		}

		_, err := tx.CopyFrom(ctx, pgx.Identifier{"search_results"}, resultColumns,
			pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
				return resultRow(key, i, records[i]), nil
			}))
		if err != nil {
			return fmt.Errorf("failed to insert results: %w", err)
		}

		return nil
	})
}

func (s *ResultStore) Load(ctx context.Context, term string) ([]models.ScoredRecord, error) {
	query := `
		SELECT name, stars, review_count, discounted_price, original_price,
		       currency, image_url, product_url, discount_percent, popularity_score,
		       inverse_price, discount_amount, inverse_price_norm, popularity_norm,
		       discount_amount_norm
		FROM search_results
		WHERE term = $1
		ORDER BY position
	`

	rows, err := s.db.Query(ctx, query, storage.ArtifactName(term))
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	defer rows.Close()

	var records []models.ScoredRecord
	for rows.Next() {
		var r models.ScoredRecord
		err := rows.Scan(
			&r.Name, &r.Stars, &r.ReviewCount, &r.DiscountedPrice, &r.OriginalPrice,
			&r.Currency, &r.ImageURL, &r.ProductURL, &r.DiscountPercent, &r.PopularityScore,
			&r.InversePrice, &r.DiscountAmount, &r.InversePriceNorm, &r.PopularityNorm,
			&r.DiscountAmountNorm,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, term)
	}

	return records, nil
}

func resultRow(term string, position int, r models.ScoredRecord) []any {
	return []any{
		term, position, r.Name, r.Stars, r.ReviewCount,
		r.DiscountedPrice, r.OriginalPrice, r.Currency, r.ImageURL, r.ProductURL,
		r.DiscountPercent, r.PopularityScore, r.InversePrice, r.DiscountAmount,
		r.InversePriceNorm, r.PopularityNorm, r.DiscountAmountNorm,
	}
}
