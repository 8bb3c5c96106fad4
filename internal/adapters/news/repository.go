package news

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-lab/pkg/logger"
	"github.com/selivandex/sentiment-lab/pkg/models"
)

// Repository handles database operations for news
type Repository struct {
	db     *sqlx.DB
	stocks []string
}

// NewRepository creates new news repository; a non-empty stocks list limits LoadNews
func NewRepository(db *sqlx.DB, stocks []string) *Repository {
	return &Repository{db: db, stocks: stocks}
}

// SaveNews inserts news records, skipping rows already stored.
// Returns the number of new rows.
func (r *Repository) SaveNews(ctx context.Context, records []models.NewsRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO news_items (stock, headline, url, publisher, published_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stock, published_at, headline) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	saved := 0
	for _, rec := range records {
		res, err := stmt.ExecContext(ctx, rec.Stock, rec.Headline, rec.URL, rec.Publisher, rec.Date)
		if err != nil {
			return 0, fmt.Errorf("failed to insert news for %s: %w", rec.Stock, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			saved += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("news saved",
		zap.Int("records", len(records)),
		zap.Int("new", saved),
	)

	return saved, nil
}

// LoadNews reads stored news ordered by stock and publication time
func (r *Repository) LoadNews(ctx context.Context) ([]models.NewsRecord, error) {
	query := `
		SELECT published_at, headline, url, publisher, stock
		FROM news_items
	`
	var args []interface{}
	if len(r.stocks) > 0 {
		query += " WHERE stock = ANY($1)"
		args = append(args, pq.Array(r.stocks))
	}
	query += " ORDER BY stock, published_at"

	var records []models.NewsRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load news: %w", err)
	}

	logger.Info("news loaded from database",
		zap.Int("records", len(records)),
		zap.Strings("stocks", r.stocks),
	)

	return records, nil
}
