package correlation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/selivandex/sentiment-lab/pkg/logger"
	"github.com/selivandex/sentiment-lab/pkg/models"
)

// ErrNotFound is returned when no stored correlation matches the query
var ErrNotFound = errors.New("correlation not found")

// Repository handles database operations for correlation results
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new correlation repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// SaveResults stores the results of one pipeline run in a single transaction
func (r *Repository) SaveResults(ctx context.Context, runID uuid.UUID, results []models.CorrelationResult) ([]models.StoredCorrelation, error) {
	if len(results) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO correlation_results
		(id, run_id, stock, pearson_r, pearson_p, spearman_r, spearman_p, sample_size, slope, intercept, calculated_at)
		VALUES (:id, :run_id, :stock, :pearson_r, :pearson_p, :spearman_r, :spearman_p, :sample_size, :slope, :intercept, :calculated_at)
	`

	now := time.Now().UTC()
	stored := make([]models.StoredCorrelation, 0, len(results))
	for _, res := range results {
		row := models.StoredCorrelation{
			CorrelationResult: res,
			ID:                uuid.New(),
			RunID:             runID,
			CalculatedAt:      now,
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return nil, fmt.Errorf("failed to save correlation for %s: %w", res.Stock, err)
		}
		stored = append(stored, row)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("saved correlation results",
		zap.String("run_id", runID.String()),
		zap.Int("count", len(stored)),
	)

	return stored, nil
}

// GetByRun retrieves all results of a run ordered by stock
func (r *Repository) GetByRun(ctx context.Context, runID uuid.UUID) ([]models.StoredCorrelation, error) {
	query := `
		SELECT id, run_id, stock, pearson_r, pearson_p, spearman_r, spearman_p, sample_size, slope, intercept, calculated_at
		FROM correlation_results
		WHERE run_id = $1
		ORDER BY stock
	`

	var rows []models.StoredCorrelation
	if err := r.db.SelectContext(ctx, &rows, query, runID); err != nil {
		return nil, fmt.Errorf("failed to get correlations: %w", err)
	}

	return rows, nil
}

// GetLatest retrieves the most recent result for a stock
func (r *Repository) GetLatest(ctx context.Context, stock string) (*models.StoredCorrelation, error) {
	query := `
		SELECT id, run_id, stock, pearson_r, pearson_p, spearman_r, spearman_p, sample_size, slope, intercept, calculated_at
		FROM correlation_results
		WHERE stock = $1
		ORDER BY calculated_at DESC
		LIMIT 1
	`

	var row models.StoredCorrelation
	err := r.db.GetContext(ctx, &row, query, stock)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, stock)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get correlation: %w", err)
	}

	return &row, nil
}
