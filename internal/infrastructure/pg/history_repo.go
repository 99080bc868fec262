package pg

import (
	"context"

	"ratesync-service/internal/application"
	"ratesync-service/internal/domain"
	"ratesync-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

// HistoryRepo stores one row per successful rate fetch.
type HistoryRepo struct{ db *DB }

var _ application.HistoryRepo = (*HistoryRepo)(nil)

func NewHistoryRepo(db *DB) *HistoryRepo { return &HistoryRepo{db: db} }

func (r *HistoryRepo) AppendHistory(ctx context.Context, h domain.QuoteHistory) error {
	const ins = `
        INSERT INTO rate_history(pair, price, quoted_at, source)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (pair, quoted_at, source) DO NOTHING`
	log := logx.L().With(
		zap.String("repo", "rate_history"),
		zap.String("operation", "AppendHistory"),
		zap.String("pair", string(h.Pair)),
	)
	tag, err := r.db.Pool.Exec(ctx, ins, string(h.Pair), h.Price, h.QuotedAt, h.Source)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	log.Debug("sql.exec_success", zap.Int64("rows_affected", tag.RowsAffected()))
	return nil
}

// ListHistory returns the newest rows for pair, newest first.
func (r *HistoryRepo) ListHistory(ctx context.Context, pair string, limit int) ([]domain.QuoteHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
        SELECT id, pair, price::float8, quoted_at, source, inserted_at
        FROM rate_history
        WHERE pair = $1
        ORDER BY quoted_at DESC
        LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, pair, limit)
	if err != nil {
		logx.L().Error("sql.query_failed", zap.String("repo", "rate_history"), zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	var out []domain.QuoteHistory
	for rows.Next() {
		var h domain.QuoteHistory
		var p string
		if err := rows.Scan(&h.ID, &p, &h.Price, &h.QuotedAt, &h.Source, &h.InsertedAt); err != nil {
			return nil, err
		}
		h.Pair = domain.Pair(p)
		out = append(out, h)
	}
	return out, rows.Err()
}
