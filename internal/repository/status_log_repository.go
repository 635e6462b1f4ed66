package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/demand-desk-api/internal/models"
)

// StatusLogRepository reads the append-only demand status history.
type StatusLogRepository struct {
	db *sqlx.DB
}

// NewStatusLogRepository constructs the repository.
func NewStatusLogRepository(db *sqlx.DB) *StatusLogRepository {
	return &StatusLogRepository{db: db}
}

// History returns every transition of a demand, oldest first. Entries are ordered by
// id, which is drawn under the demand row lock, so host clock skew cannot reorder them.
func (r *StatusLogRepository) History(ctx context.Context, demandID int64) ([]models.DemandStatusLog, error) {
	const query = `SELECT id, demand_id, old_status, new_status, operator_id, remark, created_at
FROM demand_status_logs
WHERE demand_id = $1
ORDER BY id ASC`
	entries := make([]models.DemandStatusLog, 0)
	if err := r.db.SelectContext(ctx, &entries, query, demandID); err != nil {
		return nil, fmt.Errorf("list demand status history: %w", err)
	}
	return entries, nil
}

// appendStatusLog writes one entry inside the caller's transition transaction.
func appendStatusLog(ctx context.Context, q sqlx.QueryerContext, entry *models.DemandStatusLog) error {
	const query = `INSERT INTO demand_status_logs (demand_id, old_status, new_status, operator_id, remark, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	if err := sqlx.GetContext(ctx, q, &entry.ID, query,
		entry.DemandID,
		entry.OldStatus,
		entry.NewStatus,
		entry.OperatorID,
		entry.Remark,
		entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("append demand status log: %w", err)
	}
	return nil
}
