package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// OperatorRepository answers questions about back-office operator accounts.
type OperatorRepository struct {
	db *sqlx.DB
}

// NewOperatorRepository constructs the repository.
func NewOperatorRepository(db *sqlx.DB) *OperatorRepository {
	return &OperatorRepository{db: db}
}

// IsActiveOperator reports whether id names an existing, enabled operator.
func (r *OperatorRepository) IsActiveOperator(ctx context.Context, id int64) (bool, error) {
	var active bool
	if err := r.db.GetContext(ctx, &active, `SELECT active FROM operators WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup operator: %w", err)
	}
	return active, nil
}
