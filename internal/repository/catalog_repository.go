package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/demand-desk-api/internal/models"
)

// CatalogRepository reads grades and subjects.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListGrades returns all grades in display order.
func (r *CatalogRepository) ListGrades(ctx context.Context) ([]models.Grade, error) {
	grades := make([]models.Grade, 0)
	if err := r.db.SelectContext(ctx, &grades, `SELECT id, name, sort_order FROM grades ORDER BY sort_order ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// ListSubjects returns the active subjects in display order.
func (r *CatalogRepository) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	subjects := make([]models.Subject, 0)
	if err := r.db.SelectContext(ctx, &subjects, `SELECT id, name, sort_order FROM subjects WHERE active = TRUE ORDER BY sort_order ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}
