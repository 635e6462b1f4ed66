package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/demand-desk-api/internal/models"
)

const demandSelect = `SELECT d.id, d.user_id, d.grade_id, d.subject_id, d.location_address, d.hourly_price, d.status,
       d.created_at, d.updated_at, g.name AS grade_name, s.name AS subject_name,
       u.nickname AS user_nickname, u.phone AS user_phone
FROM demands d
JOIN grades g ON g.id = d.grade_id
JOIN subjects s ON s.id = d.subject_id
JOIN users u ON u.id = d.user_id`

const demandFromClause = `FROM demands d
JOIN grades g ON g.id = d.grade_id
JOIN subjects s ON s.id = d.subject_id
JOIN users u ON u.id = d.user_id`

// DemandRepository persists demands and applies status transitions.
type DemandRepository struct {
	db *sqlx.DB
}

// NewDemandRepository constructs the repository.
func NewDemandRepository(db *sqlx.DB) *DemandRepository {
	return &DemandRepository{db: db}
}

// Create inserts a new demand in the PENDING state.
func (r *DemandRepository) Create(ctx context.Context, demand *models.Demand) error {
	demand.Status = models.DemandStatusPending
	now := time.Now().UTC()
	if demand.CreatedAt.IsZero() {
		demand.CreatedAt = now
	}
	demand.UpdatedAt = demand.CreatedAt

	const query = `INSERT INTO demands (user_id, grade_id, subject_id, location_address, hourly_price, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		demand.UserID,
		demand.GradeID,
		demand.SubjectID,
		demand.LocationAddress,
		demand.HourlyPrice,
		demand.Status,
		demand.CreatedAt,
		demand.UpdatedAt,
	).Scan(&demand.ID)
	if err != nil {
		return fmt.Errorf("create demand: %w", err)
	}
	return nil
}

// GetByID fetches a demand with its catalog and submitter names.
func (r *DemandRepository) GetByID(ctx context.Context, id int64) (*models.Demand, error) {
	var demand models.Demand
	if err := r.db.GetContext(ctx, &demand, demandSelect+` WHERE d.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get demand: %w", err)
	}
	return &demand, nil
}

// GetOwned fetches a demand only when it belongs to userID.
func (r *DemandRepository) GetOwned(ctx context.Context, id, userID int64) (*models.Demand, error) {
	var demand models.Demand
	if err := r.db.GetContext(ctx, &demand, demandSelect+` WHERE d.id = $1 AND d.user_id = $2`, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get owned demand: %w", err)
	}
	return &demand, nil
}

// List returns the requested page of demands, newest first, and the total match count.
func (r *DemandRepository) List(ctx context.Context, filter models.DemandFilter) ([]models.Demand, int, error) {
	filter = filter.Normalize()

	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conditions = append(conditions, fmt.Sprintf("d.user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("d.status = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(u.phone ILIKE $%[1]d OR u.nickname ILIKE $%[1]d OR d.location_address ILIKE $%[1]d OR g.name ILIKE $%[1]d OR s.name ILIKE $%[1]d)", n))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+demandFromClause+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count demands: %w", err)
	}

	query := fmt.Sprintf("%s%s ORDER BY d.created_at DESC, d.id DESC LIMIT %d OFFSET %d",
		demandSelect, where, filter.Limit, filter.Offset())
	demands := make([]models.Demand, 0, filter.Limit)
	if err := r.db.SelectContext(ctx, &demands, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list demands: %w", err)
	}
	return demands, total, nil
}

// TransitionParams groups the inputs of a status transition.
type TransitionParams struct {
	DemandID   int64
	Status     models.DemandStatus
	OperatorID *int64
	Remark     *string
}

// ApplyTransition locks the demand row, updates its status and appends the matching
// status log entry in one transaction. It returns sql.ErrNoRows for unknown demands.
func (r *DemandRepository) ApplyTransition(ctx context.Context, params TransitionParams) (result *models.TransitionResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin demand transition: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current struct {
		UserID int64               `db:"user_id"`
		Status models.DemandStatus `db:"status"`
	}
	const lockQuery = `SELECT user_id, status FROM demands WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &current, lockQuery, params.DemandID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock demand: %w", err)
	}

	// Taken after the row lock so entries for one demand never go backwards in time.
	now := time.Now().UTC()
	const updateQuery = `UPDATE demands SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err = tx.ExecContext(ctx, updateQuery, params.Status, now, params.DemandID); err != nil {
		return nil, fmt.Errorf("update demand status: %w", err)
	}

	entry := &models.DemandStatusLog{
		DemandID:   params.DemandID,
		OldStatus:  current.Status,
		NewStatus:  params.Status,
		OperatorID: params.OperatorID,
		Remark:     params.Remark,
		CreatedAt:  now,
	}
	if err = appendStatusLog(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit demand transition: %w", err)
	}

	return &models.TransitionResult{
		DemandID:    params.DemandID,
		OwnerUserID: current.UserID,
		OldStatus:   current.Status,
		NewStatus:   params.Status,
		OperatorID:  params.OperatorID,
		Remark:      params.Remark,
		ChangedAt:   now,
	}, nil
}
