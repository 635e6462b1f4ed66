package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/demand-desk-api/internal/models"
	"github.com/noah-isme/demand-desk-api/internal/repository"
	appErrors "github.com/noah-isme/demand-desk-api/pkg/errors"
)

type transitionStore interface {
	ApplyTransition(ctx context.Context, params repository.TransitionParams) (*models.TransitionResult, error)
}

// LifecycleService validates and commits demand status transitions. Any status may
// follow any other, including itself; every commit appends exactly one status log entry.
// Concurrent transitions on one demand serialize on the row lock and the last writer
// wins, with both entries kept in the history.
type LifecycleService struct {
	store   transitionStore
	metrics *MetricsService
	logger  *zap.Logger
}

// NewLifecycleService constructs the engine.
func NewLifecycleService(store transitionStore, metrics *MetricsService, logger *zap.Logger) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{store: store, metrics: metrics, logger: logger}
}

// Transition moves a demand to status. actor is the operator id, nil for system changes.
func (s *LifecycleService) Transition(ctx context.Context, demandID int64, status models.DemandStatus, actor *int64, remark string) (*models.TransitionResult, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "status must be one of "+statusList())
	}
	if demandID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "demand not found")
	}

	start := time.Now()
	result, err := s.store.ApplyTransition(ctx, repository.TransitionParams{
		DemandID:   demandID,
		Status:     status,
		OperatorID: actor,
		Remark:     optionalString(remark),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "demand not found")
		}
		s.logger.Error("demand transition failed", zap.Int64("demand_id", demandID), zap.String("status", string(status)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
	}

	s.metrics.ObserveTransition(string(result.OldStatus), string(result.NewStatus), time.Since(start))
	fields := []zap.Field{
		zap.Int64("demand_id", result.DemandID),
		zap.String("old_status", string(result.OldStatus)),
		zap.String("new_status", string(result.NewStatus)),
	}
	if actor != nil {
		fields = append(fields, zap.Int64("operator_id", *actor))
	}
	s.logger.Info("demand status changed", fields...)
	return result, nil
}

func statusList() string {
	names := make([]string, len(models.DemandStatuses))
	for i, status := range models.DemandStatuses {
		names[i] = string(status)
	}
	return strings.Join(names, ", ")
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}
