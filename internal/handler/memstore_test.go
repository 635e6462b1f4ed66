package handler

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/demand-desk-api/internal/models"
	"github.com/noah-isme/demand-desk-api/internal/repository"
)

// memStore is an in-memory stand-in for the demand and status log repositories.
type memStore struct {
	mu      sync.Mutex
	demands map[int64]models.Demand
	logs    []models.DemandStatusLog
	nextID  int64
}

func newMemStore() *memStore {
	return &memStore{demands: make(map[int64]models.Demand)}
}

func (s *memStore) Create(ctx context.Context, demand *models.Demand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	demand.ID = s.nextID
	demand.Status = models.DemandStatusPending
	demand.CreatedAt = time.Now().UTC()
	demand.UpdatedAt = demand.CreatedAt
	s.demands[demand.ID] = *demand
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id int64) (*models.Demand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	demand, ok := s.demands[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &demand, nil
}

func (s *memStore) GetOwned(ctx context.Context, id, userID int64) (*models.Demand, error) {
	demand, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if demand.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return demand, nil
}

func (s *memStore) List(ctx context.Context, filter models.DemandFilter) ([]models.Demand, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]models.Demand, 0, len(s.demands))
	for _, demand := range s.demands {
		if filter.UserID != nil && demand.UserID != *filter.UserID {
			continue
		}
		if filter.Status != "" && demand.Status != filter.Status {
			continue
		}
		matched = append(matched, demand)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *memStore) History(ctx context.Context, demandID int64) ([]models.DemandStatusLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]models.DemandStatusLog, 0)
	for _, entry := range s.logs {
		if entry.DemandID == demandID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *memStore) ApplyTransition(ctx context.Context, params repository.TransitionParams) (*models.TransitionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	demand, ok := s.demands[params.DemandID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	now := time.Now().UTC()
	old := demand.Status
	demand.Status = params.Status
	demand.UpdatedAt = now
	s.demands[demand.ID] = demand
	s.logs = append(s.logs, models.DemandStatusLog{
		ID:         int64(len(s.logs) + 1),
		DemandID:   demand.ID,
		OldStatus:  old,
		NewStatus:  params.Status,
		OperatorID: params.OperatorID,
		Remark:     params.Remark,
		CreatedAt:  now,
	})
	return &models.TransitionResult{
		DemandID:    demand.ID,
		OwnerUserID: demand.UserID,
		OldStatus:   old,
		NewStatus:   params.Status,
		OperatorID:  params.OperatorID,
		Remark:      params.Remark,
		ChangedAt:   now,
	}, nil
}

func (s *memStore) logCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}
