package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/demand-desk-api/internal/models"
	appErrors "github.com/noah-isme/demand-desk-api/pkg/errors"
)

const (
	subjectsCacheKey = "subjects:all"
	gradesCacheKey   = "grades:all"
)

type catalogStore interface {
	ListGrades(ctx context.Context) ([]models.Grade, error)
	ListSubjects(ctx context.Context) ([]models.Subject, error)
}

// CatalogService serves the grade and subject lists, read through the Redis cache.
type CatalogService struct {
	repo   catalogStore
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService constructs the service. cache may be nil.
func NewCatalogService(repo catalogStore, cache *CacheService, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// ListGrades returns every grade in display order.
func (s *CatalogService) ListGrades(ctx context.Context) ([]models.Grade, error) {
	grades, err := remember(ctx, s.cache, gradesCacheKey, s.ttl, s.repo.ListGrades)
	if err != nil {
		s.logger.Error("load grades failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load grades")
	}
	return grades, nil
}

// ListSubjects returns the active subjects in display order.
func (s *CatalogService) ListSubjects(ctx context.Context) ([]models.Subject, error) {
	subjects, err := remember(ctx, s.cache, subjectsCacheKey, s.ttl, s.repo.ListSubjects)
	if err != nil {
		s.logger.Error("load subjects failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load subjects")
	}
	return subjects, nil
}

// ValidateSelection checks that the grade exists and the subject is active.
func (s *CatalogService) ValidateSelection(ctx context.Context, gradeID, subjectID int64) error {
	grades, err := s.ListGrades(ctx)
	if err != nil {
		return err
	}
	if !containsGrade(grades, gradeID) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown grade %d", gradeID))
	}
	subjects, err := s.ListSubjects(ctx)
	if err != nil {
		return err
	}
	if !containsSubject(subjects, subjectID) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown subject %d", subjectID))
	}
	return nil
}

// Invalidate drops the cached grade and subject lists.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	for _, key := range []string{gradesCacheKey, subjectsCacheKey} {
		if err := s.cache.Invalidate(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func containsGrade(grades []models.Grade, id int64) bool {
	for _, g := range grades {
		if g.ID == id {
			return true
		}
	}
	return false
}

func containsSubject(subjects []models.Subject, id int64) bool {
	for _, subject := range subjects {
		if subject.ID == id {
			return true
		}
	}
	return false
}
