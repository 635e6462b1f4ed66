package service

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/demand-desk-api/internal/dto"
	"github.com/noah-isme/demand-desk-api/internal/models"
	appErrors "github.com/noah-isme/demand-desk-api/pkg/errors"
)

type demandStore interface {
	Create(ctx context.Context, demand *models.Demand) error
	GetByID(ctx context.Context, id int64) (*models.Demand, error)
	GetOwned(ctx context.Context, id, userID int64) (*models.Demand, error)
	List(ctx context.Context, filter models.DemandFilter) ([]models.Demand, int, error)
}

type statusHistory interface {
	History(ctx context.Context, demandID int64) ([]models.DemandStatusLog, error)
}

type lifecycleEngine interface {
	Transition(ctx context.Context, demandID int64, status models.DemandStatus, actor *int64, remark string) (*models.TransitionResult, error)
}

type catalogValidator interface {
	ValidateSelection(ctx context.Context, gradeID, subjectID int64) error
}

// Notifier receives committed demand events for live delivery. Delivery is best-effort
// so implementations report nothing back.
type Notifier interface {
	PublishNewDemand(ctx context.Context, demand models.Demand)
	PublishStatusChange(ctx context.Context, result models.TransitionResult)
}

// DemandService orchestrates submissions, owner queries and operator status updates.
type DemandService struct {
	store     demandStore
	history   statusHistory
	engine    lifecycleEngine
	catalog   catalogValidator
	notifier  Notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// DemandServiceOption configures the service.
type DemandServiceOption func(*DemandService)

// WithCatalogValidator checks grade and subject references on submission.
func WithCatalogValidator(catalog catalogValidator) DemandServiceOption {
	return func(s *DemandService) {
		s.catalog = catalog
	}
}

// WithNotifier sets the live notification sink.
func WithNotifier(notifier Notifier) DemandServiceOption {
	return func(s *DemandService) {
		s.notifier = notifier
	}
}

// NewDemandService constructs the service with defaults.
func NewDemandService(store demandStore, history statusHistory, engine lifecycleEngine, validate *validator.Validate, logger *zap.Logger, opts ...DemandServiceOption) *DemandService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	svc := &DemandService{
		store:     store,
		history:   history,
		engine:    engine,
		validator: validate,
		logger:    logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

// Submit stores a new PENDING demand for userID and announces it to operators.
func (s *DemandService) Submit(ctx context.Context, userID int64, req dto.CreateDemandRequest) (*models.Demand, error) {
	req.LocationAddress = strings.TrimSpace(req.LocationAddress)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}
	if s.catalog != nil {
		if err := s.catalog.ValidateSelection(ctx, req.GradeID, req.SubjectID); err != nil {
			return nil, err
		}
	}

	demand := &models.Demand{
		UserID:          userID,
		GradeID:         req.GradeID,
		SubjectID:       req.SubjectID,
		LocationAddress: req.LocationAddress,
		HourlyPrice:     req.HourlyPrice,
	}
	if err := s.store.Create(ctx, demand); err != nil {
		s.logger.Error("create demand failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil, storeUnavailable(err)
	}

	if loaded, err := s.store.GetByID(ctx, demand.ID); err == nil {
		demand = loaded
	} else {
		s.logger.Warn("reload created demand failed", zap.Int64("demand_id", demand.ID), zap.Error(err))
	}

	if s.notifier != nil {
		s.notifier.PublishNewDemand(ctx, *demand)
	}
	return demand, nil
}

// ListMine returns the caller's demands, newest first.
func (s *DemandService) ListMine(ctx context.Context, userID int64, page, limit int) ([]models.Demand, models.Pagination, error) {
	return s.list(ctx, models.DemandFilter{UserID: &userID, Page: page, Limit: limit})
}

// ListAll returns demands for operators with optional status and free-text filters.
func (s *DemandService) ListAll(ctx context.Context, query dto.DemandQuery) ([]models.Demand, models.Pagination, error) {
	filter := models.DemandFilter{Page: query.Page, Limit: query.Limit, Search: query.Search}
	if status := strings.TrimSpace(query.Status); status != "" && !strings.EqualFold(status, "all") {
		filter.Status = models.DemandStatus(strings.ToUpper(status))
		if !filter.Status.Valid() {
			return nil, models.Pagination{}, appErrors.Clone(appErrors.ErrInvalidStatus, "status must be one of "+statusList())
		}
	}
	return s.list(ctx, filter)
}

func (s *DemandService) list(ctx context.Context, filter models.DemandFilter) ([]models.Demand, models.Pagination, error) {
	filter = filter.Normalize()
	demands, total, err := s.store.List(ctx, filter)
	if err != nil {
		s.logger.Error("list demands failed", zap.Error(err))
		return nil, models.Pagination{}, storeUnavailable(err)
	}
	return demands, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// GetOwned returns a demand of userID with its status history, oldest entry first.
func (s *DemandService) GetOwned(ctx context.Context, id, userID int64) (*models.Demand, error) {
	demand, err := s.store.GetOwned(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "demand not found")
		}
		return nil, storeUnavailable(err)
	}
	history, err := s.history.History(ctx, demand.ID)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	demand.StatusLogs = history
	return demand, nil
}

// History returns the status history of any demand for operators.
func (s *DemandService) History(ctx context.Context, id int64) ([]models.DemandStatusLog, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "demand not found")
		}
		return nil, storeUnavailable(err)
	}
	history, err := s.history.History(ctx, id)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return history, nil
}

// UpdateStatus applies an operator transition and notifies the demand owner.
func (s *DemandService) UpdateStatus(ctx context.Context, id int64, req dto.UpdateDemandStatusRequest, operatorID *int64) (*models.TransitionResult, error) {
	result, err := s.engine.Transition(ctx, id, req.Status, operatorID, req.Remark)
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.PublishStatusChange(ctx, *result)
	}
	return result, nil
}

func storeUnavailable(err error) error {
	return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, appErrors.ErrStoreUnavailable.Message)
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid demand payload"
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			messages = append(messages, fe.Field()+" is required")
		case "gt":
			messages = append(messages, fe.Field()+" must be greater than "+fe.Param())
		case "lt":
			messages = append(messages, fe.Field()+" must be less than "+fe.Param())
		case "max":
			messages = append(messages, fe.Field()+" is too long")
		default:
			messages = append(messages, fe.Field()+" is invalid")
		}
	}
	return strings.Join(messages, "; ")
}
