package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/demand-desk-api/internal/dto"
	"github.com/noah-isme/demand-desk-api/internal/models"
	appErrors "github.com/noah-isme/demand-desk-api/pkg/errors"
)

type demandStoreStub struct {
	created   []models.Demand
	byID      map[int64]models.Demand
	lastQuery models.DemandFilter
	listErr   error
	createErr error
	history   []models.DemandStatusLog
}

func newDemandStoreStub() *demandStoreStub {
	return &demandStoreStub{byID: make(map[int64]models.Demand)}
}

func (s *demandStoreStub) Create(ctx context.Context, demand *models.Demand) error {
	if s.createErr != nil {
		return s.createErr
	}
	demand.ID = int64(len(s.created) + 1)
	demand.Status = models.DemandStatusPending
	s.created = append(s.created, *demand)
	stored := *demand
	stored.SubjectName = "Math"
	s.byID[demand.ID] = stored
	return nil
}

func (s *demandStoreStub) GetByID(ctx context.Context, id int64) (*models.Demand, error) {
	demand, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &demand, nil
}

func (s *demandStoreStub) GetOwned(ctx context.Context, id, userID int64) (*models.Demand, error) {
	demand, ok := s.byID[id]
	if !ok || demand.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return &demand, nil
}

func (s *demandStoreStub) List(ctx context.Context, filter models.DemandFilter) ([]models.Demand, int, error) {
	s.lastQuery = filter
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	return []models.Demand{{ID: 1}}, 21, nil
}

func (s *demandStoreStub) History(ctx context.Context, demandID int64) ([]models.DemandStatusLog, error) {
	return s.history, nil
}

type engineStub struct {
	result *models.TransitionResult
	err    error
}

func (e engineStub) Transition(ctx context.Context, demandID int64, status models.DemandStatus, actor *int64, remark string) (*models.TransitionResult, error) {
	return e.result, e.err
}

type catalogValidatorStub struct {
	err error
}

func (c catalogValidatorStub) ValidateSelection(ctx context.Context, gradeID, subjectID int64) error {
	return c.err
}

type notifierStub struct {
	newDemands []models.Demand
	changes    []models.TransitionResult
}

func (n *notifierStub) PublishNewDemand(ctx context.Context, demand models.Demand) {
	n.newDemands = append(n.newDemands, demand)
}

func (n *notifierStub) PublishStatusChange(ctx context.Context, result models.TransitionResult) {
	n.changes = append(n.changes, result)
}

func validRequest() dto.CreateDemandRequest {
	return dto.CreateDemandRequest{GradeID: 1, SubjectID: 2, LocationAddress: " Elm St ", HourlyPrice: 120}
}

func TestDemandServiceSubmit(t *testing.T) {
	store := newDemandStoreStub()
	notifier := &notifierStub{}
	svc := NewDemandService(store, store, engineStub{}, nil, nil, WithNotifier(notifier), WithCatalogValidator(catalogValidatorStub{}))

	demand, err := svc.Submit(context.Background(), 42, validRequest())
	require.NoError(t, err)
	assert.Equal(t, models.DemandStatusPending, demand.Status)
	assert.Equal(t, "Elm St", demand.LocationAddress)
	assert.Equal(t, "Math", demand.SubjectName)
	require.Len(t, notifier.newDemands, 1)
	assert.Equal(t, demand.ID, notifier.newDemands[0].ID)
}

func TestDemandServiceSubmitValidation(t *testing.T) {
	store := newDemandStoreStub()
	notifier := &notifierStub{}
	svc := NewDemandService(store, store, engineStub{}, nil, nil, WithNotifier(notifier))

	req := validRequest()
	req.HourlyPrice = 0
	req.LocationAddress = "   "
	_, err := svc.Submit(context.Background(), 42, req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Message, "locationAddress is required")
	assert.Contains(t, appErr.Message, "hourlyPrice is required")
	assert.Empty(t, store.created)
	assert.Empty(t, notifier.newDemands)
}

func TestDemandServiceSubmitRejectsPriceBeyondColumnRange(t *testing.T) {
	store := newDemandStoreStub()
	svc := NewDemandService(store, store, engineStub{}, nil, nil)

	req := validRequest()
	req.HourlyPrice = 1e9
	_, err := svc.Submit(context.Background(), 42, req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, appErr.Message, "hourlyPrice must be less than 100000000")
	assert.Empty(t, store.created)

	req.HourlyPrice = 99999999.99
	_, err = svc.Submit(context.Background(), 42, req)
	require.NoError(t, err)
}

func TestDemandServiceSubmitUnknownCatalogEntry(t *testing.T) {
	store := newDemandStoreStub()
	svc := NewDemandService(store, store, engineStub{}, nil, nil,
		WithCatalogValidator(catalogValidatorStub{err: appErrors.Clone(appErrors.ErrValidation, "unknown subject 2")}))

	_, err := svc.Submit(context.Background(), 42, validRequest())
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, store.created)
}

func TestDemandServiceSubmitStoreFailure(t *testing.T) {
	store := newDemandStoreStub()
	store.createErr = errors.New("insert failed")
	svc := NewDemandService(store, store, engineStub{}, nil, nil)

	_, err := svc.Submit(context.Background(), 42, validRequest())
	assert.ErrorIs(t, err, appErrors.ErrStoreUnavailable)
}

func TestDemandServiceListAllStatusFilter(t *testing.T) {
	store := newDemandStoreStub()
	svc := NewDemandService(store, store, engineStub{}, nil, nil)

	_, pagination, err := svc.ListAll(context.Background(), dto.DemandQuery{Status: "matched", Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, models.DemandStatusMatched, store.lastQuery.Status)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.Equal(t, 2, pagination.Page)

	_, _, err = svc.ListAll(context.Background(), dto.DemandQuery{Status: "all"})
	require.NoError(t, err)
	assert.Empty(t, store.lastQuery.Status)
	assert.Equal(t, 10, store.lastQuery.Limit)

	_, _, err = svc.ListAll(context.Background(), dto.DemandQuery{Status: "LOST"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidStatus)
}

func TestDemandServiceListMineScopesToUser(t *testing.T) {
	store := newDemandStoreStub()
	svc := NewDemandService(store, store, engineStub{}, nil, nil)

	_, _, err := svc.ListMine(context.Background(), 42, 0, 500)
	require.NoError(t, err)
	require.NotNil(t, store.lastQuery.UserID)
	assert.Equal(t, int64(42), *store.lastQuery.UserID)
	assert.Equal(t, 100, store.lastQuery.Limit)
	assert.Equal(t, 1, store.lastQuery.Page)
}

func TestDemandServiceGetOwned(t *testing.T) {
	store := newDemandStoreStub()
	store.byID[5] = models.Demand{ID: 5, UserID: 42, Status: models.DemandStatusMatched}
	store.history = []models.DemandStatusLog{{DemandID: 5, OldStatus: models.DemandStatusPending, NewStatus: models.DemandStatusMatched}}
	svc := NewDemandService(store, store, engineStub{}, nil, nil)

	demand, err := svc.GetOwned(context.Background(), 5, 42)
	require.NoError(t, err)
	require.Len(t, demand.StatusLogs, 1)

	_, err = svc.GetOwned(context.Background(), 5, 7)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDemandServiceHistoryUnknownDemand(t *testing.T) {
	store := newDemandStoreStub()
	svc := NewDemandService(store, store, engineStub{}, nil, nil)

	_, err := svc.History(context.Background(), 99)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDemandServiceUpdateStatusNotifiesOwner(t *testing.T) {
	store := newDemandStoreStub()
	notifier := &notifierStub{}
	result := &models.TransitionResult{DemandID: 5, OwnerUserID: 42, OldStatus: models.DemandStatusPending, NewStatus: models.DemandStatusMatched}
	svc := NewDemandService(store, store, engineStub{result: result}, nil, nil, WithNotifier(notifier))

	operator := int64(1)
	got, err := svc.UpdateStatus(context.Background(), 5, dto.UpdateDemandStatusRequest{Status: models.DemandStatusMatched}, &operator)
	require.NoError(t, err)
	assert.Equal(t, result, got)
	require.Len(t, notifier.changes, 1)
	assert.Equal(t, int64(42), notifier.changes[0].OwnerUserID)
}

func TestDemandServiceUpdateStatusFailureSkipsNotification(t *testing.T) {
	store := newDemandStoreStub()
	notifier := &notifierStub{}
	svc := NewDemandService(store, store, engineStub{err: appErrors.Clone(appErrors.ErrNotFound, "demand not found")}, nil, nil, WithNotifier(notifier))

	_, err := svc.UpdateStatus(context.Background(), 999999, dto.UpdateDemandStatusRequest{Status: models.DemandStatusMatched}, nil)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Empty(t, notifier.changes)
}
