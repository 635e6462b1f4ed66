package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/demand-desk-api/internal/dto"
	"github.com/noah-isme/demand-desk-api/internal/models"
	appErrors "github.com/noah-isme/demand-desk-api/pkg/errors"
	"github.com/noah-isme/demand-desk-api/pkg/response"
)

type demandWorkflow interface {
	Submit(ctx context.Context, userID int64, req dto.CreateDemandRequest) (*models.Demand, error)
	ListMine(ctx context.Context, userID int64, page, limit int) ([]models.Demand, models.Pagination, error)
	ListAll(ctx context.Context, query dto.DemandQuery) ([]models.Demand, models.Pagination, error)
	GetOwned(ctx context.Context, id, userID int64) (*models.Demand, error)
	History(ctx context.Context, id int64) ([]models.DemandStatusLog, error)
	UpdateStatus(ctx context.Context, id int64, req dto.UpdateDemandStatusRequest, operatorID *int64) (*models.TransitionResult, error)
}

// DemandHandler exposes submitter endpoints and the operator status update.
type DemandHandler struct {
	service demandWorkflow
}

// NewDemandHandler builds a new handler.
func NewDemandHandler(service demandWorkflow) *DemandHandler {
	return &DemandHandler{service: service}
}

// Create godoc
// @Summary Submit a tutoring demand
// @Tags Demands
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateDemandRequest true "Demand payload"
// @Success 201 {object} dto.DemandResponse
// @Failure 400 {object} response.Envelope
// @Router /demands [post]
func (h *DemandHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateDemandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid demand payload"))
		return
	}
	demand, err := h.service.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, dto.DemandResponse{Success: true, Demand: demand})
}

// ListMine godoc
// @Summary List the caller's demands
// @Tags Demands
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.DemandListResponse
// @Router /demands/my [get]
func (h *DemandHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	demands, pagination, err := h.service.ListMine(c.Request.Context(), claims.UserID, queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DemandListResponse{Demands: demands, Pagination: pagination})
}

// Get godoc
// @Summary Get one of the caller's demands with its status history
// @Tags Demands
// @Produce json
// @Security BearerAuth
// @Param id path int true "Demand ID"
// @Success 200 {object} dto.DemandResponse
// @Failure 404 {object} response.Envelope
// @Router /demands/{id} [get]
func (h *DemandHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	demand, err := h.service.GetOwned(c.Request.Context(), id, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DemandResponse{Success: true, Demand: demand})
}

// UpdateStatus godoc
// @Summary Change a demand's status
// @Tags Demands
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Demand ID"
// @Param payload body dto.UpdateDemandStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /demands/{id}/status [put]
func (h *DemandHandler) UpdateStatus(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateDemandStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	var operatorID *int64
	if claims := claimsFromContext(c); claims != nil {
		operatorID = &claims.UserID
	}
	result, err := h.service.UpdateStatus(c.Request.Context(), id, req, operatorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, response.Envelope{Success: true, Message: "demand status updated", Data: result})
}
