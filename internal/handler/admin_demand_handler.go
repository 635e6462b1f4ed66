package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/demand-desk-api/internal/dto"
	"github.com/noah-isme/demand-desk-api/pkg/response"
)

// AdminDemandHandler exposes the operator desk.
type AdminDemandHandler struct {
	service demandWorkflow
}

// NewAdminDemandHandler builds a new handler.
func NewAdminDemandHandler(service demandWorkflow) *AdminDemandHandler {
	return &AdminDemandHandler{service: service}
}

// List godoc
// @Summary List all demands
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param status query string false "PENDING, FOLLOWING_UP, MATCHED, CLOSED or all"
// @Param search query string false "Phone, nickname, address, grade or subject"
// @Success 200 {object} response.Envelope
// @Router /admin/demands [get]
func (h *AdminDemandHandler) List(c *gin.Context) {
	query := dto.DemandQuery{
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
		Status: c.Query("status"),
		Search: c.Query("search"),
	}
	demands, pagination, err := h.service.ListAll(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, demands, &pagination)
}

// History godoc
// @Summary Status history of a demand
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Demand ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/demands/{id}/history [get]
func (h *AdminDemandHandler) History(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, entries, nil)
}
