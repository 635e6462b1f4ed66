package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/demand-desk-api/internal/models"
	"github.com/noah-isme/demand-desk-api/pkg/response"
)

type catalogReader interface {
	ListGrades(ctx context.Context) ([]models.Grade, error)
	ListSubjects(ctx context.Context) ([]models.Subject, error)
}

// CatalogHandler serves the public grade and subject lists.
type CatalogHandler struct {
	service catalogReader
}

// NewCatalogHandler builds a new handler.
func NewCatalogHandler(service catalogReader) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// Subjects godoc
// @Summary List active subjects
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *CatalogHandler) Subjects(c *gin.Context) {
	subjects, err := h.service.ListSubjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, subjects, nil)
}

// Grades godoc
// @Summary List grades
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects/grades [get]
func (h *CatalogHandler) Grades(c *gin.Context) {
	grades, err := h.service.ListGrades(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Data(c, http.StatusOK, grades, nil)
}
