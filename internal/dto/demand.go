package dto

import "github.com/noah-isme/demand-desk-api/internal/models"

// CreateDemandRequest is the payload for submitting a demand.
type CreateDemandRequest struct {
	GradeID         int64   `json:"gradeId" validate:"required,gt=0"`
	SubjectID       int64   `json:"subjectId" validate:"required,gt=0"`
	LocationAddress string  `json:"locationAddress" validate:"required,max=255"`
	HourlyPrice     float64 `json:"hourlyPrice" validate:"required,gt=0,lt=100000000"`
}

// UpdateDemandStatusRequest is the operator payload for a status transition.
type UpdateDemandStatusRequest struct {
	Status models.DemandStatus `json:"status"`
	Remark string              `json:"remark"`
}

// DemandQuery mirrors supported listing parameters.
type DemandQuery struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// DemandResponse wraps a single demand.
type DemandResponse struct {
	Success bool           `json:"success"`
	Demand  *models.Demand `json:"demand"`
}

// DemandListResponse is returned by the owner listing endpoint.
type DemandListResponse struct {
	Demands    []models.Demand   `json:"demands"`
	Pagination models.Pagination `json:"pagination"`
}
