package models

import (
	"math"
	"time"
)

// DemandStatus captures lifecycle states for a tutoring demand.
type DemandStatus string

const (
	DemandStatusPending     DemandStatus = "PENDING"
	DemandStatusFollowingUp DemandStatus = "FOLLOWING_UP"
	DemandStatusMatched     DemandStatus = "MATCHED"
	DemandStatusClosed      DemandStatus = "CLOSED"
)

// DemandStatuses lists every recognised status in lifecycle order.
var DemandStatuses = []DemandStatus{
	DemandStatusPending,
	DemandStatusFollowingUp,
	DemandStatusMatched,
	DemandStatusClosed,
}

// Valid reports whether s is one of the recognised statuses.
func (s DemandStatus) Valid() bool {
	switch s {
	case DemandStatusPending, DemandStatusFollowingUp, DemandStatusMatched, DemandStatusClosed:
		return true
	}
	return false
}

// Demand is a submitted tutoring request.
type Demand struct {
	ID              int64        `db:"id" json:"id"`
	UserID          int64        `db:"user_id" json:"userId"`
	GradeID         int64        `db:"grade_id" json:"gradeId"`
	SubjectID       int64        `db:"subject_id" json:"subjectId"`
	LocationAddress string       `db:"location_address" json:"locationAddress"`
	HourlyPrice     float64      `db:"hourly_price" json:"hourlyPrice"`
	Status          DemandStatus `db:"status" json:"status"`
	CreatedAt       time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updatedAt"`

	GradeName    string  `db:"grade_name" json:"gradeName,omitempty"`
	SubjectName  string  `db:"subject_name" json:"subjectName,omitempty"`
	UserNickname *string `db:"user_nickname" json:"userNickname,omitempty"`
	UserPhone    *string `db:"user_phone" json:"userPhone,omitempty"`

	StatusLogs []DemandStatusLog `db:"-" json:"statusLogs,omitempty"`
}

// DemandStatusLog is an immutable audit entry for one status transition.
type DemandStatusLog struct {
	ID         int64        `db:"id" json:"id"`
	DemandID   int64        `db:"demand_id" json:"demandId"`
	OldStatus  DemandStatus `db:"old_status" json:"oldStatus"`
	NewStatus  DemandStatus `db:"new_status" json:"newStatus"`
	OperatorID *int64       `db:"operator_id" json:"operatorId"`
	Remark     *string      `db:"remark" json:"remark"`
	CreatedAt  time.Time    `db:"created_at" json:"createdAt"`
}

// DemandFilter constrains listing queries.
type DemandFilter struct {
	UserID *int64
	Status DemandStatus
	Search string
	Page   int
	Limit  int
}

// TransitionResult describes a committed status change.
type TransitionResult struct {
	DemandID    int64        `json:"demandId"`
	OwnerUserID int64        `json:"ownerUserId"`
	OldStatus   DemandStatus `json:"oldStatus"`
	NewStatus   DemandStatus `json:"newStatus"`
	OperatorID  *int64       `json:"operatorId,omitempty"`
	Remark      *string      `json:"remark,omitempty"`
	ChangedAt   time.Time    `json:"changedAt"`
}

const (
	defaultDemandPageSize = 10
	maxDemandPageSize     = 100
)

// Normalize clamps paging values to supported bounds.
func (f DemandFilter) Normalize() DemandFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultDemandPageSize
	}
	if f.Limit > maxDemandPageSize {
		f.Limit = maxDemandPageSize
	}
	// Keeps Offset from overflowing on absurd page numbers.
	if maxPage := math.MaxInt/f.Limit + 1; f.Page > maxPage {
		f.Page = maxPage
	}
	return f
}

// Offset returns the row offset of the current page.
func (f DemandFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
