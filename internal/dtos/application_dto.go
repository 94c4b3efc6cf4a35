package dtos

import (
	"github.com/justsurfingit/hiring-pipeline/internal/models"
	"github.com/justsurfingit/hiring-pipeline/internal/services"
)

type StatusChangeRequest struct {
	// Current is the status the user saw. It must match the stored one.
	Current models.ApplicationStatus `json:"currentStatus"`
	Status  models.ApplicationStatus `json:"status" binding:"required"`
}

type BulkStatusRequest struct {
	IDs    []string                 `json:"ids" binding:"required,min=1,dive,required"`
	Status models.ApplicationStatus `json:"status" binding:"required"`
}

type SelectionStatusRequest struct {
	Status models.ApplicationStatus `json:"status" binding:"required"`
}

type SessionRequest struct {
	AccessToken string `json:"accessToken" binding:"required"`
	UserID      string `json:"userId" binding:"required"`
	Role        string `json:"role" binding:"required,oneof=employer seeker"`
}

type FailedJob struct {
	JobID string `json:"jobId"`
	Title string `json:"title"`
	Error string `json:"error"`
}

type DashboardResponse struct {
	Success bool                 `json:"success"`
	Summary *services.Summary    `json:"summary"`
	Data    []models.Application `json:"data"`
	Jobs    []models.Job         `json:"jobs"`
	Warning string               `json:"warning,omitempty"`
	Failed  []FailedJob          `json:"failedJobs,omitempty"`
}

type BulkFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type BulkStatusResponse struct {
	Success   bool                     `json:"success"`
	Target    models.ApplicationStatus `json:"target"`
	Succeeded []services.BulkSuccess   `json:"succeeded"`
	Failed    []BulkFailure            `json:"failed"`
	Skipped   []services.BulkSkip      `json:"skipped"`
}

func NewBulkStatusResponse(r *services.BulkResult) BulkStatusResponse {
	failed := make([]BulkFailure, 0, len(r.Failed))
	for _, f := range r.Failed {
		failed = append(failed, BulkFailure{ID: f.ID, Error: f.Err.Error()})
	}
	return BulkStatusResponse{
		Success:   len(r.Failed) == 0,
		Target:    r.Target,
		Succeeded: r.Succeeded,
		Failed:    failed,
		Skipped:   r.Skipped,
	}
}
