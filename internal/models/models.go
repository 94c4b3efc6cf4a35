package models

import (
	"time"
)

type ApplicationStatus string

const (
	StatusPending            ApplicationStatus = "pending"
	StatusReviewing          ApplicationStatus = "reviewing"
	StatusShortlisted        ApplicationStatus = "shortlisted"
	StatusInterviewScheduled ApplicationStatus = "interview-scheduled"
	StatusInterviewed        ApplicationStatus = "interviewed"
	StatusUnderConsideration ApplicationStatus = "under-consideration"
	StatusAccepted           ApplicationStatus = "accepted"
	StatusRejected           ApplicationStatus = "rejected"
	StatusWithdrawn          ApplicationStatus = "withdrawn"
)

// AllStatuses lists every status in progress order.
var AllStatuses = []ApplicationStatus{
	StatusPending,
	StatusReviewing,
	StatusShortlisted,
	StatusInterviewScheduled,
	StatusInterviewed,
	StatusUnderConsideration,
	StatusAccepted,
	StatusRejected,
	StatusWithdrawn,
}

func (s ApplicationStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type JobStatus string

const (
	JobActive JobStatus = "active"
	JobPaused JobStatus = "paused"
	JobClosed JobStatus = "closed"
)

type SalaryRange struct {
	Min      int    `json:"min,omitempty"`
	Max      int    `json:"max,omitempty"`
	Currency string `json:"currency,omitempty"`
}

type Job struct {
	ID         string      `json:"id" validate:"required"`
	EmployerID string      `json:"employerId"`
	Title      string      `json:"title" validate:"required"`
	Company    string      `json:"company"`
	Location   string      `json:"location"`
	Type       string      `json:"type"`
	Experience string      `json:"experience"`
	Status     JobStatus   `json:"status" validate:"omitempty,oneof=active paused closed"`
	Skills     []string    `json:"skills,omitempty"`
	Salary     SalaryRange `json:"salary"`

	ViewCount        int `json:"viewCount"`
	ApplicationCount int `json:"applicationCount"`
	SaveCount        int `json:"saveCount"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary is the minimal job description embedded into applications.
func (j Job) Summary() *JobSummary {
	return &JobSummary{
		ID:       j.ID,
		Title:    j.Title,
		Company:  j.Company,
		Location: j.Location,
		Type:     j.Type,
	}
}

type JobSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Type     string `json:"type"`
}

type Application struct {
	ID             string            `json:"id" validate:"required"`
	JobID          string            `json:"jobId" validate:"required"`
	ApplicantID    string            `json:"applicantId" validate:"required"`
	Status         ApplicationStatus `json:"status" validate:"required,oneof=pending reviewing shortlisted interview-scheduled interviewed under-consideration accepted rejected withdrawn"`
	AppliedAt      time.Time         `json:"appliedAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	CoverLetter    string            `json:"coverLetter,omitempty"`
	ResumeURL      string            `json:"resumeUrl,omitempty"`
	ExpectedSalary *int              `json:"expectedSalary,omitempty"`

	// Job is filled by the backend when it embeds the job, otherwise backfilled.
	Job *JobSummary `json:"job,omitempty"`
}

// StatusBreakdown counts applications per status.
type StatusBreakdown map[ApplicationStatus]int

// NewStatusBreakdown returns a breakdown with a zero entry for every status.
func NewStatusBreakdown(apps []Application) StatusBreakdown {
	b := make(StatusBreakdown, len(AllStatuses))
	for _, s := range AllStatuses {
		b[s] = 0
	}
	for _, a := range apps {
		b[a.Status]++
	}
	return b
}

func (b StatusBreakdown) Total() int {
	total := 0
	for _, n := range b {
		total += n
	}
	return total
}

// StatusChangeEvent is a confirmed status change, kept as an audit trail.
type StatusChangeEvent struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	ApplicationID string    `gorm:"index;not null" json:"application_id"`
	JobID         string    `gorm:"index" json:"job_id"`
	FromStatus    string    `json:"from_status"`
	ToStatus      string    `json:"to_status"`
	EventType     string    `json:"event_type"`
	Details       string    `gorm:"type:text" json:"details"`
}
