package services

import (
	"net/url"
	"strings"

	"github.com/justsurfingit/hiring-pipeline/internal/backend"
)

// Disposition says what the resolver does after a failed attempt.
type Disposition int

const (
	// Advance tries the next candidate.
	Advance Disposition = iota
	// AbortResource stops this resolution; the session is unaffected.
	AbortResource
	// AbortSession stops this resolution and expires the session.
	AbortSession
)

func (d Disposition) String() string {
	switch d {
	case Advance:
		return "advance"
	case AbortResource:
		return "abort-resource"
	case AbortSession:
		return "abort-session"
	}
	return "unknown"
}

// ErrorPolicy classifies one attempt's error.
type ErrorPolicy func(err error) Disposition

// Candidate is one query that may produce the data for a resource.
type Candidate struct {
	Name  string
	Path  string
	Query url.Values
	// OnError overrides Classify for this candidate.
	OnError ErrorPolicy
}

func (c Candidate) request() *backend.Request {
	return backend.Get(c.Path, c.Query)
}

func (c Candidate) classify(err error) Disposition {
	if c.OnError != nil {
		return c.OnError(err)
	}
	return Classify(err)
}

// Resource is a logical piece of data and the ordered queries that can serve it.
type Resource struct {
	Name       string
	Candidates []Candidate
}

// Endpoints holds the backend routes. Paths may contain {jobId}.
type Endpoints struct {
	EmployerJobs         string
	JobsByEmployer       string
	EmployerApplications string
	JobApplications      string
	ApplicationsByJob    string
	Application          string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		EmployerJobs:         "/jobs/employer",
		JobsByEmployer:       "/jobs",
		EmployerApplications: "/applications/employer",
		JobApplications:      "/applications/job/{jobId}",
		ApplicationsByJob:    "/applications",
		Application:          "/applications/{id}",
	}
}

// EmployerJobsResource tries the employer-scoped route, then the generic
// route filtered by employer.
func (e Endpoints) EmployerJobsResource(employerID string) Resource {
	return Resource{
		Name: "employer-jobs",
		Candidates: []Candidate{
			{Name: "employer-scoped", Path: e.EmployerJobs},
			{Name: "generic-filtered", Path: e.JobsByEmployer, Query: url.Values{"employerId": {employerID}}},
		},
	}
}

func (e Endpoints) EmployerApplicationsResource() Resource {
	return Resource{
		Name:       "employer-applications",
		Candidates: []Candidate{{Name: "aggregate", Path: e.EmployerApplications}},
	}
}

func (e Endpoints) JobApplicationsResource(jobID string) Resource {
	return Resource{
		Name: "job-applications:" + jobID,
		Candidates: []Candidate{
			{Name: "job-scoped", Path: expand(e.JobApplications, "{jobId}", jobID)},
			{Name: "generic-filtered", Path: e.ApplicationsByJob, Query: url.Values{"jobId": {jobID}}},
		},
	}
}

func (e Endpoints) ApplicationPath(id string) string {
	return expand(e.Application, "{id}", id)
}

func expand(path, placeholder, value string) string {
	return strings.ReplaceAll(path, placeholder, url.PathEscape(value))
}
