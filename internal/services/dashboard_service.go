package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/justsurfingit/hiring-pipeline/internal/models"
	"github.com/justsurfingit/hiring-pipeline/internal/session"
	"github.com/justsurfingit/hiring-pipeline/internal/workflow"
)

// Summary is what the employer dashboard shows above the applications list.
type Summary struct {
	TotalJobs         int                    `json:"totalJobs"`
	ActiveJobs        int                    `json:"activeJobs"`
	TotalApplications int                    `json:"totalApplications"`
	PendingReview     int                    `json:"pendingReview"`
	Breakdown         models.StatusBreakdown `json:"statusBreakdown"`
	Source            Source                 `json:"source"`
	Partial           bool                   `json:"partial"`
	FailedJobs        []JobFailure           `json:"-"`
}

// DashboardService loads the employer's jobs and then their applications.
type DashboardService struct {
	resolver   *Resolver
	aggregator *AggregationService
	store      *ApplicationStore
	guard      *session.Guard
	endpoints  Endpoints
	logger     *slog.Logger

	mu   sync.RWMutex
	jobs []models.Job
}

func NewDashboardService(resolver *Resolver, aggregator *AggregationService, store *ApplicationStore, guard *session.Guard, endpoints Endpoints, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		resolver:   resolver,
		aggregator: aggregator,
		store:      store,
		guard:      guard,
		endpoints:  endpoints,
		logger:     logger,
	}
}

// Load refreshes jobs and applications. On any error the store keeps its
// previous contents.
func (s *DashboardService) Load(ctx context.Context) (*Summary, error) {
	gen, err := s.guard.Begin()
	if err != nil {
		return nil, err
	}
	ident, err := s.guard.Identity()
	if err != nil {
		return nil, err
	}

	jobs, _, err := ResolveList[models.Job](ctx, s.resolver, s.endpoints.EmployerJobsResource(ident.UserID))
	if err != nil {
		return nil, err
	}

	agg, err := s.aggregator.Assemble(ctx, jobs)
	if err != nil {
		return nil, err
	}
	if s.guard.Stale(gen) {
		return nil, session.ErrStaleResult
	}

	s.store.Replace(agg.Applications)
	s.mu.Lock()
	s.jobs = jobs
	s.mu.Unlock()

	summary := &Summary{
		TotalJobs:         len(jobs),
		TotalApplications: len(agg.Applications),
		PendingReview:     workflow.PendingReview(agg.Breakdown),
		Breakdown:         agg.Breakdown,
		Source:            agg.Source,
		Partial:           agg.Partial,
		FailedJobs:        agg.FailedJobs,
	}
	for _, j := range jobs {
		if j.Status == models.JobActive {
			summary.ActiveJobs++
		}
	}

	s.logger.Info("dashboard loaded",
		slog.Int("jobs", summary.TotalJobs),
		slog.Int("applications", summary.TotalApplications),
		slog.String("source", string(summary.Source)),
		slog.Bool("partial", summary.Partial),
	)
	return summary, nil
}

func (s *DashboardService) Jobs() []models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}
