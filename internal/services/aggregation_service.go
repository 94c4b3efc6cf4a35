package services

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/justsurfingit/hiring-pipeline/internal/backend"
	"github.com/justsurfingit/hiring-pipeline/internal/models"
	"github.com/justsurfingit/hiring-pipeline/internal/session"
)

const DefaultAggregateConcurrency = 4

type Source string

const (
	SourceNoJobs    Source = "no-jobs"
	SourceAggregate Source = "aggregate"
	SourcePerJob    Source = "per-job"
)

// JobFailure is a job whose applications could not be fetched.
type JobFailure struct {
	JobID string
	Title string
	Err   error
}

// Aggregate is every application across an employer's jobs.
type Aggregate struct {
	Applications []models.Application
	Breakdown    models.StatusBreakdown
	Source       Source
	// Partial is set when some jobs could not be fetched; Applications is
	// then a lower bound, not the full set.
	Partial    bool
	FailedJobs []JobFailure
}

type AggregationService struct {
	resolver    *Resolver
	endpoints   Endpoints
	concurrency int
	logger      *slog.Logger
}

func NewAggregationService(resolver *Resolver, endpoints Endpoints, concurrency int, logger *slog.Logger) *AggregationService {
	if concurrency <= 0 {
		concurrency = DefaultAggregateConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregationService{
		resolver:    resolver,
		endpoints:   endpoints,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Assemble returns the employer's applications for jobs. The aggregate
// endpoint is used when it exists; only when it is missing (not found) are
// the applications gathered job by job.
func (s *AggregationService) Assemble(ctx context.Context, jobs []models.Job) (*Aggregate, error) {
	if len(jobs) == 0 {
		return &Aggregate{
			Applications: []models.Application{},
			Breakdown:    models.NewStatusBreakdown(nil),
			Source:       SourceNoJobs,
		}, nil
	}

	summaries := make(map[string]*models.JobSummary, len(jobs))
	for _, j := range jobs {
		summaries[j.ID] = j.Summary()
	}

	apps, _, err := ResolveList[models.Application](ctx, s.resolver, s.endpoints.EmployerApplicationsResource())
	if err == nil {
		return finish(apps, summaries, SourceAggregate, nil), nil
	}
	var notFound *backend.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}

	s.logger.Info("aggregate applications endpoint missing, assembling per job",
		slog.Int("jobs", len(jobs)))
	return s.assemblePerJob(ctx, jobs, summaries)
}

func (s *AggregationService) assemblePerJob(ctx context.Context, jobs []models.Job, summaries map[string]*models.JobSummary) (*Aggregate, error) {
	results := make([][]models.Application, len(jobs))
	errs := make([]error, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			apps, _, err := ResolveList[models.Application](gctx, s.resolver, s.endpoints.JobApplicationsResource(job.ID))
			if err != nil {
				if abortsAssembly(err) {
					return err
				}
				errs[i] = err
				return nil
			}
			for k := range apps {
				if apps[k].Job == nil && summaries[apps[k].JobID] == nil {
					apps[k].Job = job.Summary()
				}
			}
			results[i] = apps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []models.Application
	var failed []JobFailure
	for i, job := range jobs {
		if errs[i] != nil {
			failed = append(failed, JobFailure{JobID: job.ID, Title: job.Title, Err: errs[i]})
			s.logger.Warn("job applications unavailable",
				slog.String("job_id", job.ID),
				slog.String("error", errs[i].Error()),
			)
			continue
		}
		merged = append(merged, results[i]...)
	}
	return finish(merged, summaries, SourcePerJob, failed), nil
}

// abortsAssembly reports errors that end the whole assembly instead of
// costing one job its applications.
func abortsAssembly(err error) bool {
	var authErr *backend.AuthenticationError
	return errors.As(err, &authErr) ||
		errors.Is(err, session.ErrSessionExpired) ||
		errors.Is(err, session.ErrStaleResult) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func finish(apps []models.Application, summaries map[string]*models.JobSummary, src Source, failed []JobFailure) *Aggregate {
	for i := range apps {
		if apps[i].Job != nil {
			continue
		}
		if sum, ok := summaries[apps[i].JobID]; ok {
			cp := *sum
			apps[i].Job = &cp
		} else {
			apps[i].Job = &models.JobSummary{ID: apps[i].JobID}
		}
	}
	out := normalize(apps)
	return &Aggregate{
		Applications: out,
		Breakdown:    models.NewStatusBreakdown(out),
		Source:       src,
		Partial:      len(failed) > 0,
		FailedJobs:   failed,
	}
}
