package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/justsurfingit/hiring-pipeline/internal/backend"
	"github.com/justsurfingit/hiring-pipeline/internal/models"
	"github.com/justsurfingit/hiring-pipeline/internal/session"
	"github.com/justsurfingit/hiring-pipeline/internal/workflow"
)

const DefaultBulkConcurrency = 8

// MutationError is a status update the backend did not confirm.
type MutationError struct {
	ApplicationID string
	Target        models.ApplicationStatus
	Err           error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("mutation: moving %s to %s failed: %v", e.ApplicationID, e.Target, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

type BulkSuccess struct {
	ID          string                   `json:"id"`
	Status      models.ApplicationStatus `json:"status"`
	Application models.Application       `json:"application"`
}

type BulkFailure struct {
	ID  string `json:"id"`
	Err error  `json:"-"`
}

type BulkSkip struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult splits a bulk request into three disjoint sets.
type BulkResult struct {
	Target    models.ApplicationStatus `json:"target"`
	Succeeded []BulkSuccess            `json:"succeeded"`
	Failed    []BulkFailure            `json:"failed"`
	Skipped   []BulkSkip               `json:"skipped"`
}

// RetryIDs are the ids worth offering again: the ones that failed.
func (r *BulkResult) RetryIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.ID)
	}
	return ids
}

type statusUpdate struct {
	Status models.ApplicationStatus `json:"status"`
}

// MutationService changes application statuses. Nothing is written to the
// store before the backend confirms, and what is written is the backend's
// record.
type MutationService struct {
	transport      backend.Transport
	guard          *session.Guard
	store          *ApplicationStore
	journal        Journal
	endpoints      Endpoints
	concurrency    int
	attemptTimeout time.Duration
	logger         *slog.Logger
	tracer         trace.Tracer
}

type MutationOption func(*MutationService)

func WithBulkConcurrency(n int) MutationOption {
	return func(s *MutationService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithJournal(j Journal) MutationOption {
	return func(s *MutationService) {
		if j != nil {
			s.journal = j
		}
	}
}

func WithMutationTimeout(d time.Duration) MutationOption {
	return func(s *MutationService) {
		if d > 0 {
			s.attemptTimeout = d
		}
	}
}

func NewMutationService(transport backend.Transport, guard *session.Guard, store *ApplicationStore, endpoints Endpoints, logger *slog.Logger, opts ...MutationOption) *MutationService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &MutationService{
		transport:      transport,
		guard:          guard,
		store:          store,
		journal:        NopJournal{},
		endpoints:      endpoints,
		concurrency:    DefaultBulkConcurrency,
		attemptTimeout: DefaultAttemptTimeout,
		logger:         logger,
		tracer:         otel.Tracer("github.com/justsurfingit/hiring-pipeline/internal/services"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyStatus moves one application from current to target. Illegal moves
// fail with *workflow.InvalidTransitionError before any request is made.
// current is trusted: callers must take it from the store when the
// application is loaded.
func (s *MutationService) ApplyStatus(ctx context.Context, id string, current, target models.ApplicationStatus) (*models.Application, error) {
	if _, err := workflow.Transition(current, target); err != nil {
		return nil, err
	}
	gen, err := s.guard.Begin()
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "apply status", trace.WithAttributes(
		attribute.String("application.id", id),
		attribute.String("application.target", string(target)),
	))
	defer span.End()

	app, err := s.send(ctx, id, target, gen)
	if err != nil {
		s.logger.Error("status update failed",
			slog.String("application_id", id),
			slog.String("target", string(target)),
			slog.String("error", err.Error()),
		)
		return nil, fail(span, err)
	}
	if s.guard.Stale(gen) {
		return nil, fail(span, session.ErrStaleResult)
	}

	s.commit(ctx, current, app)
	if patched, ok := s.store.Get(app.ID); ok {
		app = &patched
	}
	return app, nil
}

// ApplyStatusBulk moves every id to target. Ids whose locally known status
// cannot move to target are skipped without a request; the rest are sent
// concurrently and succeed or fail independently.
func (s *MutationService) ApplyStatusBulk(ctx context.Context, ids []string, target models.ApplicationStatus) *BulkResult {
	result := &BulkResult{
		Target:    target,
		Succeeded: []BulkSuccess{},
		Failed:    []BulkFailure{},
		Skipped:   []BulkSkip{},
	}

	type pending struct {
		id      string
		current models.ApplicationStatus
	}
	var eligible []pending
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		app, ok := s.store.Get(id)
		if !ok {
			result.Skipped = append(result.Skipped, BulkSkip{ID: id, Reason: "unknown application"})
			continue
		}
		if _, err := workflow.Transition(app.Status, target); err != nil {
			result.Skipped = append(result.Skipped, BulkSkip{ID: id, Reason: err.Error()})
			continue
		}
		eligible = append(eligible, pending{id: id, current: app.Status})
	}
	if len(eligible) == 0 {
		return result
	}

	gen, err := s.guard.Begin()
	if err != nil {
		for _, p := range eligible {
			result.Failed = append(result.Failed, BulkFailure{ID: p.id, Err: err})
		}
		return result
	}

	type outcome struct {
		app *models.Application
		err error
	}
	outcomes := make([]outcome, len(eligible))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, p := range eligible {
		g.Go(func() error {
			if err := s.guard.Check(); err != nil {
				outcomes[i] = outcome{err: err}
				return nil
			}
			app, err := s.send(ctx, p.id, target, gen)
			outcomes[i] = outcome{app: app, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, p := range eligible {
		o := outcomes[i]
		switch {
		case o.err != nil:
			result.Failed = append(result.Failed, BulkFailure{ID: p.id, Err: o.err})
		case s.guard.Stale(gen):
			result.Failed = append(result.Failed, BulkFailure{ID: p.id, Err: session.ErrStaleResult})
		default:
			s.commit(ctx, p.current, o.app)
			app := *o.app
			if patched, ok := s.store.Get(app.ID); ok {
				app = patched
			}
			result.Succeeded = append(result.Succeeded, BulkSuccess{ID: p.id, Status: app.Status, Application: app})
		}
	}

	s.logger.Info("bulk status update settled",
		slog.String("target", string(target)),
		slog.Int("succeeded", len(result.Succeeded)),
		slog.Int("failed", len(result.Failed)),
		slog.Int("skipped", len(result.Skipped)),
	)
	return result
}

// send issues the update and returns the backend's record. Authentication
// failures expire the session before they are returned.
func (s *MutationService) send(ctx context.Context, id string, target models.ApplicationStatus, gen uint64) (*models.Application, error) {
	actx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	req := backend.Put(s.endpoints.ApplicationPath(id), statusUpdate{Status: target})
	resp, err := s.transport.Do(actx, req)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionExpired):
			return nil, session.ErrSessionExpired
		case ctx.Err() != nil:
			return nil, &MutationError{ApplicationID: id, Target: target, Err: ctx.Err()}
		case errors.Is(actx.Err(), context.DeadlineExceeded):
			err = &backend.TimeoutError{Path: req.Target(), After: s.attemptTimeout}
		default:
			err = &backend.TransportError{Path: req.Target(), Err: err}
		}
		return nil, &MutationError{ApplicationID: id, Target: target, Err: err}
	}

	env, err := backend.Interpret(req, resp)
	if err != nil {
		var authErr *backend.AuthenticationError
		if errors.As(err, &authErr) {
			s.guard.ReportAuthFailure(gen, err)
		}
		return nil, &MutationError{ApplicationID: id, Target: target, Err: err}
	}
	app, err := backend.DecodeOne[models.Application](env)
	if err != nil {
		return nil, &MutationError{ApplicationID: id, Target: target, Err: err}
	}
	if app.ID != id {
		return nil, &MutationError{ApplicationID: id, Target: target, Err: &backend.MalformedResponseError{
			Path:   req.Target(),
			Reason: fmt.Sprintf("response is for application %q", app.ID),
		}}
	}
	return app, nil
}

// commit patches the store with the backend's record and journals the change.
func (s *MutationService) commit(ctx context.Context, from models.ApplicationStatus, app *models.Application) {
	if !s.store.Patch(*app) {
		s.logger.Warn("updated application not in local collection", slog.String("application_id", app.ID))
	}
	ev := NewStatusChangeEvent(app.ID, app.JobID, from, app.Status)
	if err := s.journal.Record(ctx, ev); err != nil {
		s.logger.Error("failed to journal status change",
			slog.String("application_id", app.ID),
			slog.String("error", err.Error()),
		)
	}
}
