package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/justsurfingit/hiring-pipeline/internal/backend"
	"github.com/justsurfingit/hiring-pipeline/internal/session"
)

const DefaultAttemptTimeout = 15 * time.Second

var ErrNoCandidates = errors.New("resolver: resource has no candidates")

// AllCandidatesExhaustedError is returned when every candidate failed with a
// retryable error. Last is the final attempt's error.
type AllCandidatesExhaustedError struct {
	Resource string
	Attempts int
	Last     error
}

func (e *AllCandidatesExhaustedError) Error() string {
	return fmt.Sprintf("resolver: all %d candidates for %s failed, last error: %v", e.Attempts, e.Resource, e.Last)
}

func (e *AllCandidatesExhaustedError) Unwrap() error {
	return e.Last
}

// Classify is the default error policy.
func Classify(err error) Disposition {
	var authErr *backend.AuthenticationError
	var forbidden *backend.ForbiddenError
	switch {
	case errors.As(err, &authErr):
		return AbortSession
	case errors.Is(err, session.ErrSessionExpired):
		return AbortResource
	case errors.As(err, &forbidden):
		return AbortResource
	default:
		// not found, timeouts, transport and malformed responses
		return Advance
	}
}

// Attempt records one candidate try.
type Attempt struct {
	Candidate   string
	Target      string
	Err         error
	Disposition Disposition
	Elapsed     time.Duration
}

// Resolution describes how a resource was resolved. It is returned with
// errors too so callers can report the attempts made.
type Resolution struct {
	Resource  string
	Candidate string
	Envelope  *backend.Envelope
	Attempts  []Attempt
}

// DecodeFunc decodes and validates a success envelope. An error makes the
// attempt count as malformed.
type DecodeFunc func(env *backend.Envelope) error

// Resolver tries a resource's candidates in order until one yields data.
type Resolver struct {
	transport      backend.Transport
	guard          *session.Guard
	attemptTimeout time.Duration
	logger         *slog.Logger
	tracer         trace.Tracer
}

type ResolverOption func(*Resolver)

func WithAttemptTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.attemptTimeout = d
		}
	}
}

func NewResolver(transport backend.Transport, guard *session.Guard, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		transport:      transport,
		guard:          guard,
		attemptTimeout: DefaultAttemptTimeout,
		logger:         logger,
		tracer:         otel.Tracer("github.com/justsurfingit/hiring-pipeline/internal/services"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs the candidates strictly one after another. It stops at the
// first well-formed success, at a fatal error, or when the list runs out.
func (r *Resolver) Resolve(ctx context.Context, res Resource, decode DecodeFunc) (*Resolution, error) {
	out := &Resolution{Resource: res.Name}
	if len(res.Candidates) == 0 {
		return out, ErrNoCandidates
	}

	gen, err := r.guard.Begin()
	if err != nil {
		return out, err
	}

	ctx, span := r.tracer.Start(ctx, "resolve "+res.Name,
		trace.WithAttributes(attribute.Int("resolver.candidates", len(res.Candidates))))
	defer span.End()

	var last error
	for _, c := range res.Candidates {
		if err := r.guard.Check(); err != nil {
			return out, fail(span, err)
		}

		start := time.Now()
		env, err := r.attempt(ctx, c, decode)
		a := Attempt{Candidate: c.Name, Target: c.request().Target(), Err: err, Elapsed: time.Since(start)}

		if err == nil {
			out.Attempts = append(out.Attempts, a)
			if r.guard.Stale(gen) {
				return out, fail(span, session.ErrStaleResult)
			}
			out.Candidate = c.Name
			out.Envelope = env
			span.SetAttributes(
				attribute.String("resolver.candidate", c.Name),
				attribute.Int("resolver.attempts", len(out.Attempts)),
			)
			return out, nil
		}

		if ctx.Err() != nil {
			out.Attempts = append(out.Attempts, a)
			return out, fail(span, ctx.Err())
		}

		a.Disposition = c.classify(err)
		out.Attempts = append(out.Attempts, a)

		switch a.Disposition {
		case AbortSession:
			r.guard.ReportAuthFailure(gen, err)
			return out, fail(span, err)
		case AbortResource:
			return out, fail(span, err)
		}

		r.logger.Warn("candidate failed, trying next",
			slog.String("resource", res.Name),
			slog.String("candidate", c.Name),
			slog.String("target", a.Target),
			slog.String("error", err.Error()),
		)
		last = err
	}

	return out, fail(span, &AllCandidatesExhaustedError{
		Resource: res.Name,
		Attempts: len(out.Attempts),
		Last:     last,
	})
}

func (r *Resolver) attempt(ctx context.Context, c Candidate, decode DecodeFunc) (*backend.Envelope, error) {
	actx, cancel := context.WithTimeout(ctx, r.attemptTimeout)
	defer cancel()

	req := c.request()
	resp, err := r.transport.Do(actx, req)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionExpired):
			return nil, session.ErrSessionExpired
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(actx.Err(), context.DeadlineExceeded):
			return nil, &backend.TimeoutError{Path: req.Target(), After: r.attemptTimeout}
		}
		return nil, &backend.TransportError{Path: req.Target(), Err: err}
	}

	env, err := backend.Interpret(req, resp)
	if err != nil {
		return nil, err
	}
	if decode != nil {
		if err := decode(env); err != nil {
			var malformed *backend.MalformedResponseError
			if errors.As(err, &malformed) && malformed.Path == "" {
				malformed.Path = req.Target()
			}
			return nil, err
		}
	}
	return env, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// ResolveList resolves a resource whose data is a list of T.
func ResolveList[T any](ctx context.Context, r *Resolver, res Resource) ([]T, *Resolution, error) {
	var items []T
	resolution, err := r.Resolve(ctx, res, func(env *backend.Envelope) error {
		decoded, err := backend.DecodeList[T](env)
		if err != nil {
			return err
		}
		items = decoded
		return nil
	})
	if err != nil {
		return nil, resolution, err
	}
	return items, resolution, nil
}
