package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/justsurfingit/hiring-pipeline/internal/backend"
	"github.com/justsurfingit/hiring-pipeline/internal/models"
	"github.com/justsurfingit/hiring-pipeline/internal/services"
	"github.com/justsurfingit/hiring-pipeline/internal/session"
)

func newAggregator(t *testing.T, fb *fakeBackend, guard *session.Guard) *services.AggregationService {
	t.Helper()
	r := services.NewResolver(fb, guard, quietLogger())
	return services.NewAggregationService(r, services.DefaultEndpoints(), 2, quietLogger())
}

func threeJobs() []models.Job {
	return []models.Job{
		job("jA", "Backend Engineer", models.JobActive),
		job("jB", "Designer", models.JobActive),
		job("jC", "Data Analyst", models.JobPaused),
	}
}

// per-job backend: A via the job-scoped route, B broken on both routes, C
// only through the generic filtered route.
func perJobBackend() *fakeBackend {
	return newFakeBackend().
		on("GET /applications/job/jA", okData([]models.Application{
			app("a1", "jA", models.StatusPending, 5),
			app("a2", "jA", models.StatusShortlisted, 2),
		})).
		on("GET /applications/job/jB", status(http.StatusInternalServerError)).
		on("GET /applications?jobId=jB", status(http.StatusBadGateway)).
		on("GET /applications?jobId=jC", okData([]models.Application{
			app("c1", "jC", models.StatusReviewing, 1),
		}))
}

func TestAssemble_PartialPerJob(t *testing.T) {
	fb := perJobBackend()
	agg, err := newAggregator(t, fb, newGuard(t)).Assemble(context.Background(), threeJobs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if agg.Source != services.SourcePerJob {
		t.Fatalf("source = %s", agg.Source)
	}
	if len(agg.Applications) != 3 {
		t.Fatalf("applications = %d, want 3", len(agg.Applications))
	}
	for _, a := range agg.Applications {
		if a.Job == nil || a.Job.ID != a.JobID || a.Job.Title == "" {
			t.Fatalf("application %s lacks its job summary: %+v", a.ID, a.Job)
		}
	}
	if !agg.Partial {
		t.Fatal("expected partial flag")
	}
	if len(agg.FailedJobs) != 1 || agg.FailedJobs[0].JobID != "jB" {
		t.Fatalf("failed jobs = %+v", agg.FailedJobs)
	}
	if agg.Breakdown[models.StatusPending] != 1 || agg.Breakdown[models.StatusReviewing] != 1 || agg.Breakdown[models.StatusShortlisted] != 1 {
		t.Fatalf("breakdown = %v", agg.Breakdown)
	}

	// newest first
	want := []string{"c1", "a2", "a1"}
	for i, id := range want {
		if agg.Applications[i].ID != id {
			t.Fatalf("order[%d] = %s, want %s", i, agg.Applications[i].ID, id)
		}
	}
}

func TestAssemble_AggregateFastPath(t *testing.T) {
	fb := newFakeBackend().
		on("GET /applications/employer", okData([]models.Application{
			app("a1", "jA", models.StatusPending, 5),
			app("c1", "jC", models.StatusAccepted, 1),
		}))

	agg, err := newAggregator(t, fb, newGuard(t)).Assemble(context.Background(), threeJobs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.Source != services.SourceAggregate || agg.Partial {
		t.Fatalf("source=%s partial=%v", agg.Source, agg.Partial)
	}
	if len(fb.Calls()) != 1 {
		t.Fatalf("expected only the aggregate call, got %v", fb.Calls())
	}
	for _, a := range agg.Applications {
		if a.Job == nil || a.Job.Company != "Acme" {
			t.Fatalf("application %s not backfilled", a.ID)
		}
	}
}

func TestAssemble_EmptyAggregateIsNotMissing(t *testing.T) {
	fb := newFakeBackend().on("GET /applications/employer", okData([]models.Application{}))

	agg, err := newAggregator(t, fb, newGuard(t)).Assemble(context.Background(), threeJobs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agg.Applications) != 0 || agg.Source != services.SourceAggregate {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
	if len(fb.Calls()) != 1 {
		t.Fatalf("empty aggregate must not trigger per-job fetches: %v", fb.Calls())
	}
}

func TestAssemble_AggregateServerErrorDoesNotFallBack(t *testing.T) {
	fb := perJobBackend().on("GET /applications/employer", status(http.StatusInternalServerError))

	_, err := newAggregator(t, fb, newGuard(t)).Assemble(context.Background(), threeJobs())
	var exhausted *services.AllCandidatesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected AllCandidatesExhaustedError, got %v", err)
	}
	if len(fb.Calls()) != 1 {
		t.Fatalf("unexpected per-job calls: %v", fb.Calls())
	}
}

func TestAssemble_AuthFailureAbortsAssembly(t *testing.T) {
	fb := perJobBackend().on("GET /applications/job/jA", status(http.StatusUnauthorized))
	guard := newGuard(t)

	agg, err := newAggregator(t, fb, guard).Assemble(context.Background(), threeJobs())
	var authErr *backend.AuthenticationError
	if !errors.As(err, &authErr) && !errors.Is(err, session.ErrSessionExpired) {
		t.Fatalf("expected authentication failure, got %v", err)
	}
	if agg != nil {
		t.Fatal("no partial result may be returned after an auth failure")
	}
	if guard.State() != session.Expired {
		t.Fatal("session should be expired")
	}
}

func TestAssemble_AggregateAuthFailure(t *testing.T) {
	fb := perJobBackend().on("GET /applications/employer", status(http.StatusUnauthorized))

	_, err := newAggregator(t, fb, newGuard(t)).Assemble(context.Background(), threeJobs())
	var authErr *backend.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
	if len(fb.Calls()) != 1 {
		t.Fatalf("no per-job assembly expected: %v", fb.Calls())
	}
}

func TestAssemble_NoJobs(t *testing.T) {
	fb := newFakeBackend()
	agg, err := newAggregator(t, fb, newGuard(t)).Assemble(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agg.Applications) != 0 || agg.Partial || agg.Source != services.SourceNoJobs {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
	if len(fb.Calls()) != 0 {
		t.Fatalf("no fetches expected, got %v", fb.Calls())
	}
}

func TestAssemble_DeduplicatesAcrossJobs(t *testing.T) {
	fb := newFakeBackend().
		on("GET /applications/job/jA", okData([]models.Application{app("dup", "jA", models.StatusPending, 1)})).
		on("GET /applications/job/jB", okData([]models.Application{app("dup", "jA", models.StatusPending, 1)})).
		on("GET /applications/job/jC", okData([]models.Application{}))

	agg, err := newAggregator(t, fb, newGuard(t)).Assemble(context.Background(), threeJobs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agg.Applications) != 1 {
		t.Fatalf("applications = %d, want 1", len(agg.Applications))
	}
}

func TestAssemble_IsByteStable(t *testing.T) {
	guard := newGuard(t)
	a := newAggregator(t, perJobBackend(), guard)

	first, err := a.Assemble(context.Background(), threeJobs())
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := a.Assemble(context.Background(), threeJobs())
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	b1, _ := json.Marshal(first.Applications)
	b2, _ := json.Marshal(second.Applications)
	if string(b1) != string(b2) {
		t.Fatalf("collections differ:\n%s\n%s", b1, b2)
	}
}
