package services_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/justsurfingit/hiring-pipeline/internal/auth"
	"github.com/justsurfingit/hiring-pipeline/internal/backend"
	"github.com/justsurfingit/hiring-pipeline/internal/models"
	"github.com/justsurfingit/hiring-pipeline/internal/session"
)

type route func(ctx context.Context, req *backend.Request) (*backend.Response, error)

// fakeBackend answers by "METHOD target"; unknown routes are 404.
type fakeBackend struct {
	mu     sync.Mutex
	routes map[string]route
	calls  []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{routes: map[string]route{}}
}

func (f *fakeBackend) on(key string, r route) *fakeBackend {
	f.routes[key] = r
	return f
}

func (f *fakeBackend) Do(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	key := req.Method + " " + req.Target()
	f.mu.Lock()
	f.calls = append(f.calls, key)
	r, ok := f.routes[key]
	f.mu.Unlock()
	if !ok {
		return &backend.Response{StatusCode: http.StatusNotFound, Body: []byte(`{"success":false,"message":"route not found"}`)}, nil
	}
	return r(ctx, req)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeBackend) called(key string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == key {
			n++
		}
	}
	return n
}

func okData(data any) route {
	return func(context.Context, *backend.Request) (*backend.Response, error) {
		return envelope(data), nil
	}
}

func status(code int) route {
	return func(context.Context, *backend.Request) (*backend.Response, error) {
		return &backend.Response{StatusCode: code, Body: []byte(`{"success":false,"message":"error"}`)}, nil
	}
}

func envelope(data any) *backend.Response {
	b, err := json.Marshal(map[string]any{"success": true, "data": data})
	if err != nil {
		panic(err)
	}
	return &backend.Response{StatusCode: http.StatusOK, Body: b}
}

// targetMatcher matches a *backend.Request by method and target.
type targetMatcher string

func (m targetMatcher) Matches(x any) bool {
	req, ok := x.(*backend.Request)
	return ok && req.Method+" "+req.Target() == string(m)
}

func (m targetMatcher) String() string { return "request " + string(m) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGuard(t *testing.T) *session.Guard {
	t.Helper()
	return session.NewGuard(&auth.Credential{
		Token:    &oauth2.Token{AccessToken: "token"},
		Identity: auth.Identity{UserID: "emp-1", Role: "employer"},
	}, nil, nil, quietLogger())
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func app(id, jobID string, st models.ApplicationStatus, ageHours int) models.Application {
	return models.Application{
		ID:          id,
		JobID:       jobID,
		ApplicantID: "seeker-" + id,
		Status:      st,
		AppliedAt:   base.Add(-time.Duration(ageHours) * time.Hour),
	}
}

func job(id, title string, st models.JobStatus) models.Job {
	return models.Job{
		ID:       id,
		Title:    title,
		Company:  "Acme",
		Location: "Remote",
		Type:     "full-time",
		Status:   st,
	}
}
