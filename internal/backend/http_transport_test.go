package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"golang.org/x/oauth2"

	"github.com/justsurfingit/hiring-pipeline/internal/backend"
)

func TestHTTPTransport_AttachesCredentialAndQuery(t *testing.T) {
	var gotAuth, gotRequestID, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotQuery = r.URL.Query().Get("jobId")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "secret"})
	tr := backend.NewHTTPTransport(srv.URL+"/", tokens, backend.WithRateLimit(100, 10))

	resp, err := tr.Do(context.Background(), backend.Get("/applications", url.Values{"jobId": {"j1"}}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatal("missing request id")
	}
	if gotQuery != "j1" {
		t.Fatalf("jobId = %q", gotQuery)
	}
}

func TestHTTPTransport_PutEncodesBody(t *testing.T) {
	var body map[string]string
	var method, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"a1"}}`))
	}))
	defer srv.Close()

	tr := backend.NewHTTPTransport(srv.URL, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"}))
	resp, err := tr.Do(context.Background(), backend.Put("/applications/a1", map[string]string{"status": "reviewing"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if method != http.MethodPut || contentType != "application/json" {
		t.Fatalf("method=%s content-type=%s", method, contentType)
	}
	if body["status"] != "reviewing" {
		t.Fatalf("body = %v", body)
	}
}
