// Package backend talks to the hiring platform API: it sends requests,
// maps HTTP statuses onto typed errors and decodes success envelopes.
package backend

import (
	"context"
	"net/http"
	"net/url"
)

//go:generate mockgen -source=transport.go -destination=mocks/mock_transport.go -package=mocks

// Transport performs one request against the backend. Any HTTP status is a
// Response; only failures to get a response at all are errors.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

func Get(path string, query url.Values) *Request {
	return &Request{Method: http.MethodGet, Path: path, Query: query}
}

func Put(path string, body any) *Request {
	return &Request{Method: http.MethodPut, Path: path, Body: body}
}

// Target renders the path and query for logs and errors.
func (r *Request) Target() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

type Response struct {
	StatusCode int
	Body       []byte
}
