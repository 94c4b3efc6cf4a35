package backend

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Envelope is the wrapper every backend endpoint answers with.
type Envelope struct {
	Success         *bool           `json:"success"`
	Message         string          `json:"message,omitempty"`
	Data            json.RawMessage `json:"data"`
	StatusBreakdown map[string]int  `json:"statusBreakdown,omitempty"`
}

// Interpret turns a raw response into an envelope or a classified error.
func Interpret(req *Request, resp *Response) (*Envelope, error) {
	target := req.Target()
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &AuthenticationError{Path: target, Message: messageOf(resp.Body)}
	case resp.StatusCode == http.StatusForbidden:
		return nil, &ForbiddenError{Path: target, Message: messageOf(resp.Body)}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{Path: target}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &TransportError{Path: target, StatusCode: resp.StatusCode}
	}

	var env Envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, &MalformedResponseError{Path: target, Reason: "body is not a JSON envelope", Err: err}
	}
	if env.Success == nil {
		return nil, &MalformedResponseError{Path: target, Reason: "missing success flag"}
	}
	if !*env.Success {
		reason := "success=false"
		if env.Message != "" {
			reason += ": " + env.Message
		}
		return nil, &MalformedResponseError{Path: target, Reason: reason}
	}
	if len(bytes.TrimSpace(env.Data)) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return nil, &MalformedResponseError{Path: target, Reason: "missing data payload"}
	}
	return &env, nil
}

// DecodeList decodes a list payload and validates every element.
func DecodeList[T any](env *Envelope) ([]T, error) {
	var items []T
	if err := json.Unmarshal(env.Data, &items); err != nil {
		return nil, &MalformedResponseError{Reason: "data is not a list", Err: err}
	}
	for i := range items {
		if err := validate.Struct(&items[i]); err != nil {
			return nil, &MalformedResponseError{Reason: fmt.Sprintf("item %d invalid", i), Err: err}
		}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func DecodeOne[T any](env *Envelope) (*T, error) {
	var item T
	if err := json.Unmarshal(env.Data, &item); err != nil {
		return nil, &MalformedResponseError{Reason: "data is not an object", Err: err}
	}
	if err := validate.Struct(&item); err != nil {
		return nil, &MalformedResponseError{Reason: "invalid object", Err: err}
	}
	return &item, nil
}

func messageOf(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
