// Package httpx provides helpers for writing JSON responses with a
// consistent envelope, plus the small middleware stack the API service uses
package httpx

import (
	"encoding/json"
	"net/http"

	perr "torrenthealth/internal/platform/errors"
)

// Envelope is the standard response body for all endpoints
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// JSON writes v as application/json with the given status
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Response is a functional response object for return-style handlers
type Response struct {
	Status int
	Body   any
}

// Handle adapts a Response-returning handler to net/http
func Handle(h func(r *http.Request) Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(r).write(w, r)
	}
}

func (resp Response) write(w http.ResponseWriter, r *http.Request) {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	if status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	reqID := RequestID(r.Context())

	// Body carrying an error derives status from the error code
	if err, ok := resp.Body.(error); ok && err != nil {
		status = perr.HTTPStatus(err)
		JSON(w, status, Envelope{
			StatusCode: status,
			Status:     http.StatusText(status),
			Code:       perr.CodeOf(err),
			Error:      err.Error(),
			RequestID:  reqID,
		})
		return
	}

	JSON(w, status, Envelope{
		StatusCode: status,
		Status:     http.StatusText(status),
		RequestID:  reqID,
		Data:       resp.Body,
	})
}

// OK returns a 200 response
func OK(data any) Response { return Response{Status: http.StatusOK, Body: data} }

// Created returns a 201 response
func Created(data any) Response { return Response{Status: http.StatusCreated, Body: data} }

// NoContent returns a 204 response
func NoContent() Response { return Response{Status: http.StatusNoContent} }

// Error returns a response that maps the error to status and envelope
func Error(err error) Response { return Response{Body: err} }
