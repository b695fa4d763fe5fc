// Package api is the HTTP surface for the mint service. Error responses follow
// RFC 7807 (Problem Details for HTTP APIs).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dropforge/dropforge/pkg/fault"
)

// ProblemDetail implements RFC 7807. All API error responses use this
// format.
type ProblemDetail struct {
	// Type is a URI reference that identifies the problem type.
	Type string `json:"type"`
	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`
	// Status is the HTTP status code.
	Status int `json:"status"`
	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`
	// Instance is a URI reference identifying the specific occurrence.
	Instance string `json:"instance,omitempty"`
	// Code carries the machine-readable rejection code, when known.
	Code string `json:"code,omitempty"`
}

// Error implements the error interface.
func (p *ProblemDetail) Error() string {
	return fmt.Sprintf("%s: %s", p.Title, p.Detail)
}

// WriteError writes an RFC 7807 Problem Detail JSON response.
func WriteError(w http.ResponseWriter, status int, title, detail string) {
	writeProblem(w, &ProblemDetail{
		Type:   fmt.Sprintf("https://dropforge.dev/errors/%d", status),
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

func writeProblem(w http.ResponseWriter, problem *ProblemDetail) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	_ = json.NewEncoder(w).Encode(problem)
}

// WriteFault translates a typed rejection into its HTTP status. Anything
// that is not a known fault is treated as internal.
func WriteFault(w http.ResponseWriter, r *http.Request, err error) {
	var fe *fault.Error
	status := http.StatusInternalServerError
	code := ""

	if errors.As(err, &fe) {
		status = statusFor(fe)
		code = string(fe.Code)
	} else {
		slog.Error("internal server error", "error", err, "path", r.URL.Path)
		err = fmt.Errorf("an unexpected error occurred")
	}

	writeProblem(w, &ProblemDetail{
		Type:     fmt.Sprintf("https://dropforge.dev/errors/%d", status),
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   err.Error(),
		Instance: r.URL.Path,
		Code:     code,
	})
}

func statusFor(fe *fault.Error) int {
	switch fe.Category {
	case fault.CategoryConfig:
		if fe.Code == fault.CodeUnknown {
			return http.StatusNotFound
		}
		return http.StatusBadRequest
	case fault.CategoryAuthorization:
		return http.StatusForbidden
	case fault.CategoryAllowList:
		return http.StatusForbidden
	case fault.CategoryPayment:
		switch fe.Code {
		case fault.CodeInsufficient:
			return http.StatusPaymentRequired
		case fault.CodeTransferFailed:
			return http.StatusBadGateway
		default:
			return http.StatusBadRequest
		}
	case fault.CategoryPhase:
		if fe.Code == fault.CodeUnknown {
			return http.StatusNotFound
		}
		return http.StatusConflict
	case fault.CategorySupply:
		switch fe.Code {
		case fault.CodeSoldOut:
			return http.StatusConflict
		case fault.CodeIssuanceFailed:
			return http.StatusBadGateway
		default:
			return http.StatusBadRequest
		}
	case fault.CategoryState:
		if fe.Code == fault.CodePaused {
			return http.StatusLocked
		}
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteBadRequest writes a 400 error response.
func WriteBadRequest(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusBadRequest, "Bad Request", detail)
}

// WriteForbidden writes a 403 error response.
func WriteForbidden(w http.ResponseWriter, detail string) {
	if detail == "" {
		detail = "Insufficient permissions"
	}
	WriteError(w, http.StatusForbidden, "Forbidden", detail)
}

// WriteNotFound writes a 404 error response.
func WriteNotFound(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusNotFound, "Not Found", detail)
}

// WriteMethodNotAllowed writes a 405 error response.
func WriteMethodNotAllowed(w http.ResponseWriter) {
	WriteError(w, http.StatusMethodNotAllowed, "Method Not Allowed", "The HTTP method is not supported for this endpoint")
}

// WriteTooManyRequests writes a 429 error response with Retry-After header.
func WriteTooManyRequests(w http.ResponseWriter, retryAfterSecs int) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSecs))
	WriteError(w, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded. Retry after the specified interval.")
}

// WriteInternal writes a 500 error response.
// The err parameter is logged but NEVER exposed to the client.
func WriteInternal(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)
	WriteError(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred. Please try again later.")
}
