// Package errors provides standardized error handling for the grounding
// pipeline and its BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Upstream fetch failures (network, non-2xx, deadline).
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"

	// Content that was fetched but could not be interpreted.
	ErrCodeUnparseableContent ErrorCode = "UNPARSEABLE_CONTENT"

	// Location resolution.
	ErrCodeAmbiguousLocation ErrorCode = "AMBIGUOUS_LOCATION"
	ErrCodeLocationNotFound  ErrorCode = "LOCATION_NOT_FOUND"

	// Caller contract.
	ErrCodeUnknownDomain ErrorCode = "UNKNOWN_DOMAIN"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"

	// Every called domain failed for one request.
	ErrCodeAllSourcesFailed ErrorCode = "ALL_SOURCES_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying transport or parse error, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e after adding a metadata entry.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewUpstreamUnavailableError reports a source that could not be reached or answered non-2xx.
func NewUpstreamUnavailableError(source, url string, err error) *StandardError {
	details := fmt.Sprintf("source: %s, url: %s", source, url)
	if err != nil {
		details = fmt.Sprintf("%s, error: %s", details, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeUpstreamUnavailable,
		Message:   fmt.Sprintf("Upstream '%s' unavailable", source),
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"source": source, "url": url},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewUpstreamTimeoutError reports a source that exceeded its deadline.
func NewUpstreamTimeoutError(source, url string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamTimeout,
		Message:   fmt.Sprintf("Upstream '%s' timeout", source),
		Details:   fmt.Sprintf("source: %s, url: %s", source, url),
		Retryable: true,
		Metadata:  map[string]interface{}{"source": source, "url": url},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewUnparseableContentError reports a page or payload with an unexpected shape.
func NewUnparseableContentError(kind, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnparseableContent,
		Message:   fmt.Sprintf("Unparseable %s content", kind),
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"kind": kind},
		Timestamp: time.Now().UTC(),
	}
}

func NewAmbiguousLocationError(query string, candidates []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAmbiguousLocation,
		Message:   "Location matches several places",
		Details:   fmt.Sprintf("query: %s, candidates: %s", query, strings.Join(candidates, ", ")),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewLocationNotFoundError(query string, err error) *StandardError {
	details := fmt.Sprintf("query: %s", query)
	if err != nil {
		details = fmt.Sprintf("%s, error: %s", details, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeLocationNotFound,
		Message:   "Location could not be resolved",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewUnknownDomainError(domain string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownDomain,
		Message:   "Unknown knowledge domain",
		Details:   fmt.Sprintf("domain: %s", domain),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAllSourcesFailedError aggregates the per-domain failures of one request.
func NewAllSourcesFailedError(failures map[string]error) *StandardError {
	parts := make([]string, 0, len(failures))
	for domain, err := range failures {
		parts = append(parts, fmt.Sprintf("%s: %v", domain, err))
	}
	sort.Strings(parts)
	return &StandardError{
		Code:      ErrCodeAllSourcesFailed,
		Message:   "All knowledge sources failed",
		Details:   strings.Join(parts, "; "),
		Retryable: true,
		Metadata:  map[string]interface{}{"failedDomains": len(failures)},
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeUpstreamUnavailable: "UPSTREAM_UNAVAILABLE",
	ErrCodeUpstreamTimeout:     "UPSTREAM_TIMEOUT",
	ErrCodeUnparseableContent:  "UNPARSEABLE_CONTENT",
	ErrCodeAmbiguousLocation:   "AMBIGUOUS_LOCATION",
	ErrCodeLocationNotFound:    "LOCATION_NOT_FOUND",
	ErrCodeUnknownDomain:       "UNKNOWN_DOMAIN",
	ErrCodeInvalidInput:        "INVALID_INPUT",
	ErrCodeAllSourcesFailed:    "ALL_SOURCES_FAILED",
}

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeAllSourcesFailed, ErrCodeUpstreamUnavailable:
		return 2

	case ErrCodeUpstreamTimeout:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"errorCategory":     GetErrorCategory(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "UPSTREAM") || code == ErrCodeAllSourcesFailed:
		return "UPSTREAM"
	case strings.Contains(codeStr, "CONTENT"):
		return "CONTENT"
	case strings.Contains(codeStr, "LOCATION"):
		return "LOCATION"
	case code == ErrCodeUnknownDomain || code == ErrCodeInvalidInput:
		return "CONTRACT"
	default:
		return "OTHER"
	}
}

// CodeOf returns the code of the first StandardError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsUpstream reports whether err is an upstream unavailability or timeout.
func IsUpstream(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeUpstreamUnavailable || code == ErrCodeUpstreamTimeout
}
