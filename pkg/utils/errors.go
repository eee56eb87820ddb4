package utils

import (
	"context"
	"errors"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	// ErrResolutionFailed: no frame/element found after retries. Non-fatal,
	// the tariff code is skipped for this run.
	ErrResolutionFailed = errors.New("frame resolution failed")

	// ErrSearchFailed: the search form could not be filled or submitted
	ErrSearchFailed = errors.New("search submission failed")

	// ErrSectionUnavailable: a sidebar section could not be visited. Recorded
	// as a placeholder section, never fatal to the record.
	ErrSectionUnavailable = errors.New("section not available")

	// ErrParseAmbiguity: the hierarchy parser found no lines for a level.
	// Degrades to "NA"/present=false.
	ErrParseAmbiguity = errors.New("parse ambiguity")

	// ErrDuplicateContent: a save hit an existing (tariff code, hash) pair.
	// Treated as success-no-op by callers.
	ErrDuplicateContent = errors.New("duplicate content hash")

	// ErrTransaction: database-level failure during a record's load. That
	// record rolls back; the batch continues.
	ErrTransaction = errors.New("transaction failure")

	// ErrPipelineFatal: resource exhaustion or pool unavailability. The only
	// error class that aborts the whole run.
	ErrPipelineFatal = errors.New("critical pipeline failure")

	// ErrBadInput: a malformed input row, skipped rather than propagated
	ErrBadInput = errors.New("malformed input row")
)

// CategorizeError maps an error to a category string for audit rows and logs
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrResolutionFailed):
		return "Resolve_FrameNotFound"
	case errors.Is(err, ErrSearchFailed):
		return "Resolve_SearchFailed"
	case errors.Is(err, ErrSectionUnavailable):
		return "Walk_SectionUnavailable"
	case errors.Is(err, ErrParseAmbiguity):
		return "Parse_Ambiguity"
	case errors.Is(err, ErrDuplicateContent):
		return "Store_Duplicate"
	case errors.Is(err, ErrTransaction):
		return "Store_Transaction"
	case errors.Is(err, ErrPipelineFatal):
		return "Pipeline_Fatal"
	case errors.Is(err, ErrBadInput):
		return "Input_Malformed"
	}

	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	lowerMsg := strings.ToLower(err.Error())
	if strings.Contains(lowerMsg, "timeout") || strings.Contains(lowerMsg, "deadline") {
		return "Browser_Timeout"
	}
	if strings.Contains(lowerMsg, "target closed") || strings.Contains(lowerMsg, "session closed") {
		return "Browser_SessionClosed"
	}
	if strings.Contains(lowerMsg, "sqlite") || strings.Contains(lowerMsg, "database") {
		return "Store_Other"
	}

	return "Unknown"
}

// IsFatal reports whether an error must abort the whole run rather than just
// the current tariff code
func IsFatal(err error) bool {
	return errors.Is(err, ErrPipelineFatal)
}
