package util

import (
	"errors"
	"fmt"

	"coursewise_backend/internal/model"
)

var (
	ErrStudentNotFound          = errors.New("student not found")
	ErrStudentNumberRegistered  = errors.New("student number already registered")
	ErrPermissionDenied         = errors.New("permission denied")
	ErrCourseNotFound           = errors.New("course not found")
	ErrCurriculumNotFound       = errors.New("no curriculum version for entry year")
	ErrSessionExpired           = errors.New("advisor session expired")
	ErrConcurrentModification   = errors.New("session was modified concurrently, retry the request")
	ErrRecommendationNotPending = errors.New("no recommendation awaiting confirmation")
)

// ValidationError rejects malformed input, such as a grade outside the
// 0-20 scale. Grades are never clamped into range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// CycleDetectedError is fatal at curriculum load: a snapshot whose
// prerequisite graph contains a cycle is never served.
type CycleDetectedError struct {
	EntryYear int
	From      string
	To        string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("prerequisite cycle in curriculum %d: %s -> %s closes a loop", e.EntryYear, e.From, e.To)
}

// IneligibleCourseError carries the full set of unmet requirements.
type IneligibleCourseError struct {
	CourseCode string
	Reasons    []model.Reason
}

func (e *IneligibleCourseError) Error() string {
	return fmt.Sprintf("course %s: %d unmet requirements", e.CourseCode, len(e.Reasons))
}

// CreditLimitExceededError reports a selection over the standing cap.
type CreditLimitExceededError struct {
	Requested int
	Limit     int
}

func (e *CreditLimitExceededError) Error() string {
	return fmt.Sprintf("selection of %d credits exceeds the %d credit limit", e.Requested, e.Limit)
}

// GuidanceError tells the student what the conversation expects next
// instead of failing opaquely. It never advances the session.
type GuidanceError struct {
	CurrentStep model.SessionStep
	Event       string
	Guidance    string
}

func (e *GuidanceError) Error() string {
	return fmt.Sprintf("event %q not accepted at step %s: %s", e.Event, e.CurrentStep, e.Guidance)
}

// CapabilityError marks a failed or malformed generation response; the
// caller is expected to fall back to the deterministic recommender.
type CapabilityError struct {
	Cause  error
	Detail string
}

func (e *CapabilityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation capability unavailable: %s: %v", e.Detail, e.Cause)
	}
	return fmt.Sprintf("generation capability unavailable: %s", e.Detail)
}

func (e *CapabilityError) Unwrap() error {
	return e.Cause
}
