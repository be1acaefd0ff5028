package planning

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyGoal    = errors.New("goal is empty")
	ErrGoalTooLarge = errors.New("goal exceeds maximum size")
	ErrRateLimited  = errors.New("rate limit exceeded")
)

// RequestError carries the request context of a rejected routing call
type RequestError struct {
	RequestID string
	Reason    string
	Cause     error
}

func (e *RequestError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("route request %s rejected (%s): %v", e.RequestID, e.Reason, e.Cause)
	}
	return fmt.Sprintf("route request rejected (%s): %v", e.Reason, e.Cause)
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// NewRequestError creates a new request error
func NewRequestError(requestID, reason string, cause error) *RequestError {
	return &RequestError{RequestID: requestID, Reason: reason, Cause: cause}
}

// Rejection reasons, also used as metric labels
const (
	ReasonEmpty           = "empty_goal"
	ReasonTooLarge        = "too_large"
	ReasonRateLimited     = "rate_limited"
	ReasonUnknownAnalyzer = "unknown_analyzer"
	ReasonCanceled        = "canceled"
)
