// Package tripapi defines the request/response shapes and the typed
// error taxonomy exchanged at the boundary between a caller and
// internal/planner.
//
// Grounded on internal/repository/line_repo.go's errors.Is(err,
// pgx.ErrNoRows) wrapping style, generalized to the four-member
// taxonomy (InvalidArgument, PointNotFound, ResourceExhausted,
// Internal) so internal/httpapi can translate a returned error to a
// status code without type-switching on concrete error values.
package tripapi

import (
	"errors"
	"fmt"
)

// Code classifies a planning error for the HTTP boundary to map to a
// status code.
type Code int

const (
	// InvalidArgument covers wrong point count, an unparsable departure
	// time, or an unknown stop id.
	InvalidArgument Code = iota
	// PointNotFound means a coordinate could not be snapped to the walk
	// network; Err.Index carries the offending endpoint.
	PointNotFound
	// ResourceExhausted is non-fatal: the search hit maxVisitedNodes.
	// Callers still receive whatever solutions were emitted.
	ResourceExhausted
	// Internal means a graph invariant was violated. This should be
	// unreachable; when it happens it is logged at the boundary.
	Internal
)

func (c Code) String() string {
	switch c {
	case InvalidArgument:
		return "InvalidArgument"
	case PointNotFound:
		return "PointNotFound"
	case ResourceExhausted:
		return "ResourceExhausted"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Err is the error value returned across the tripapi boundary. Index
// is only meaningful for PointNotFound, identifying which of the two
// request points failed to snap.
type Err struct {
	Code  Code
	Index int
	msg   string
	cause error
}

func (e *Err) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.msg)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.cause)
	}
	return e.Code.String()
}

func (e *Err) Unwrap() error { return e.cause }

// Is lets errors.Is(err, tripapi.ErrInvalidArgument) (or any of the
// sentinels below) work by matching on Code rather than identity, so
// the message and cause of err do not matter.
func (e *Err) Is(target error) bool {
	t, ok := target.(*Err)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewInvalidArgument builds an InvalidArgument error with a message.
func NewInvalidArgument(format string, args ...any) error {
	return &Err{Code: InvalidArgument, msg: fmt.Sprintf(format, args...)}
}

// NewPointNotFound builds a PointNotFound error for request point idx.
func NewPointNotFound(idx int) error {
	return &Err{Code: PointNotFound, Index: idx, msg: fmt.Sprintf("point %d could not be snapped to the walk network", idx)}
}

// NewResourceExhausted wraps the cause of an exhausted search budget.
func NewResourceExhausted(cause error) error {
	return &Err{Code: ResourceExhausted, cause: cause}
}

// NewInternal wraps an invariant violation. Callers should log it once
// at the boundary; it should never reach an end user unmodified.
func NewInternal(cause error) error {
	return &Err{Code: Internal, cause: cause}
}

// CodeOf extracts the Code from err, defaulting to Internal for errors
// that didn't originate from this package.
func CodeOf(err error) Code {
	var e *Err
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}

// IndexOf extracts the PointNotFound index from err, or -1 if err is
// not a PointNotFound error.
func IndexOf(err error) int {
	var e *Err
	if errors.As(err, &e) && e.Code == PointNotFound {
		return e.Index
	}
	return -1
}

// sentinels usable with errors.Is(err, tripapi.ErrInvalidArgument) when
// the caller only cares about the code, not the message.
var (
	ErrInvalidArgument   = &Err{Code: InvalidArgument}
	ErrPointNotFound     = &Err{Code: PointNotFound}
	ErrResourceExhausted = &Err{Code: ResourceExhausted}
	ErrInternal          = &Err{Code: Internal}
)
