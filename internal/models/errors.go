package models

import (
	"errors"
	"fmt"
)

// Stage names the half of an ingestion an error belongs to.
type Stage string

const (
	StageProfile Stage = "profile"
	StagePosts   Stage = "posts"
)

var (
	// ErrInvalidPrecision is returned for an unknown date precision token.
	ErrInvalidPrecision = errors.New("invalid precision: must be year, month or day")
	// ErrChallengeRequired means the upstream wants interactive verification.
	ErrChallengeRequired = errors.New("upstream requires an interactive challenge")
	// ErrSessionExpired means the stored or active cookies are no longer accepted.
	ErrSessionExpired = errors.New("upstream session expired")
	// ErrNotFound is returned by stores and the upstream for missing records.
	ErrNotFound = errors.New("not found")
	// ErrSessionUnavailable is returned once the session manager has failed.
	ErrSessionUnavailable = errors.New("session unavailable")
	// ErrSuspended is returned while ingestion is administratively suspended.
	ErrSuspended = errors.New("ingestion suspended")
)

// SessionInitError means no authenticated session could be obtained.
type SessionInitError struct {
	Credential string
	Err        error
}

func (e *SessionInitError) Error() string {
	return fmt.Sprintf("session init for %s: %v", e.Credential, e.Err)
}

func (e *SessionInitError) Unwrap() error { return e.Err }

// FetchError means an upstream call failed. Retrying later may succeed.
type FetchError struct {
	Stage Stage
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Stage, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError means upstream data did not have the expected shape.
type ParseError struct {
	Stage  Stage
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error while processing %s: %s", e.Stage, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError wraps err as a ParseError for stage.
func NewParseError(stage Stage, err error) *ParseError {
	return &ParseError{Stage: stage, Detail: err.Error(), Err: err}
}
