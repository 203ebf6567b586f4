package domain

import (
	"errors"
	"fmt"
)

// ErrVariantNotFound is returned when a wizard variant is not registered.
var ErrVariantNotFound = errors.New("variant not found")

// ErrStepNotFound is returned when a step id is not part of the active variant.
var ErrStepNotFound = errors.New("step not found")

// ErrInvalidTransition is returned for navigation requests that can never be
// legal, such as jumping to an out-of-range index.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrInvalidPatch is returned for draft patches that cannot be merged, such as
// an empty section name or a value that has no JSON form.
var ErrInvalidPatch = errors.New("invalid patch")

// ErrSessionClosed is returned when a completed or cancelled session is asked to move.
var ErrSessionClosed = errors.New("session closed")

// ErrSessionNotFound is returned when no live session exists for a key.
var ErrSessionNotFound = errors.New("session not found")

// ErrCheckpointNotFound is returned when no progress record exists for a key.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// ErrCheckpointExpired is returned when a progress record exists but is past ExpiresAt.
// It matches ErrCheckpointNotFound with errors.Is.
var ErrCheckpointExpired = fmt.Errorf("%w: expired", ErrCheckpointNotFound)

// ErrSubmissionFailed wraps failures reported by the submission collaborator.
var ErrSubmissionFailed = errors.New("submission failed")
