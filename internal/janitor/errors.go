package janitor

import "errors"

// ErrAborted signals that the liveness gate dropped mid-operation. It is a
// normal retry trigger, not a fault.
var ErrAborted = errors.New("cleanup aborted: process not foreground and runnable")

// ErrExhausted signals that the retry budget was spent without a successful
// pass. No partial results exist and no metadata was persisted.
var ErrExhausted = errors.New("cleanup retries exhausted")

// ErrInProgress signals a re-entrant Run while a cleanup is already active.
var ErrInProgress = errors.New("cleanup already in progress")
