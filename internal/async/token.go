package async

import (
	"sync"
	"time"
)

// CancellationToken is a cooperative cancellation signal with an optional
// deadline. Once cancelled, manually or by deadline, it never reverts.
type CancellationToken struct {
	mu          sync.Mutex
	cancelled   bool
	hasDeadline bool
	deadline    time.Time
}

// NewCancellationToken returns a token that only cancels manually.
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{}
}

// NewCancellationTokenWithTimeout returns a token that auto-cancels once
// timeout has elapsed from construction.
func NewCancellationTokenWithTimeout(timeout time.Duration) *CancellationToken {
	return &CancellationToken{
		hasDeadline: true,
		deadline:    time.Now().Add(timeout),
	}
}

// Cancel latches the token. Idempotent.
func (t *CancellationToken) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = true
}

// IsCancelled reports whether the token is cancelled. The first
// observation of an exceeded deadline latches the flag, so repeated
// queries stay consistent.
func (t *CancellationToken) IsCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancelled {
		return true
	}
	if t.hasDeadline && time.Now().After(t.deadline) {
		t.cancelled = true
		return true
	}
	return false
}
