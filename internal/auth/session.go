package auth

import (
	"sync/atomic"
	"time"
)

// Session binds an authenticated caller to one customer. It carries only
// the account ID; the customer record stays in the directory.
type Session struct {
	token     string
	accountID string
	issuedAt  time.Time
	closed    atomic.Bool
}

// Token is the opaque handle given to the caller.
func (s *Session) Token() string { return s.token }

// AccountID is the customer this session acts for.
func (s *Session) AccountID() string { return s.accountID }

// IssuedAt is when the session was created.
func (s *Session) IssuedAt() time.Time { return s.issuedAt }

// Valid reports whether the session has not been invalidated.
func (s *Session) Valid() bool {
	return s != nil && !s.closed.Load()
}

// Invalidate closes the session. It returns true only for the call that
// closed it.
func (s *Session) Invalidate() bool {
	return s.closed.CompareAndSwap(false, true)
}

// Check returns ErrSessionClosed for nil or invalidated sessions.
func (s *Session) Check() error {
	if !s.Valid() {
		return ErrSessionClosed
	}
	return nil
}
