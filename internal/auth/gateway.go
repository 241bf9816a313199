package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tellerline/teller/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid account ID or password")
	ErrSessionClosed      = errors.New("session is closed")
	ErrUnknownSession     = errors.New("unknown session token")
)

// CustomerLookup finds customers by account ID.
type CustomerLookup interface {
	Lookup(accountID string) (model.Customer, bool)
}

// Gateway checks credentials and tracks live sessions.
type Gateway struct {
	customers CustomerLookup
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewGateway creates a Gateway over the given customers.
func NewGateway(customers CustomerLookup, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		customers: customers,
		logger:    logger,
		sessions:  make(map[string]*Session),
	}
}

// Authenticate returns a new session when accountID exists and password
// matches. Unknown IDs and wrong passwords fail the same way.
func (g *Gateway) Authenticate(accountID, password string) (*Session, error) {
	c, ok := g.customers.Lookup(accountID)
	if !ok {
		// Keep the timing close to a real comparison.
		VerifyPassword("", password)
		g.logger.Info("login failed", zap.String("account_id", accountID), zap.String("reason", "unknown account"))
		return nil, ErrInvalidCredentials
	}
	if !VerifyPassword(c.Password, password) {
		g.logger.Info("login failed", zap.String("account_id", accountID), zap.String("reason", "password mismatch"))
		return nil, ErrInvalidCredentials
	}

	s := &Session{
		token:     uuid.NewString(),
		accountID: c.AccountID,
		issuedAt:  time.Now(),
	}

	g.mu.Lock()
	g.sessions[s.token] = s
	g.mu.Unlock()

	g.logger.Info("login", zap.String("account_id", c.AccountID))
	return s, nil
}

// Resolve returns the live session for token.
func (g *Gateway) Resolve(token string) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[token]
	if !ok {
		return nil, ErrUnknownSession
	}
	return s, nil
}

// Logout invalidates s and forgets it. Calling it again, or with nil, does
// nothing. Customer and account state are not touched.
func (g *Gateway) Logout(s *Session) {
	if s == nil {
		return
	}

	g.mu.Lock()
	delete(g.sessions, s.token)
	g.mu.Unlock()

	if s.Invalidate() {
		g.logger.Info("logout", zap.String("account_id", s.accountID))
	}
}

// Active returns the number of live sessions.
func (g *Gateway) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}
