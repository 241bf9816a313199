package directory

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tellerline/teller/internal/id"
	"github.com/tellerline/teller/internal/metrics"
	"github.com/tellerline/teller/internal/model"
)

// Store is the durable record store behind the directory.
type Store interface {
	Load() ([]model.Customer, error)
	Save(customers []model.Customer) error
}

// Options configures a Service. Zero values are replaced with no-op defaults.
type Options struct {
	Logger  *zap.Logger
	Metrics metrics.Collector
}

type entry struct {
	mu       sync.Mutex
	customer model.Customer
}

// Service is the in-memory customer registry, keyed by account ID.
//
// mu guards the map and is held exclusively while a snapshot is written to
// the store. Mutations hold mu shared plus the mutex of every customer they
// touch, taken in id.Compare order.
type Service struct {
	mu        sync.RWMutex
	customers map[string]*entry
	store     Store
	logger    *zap.Logger
	metrics   metrics.Collector
}

// New creates an empty Service backed by store.
func New(store Store, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoOpCollector{}
	}
	return &Service{
		customers: make(map[string]*entry),
		store:     store,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Load creates a Service from the store's current contents. A store whose
// backing file does not exist yet yields an empty directory and a warning.
func Load(store Store, opts Options) (*Service, error) {
	s := New(store, opts)

	customers, err := store.Load()
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("record store not found, starting with an empty directory", zap.Error(err))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading directory: %w", err)
	}

	for _, c := range customers {
		if _, dup := s.customers[c.AccountID]; dup {
			s.logger.Warn("duplicate account ID in record store, keeping the later row",
				zap.String("account_id", c.AccountID))
		}
		s.customers[c.AccountID] = &entry{customer: c}
	}
	s.metrics.SetCustomers(len(s.customers))
	s.logger.Debug("directory loaded", zap.Int("customers", len(s.customers)))
	return s, nil
}

// Lookup returns a copy of the customer with the given account ID.
func (s *Service) Lookup(accountID string) (model.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.customers[accountID]
	if !ok {
		return model.Customer{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.customer, true
}

// Exists reports whether an account ID is registered.
func (s *Service) Exists(accountID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.customers[accountID]
	return ok
}

// Len returns the number of customers.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.customers)
}

// IDs returns every account ID in id.Compare order.
func (s *Service) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.customers))
	for k := range s.customers {
		ids = append(ids, k)
	}
	slices.SortFunc(ids, id.Compare)
	return ids
}

// NextID suggests an unused numeric account ID, starting at first.
func (s *Service) NextID(first int) string {
	return id.Next(s.IDs(), first)
}

// List returns copies of all customers ordered by account ID.
func (s *Service) List() []model.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// OnboardParams describes a new customer.
type OnboardParams struct {
	AccountID string
	FirstName string
	LastName  string
	Password  string
	Checking  decimal.Decimal
	Savings   decimal.Decimal
}

// Onboard registers a new customer with active accounts holding the opening
// balances and writes the directory. If only the write fails, the customer
// is returned together with a *PersistError and stays registered.
func (s *Service) Onboard(p OnboardParams) (model.Customer, error) {
	accountID, err := id.Normalize(p.AccountID)
	if err != nil {
		return model.Customer{}, fmt.Errorf("%w: %w", ErrInvalidAccountID, err)
	}
	if p.Checking.IsNegative() || p.Savings.IsNegative() {
		return model.Customer{}, fmt.Errorf("opening balance: %w", model.ErrInvalidAmount)
	}
	for _, opening := range []decimal.Decimal{p.Checking, p.Savings} {
		if err := model.CheckPrecision(opening); err != nil {
			return model.Customer{}, fmt.Errorf("opening balance %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.customers[accountID]; dup {
		return model.Customer{}, fmt.Errorf("%w: %s", ErrDuplicateAccountID, accountID)
	}

	c := model.Customer{
		AccountID: accountID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Password:  p.Password,
		Checking:  model.NewAccount(p.Checking),
		Savings:   model.NewAccount(p.Savings),
	}
	s.customers[accountID] = &entry{customer: c}
	s.metrics.SetCustomers(len(s.customers))
	s.logger.Info("customer onboarded", zap.String("account_id", accountID))

	return c, s.persistLocked()
}

// Mutate runs fn with exclusive access to the named customers. The map
// passed to fn holds live records; changes made through it are kept even if
// fn returns an error, so fn must validate before it mutates. Unknown IDs
// fail with ErrNotFound before fn runs.
//
// Mutate does not persist; call PersistAll afterwards.
func (s *Service) Mutate(ids []string, fn func(map[string]*model.Customer) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := slices.Clone(ids)
	slices.SortFunc(ordered, id.Compare)
	ordered = slices.Compact(ordered)

	entries := make([]*entry, 0, len(ordered))
	for _, k := range ordered {
		e, ok := s.customers[k]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, k)
		}
		entries = append(entries, e)
	}

	live := make(map[string]*model.Customer, len(entries))
	for i, e := range entries {
		e.mu.Lock()
		defer e.mu.Unlock()
		live[ordered[i]] = &e.customer
	}
	return fn(live)
}

// PersistAll writes the whole directory to the store. A failure is returned
// as a *PersistError; the in-memory state is left as it is.
func (s *Service) PersistAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *Service) persistLocked() error {
	snapshot := s.snapshotLocked()

	start := time.Now()
	err := s.store.Save(snapshot)
	s.metrics.RecordPersist(err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("persisting directory failed", zap.Int("customers", len(snapshot)), zap.Error(err))
		return &PersistError{Err: err}
	}
	return nil
}

// snapshotLocked copies every customer. The caller holds mu exclusively,
// which excludes every Mutate and Lookup.
func (s *Service) snapshotLocked() []model.Customer {
	out := make([]model.Customer, 0, len(s.customers))
	for _, e := range s.customers {
		out = append(out, e.customer)
	}
	slices.SortFunc(out, func(a, b model.Customer) int {
		return id.Compare(a.AccountID, b.AccountID)
	})
	return out
}

// Close releases the store if it holds resources.
func (s *Service) Close() error {
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
