package directory

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tellerline/teller/internal/model"
	"github.com/tellerline/teller/internal/store/csvstore"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

// memStore records saves and can be told to fail.
type memStore struct {
	mu      sync.Mutex
	rows    []model.Customer
	saves   int
	failErr error
	loadErr error
}

func (m *memStore) Load() ([]model.Customer, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.rows, nil
}

func (m *memStore) Save(customers []model.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.failErr != nil {
		return m.failErr
	}
	m.rows = customers
	return nil
}

func onboard(t *testing.T, s *Service, accountID string) model.Customer {
	t.Helper()
	c, err := s.Onboard(OnboardParams{
		AccountID: accountID, FirstName: "Unit", LastName: "Test", Password: "pw123",
		Checking: dec("100"), Savings: dec("50"),
	})
	require.NoError(t, err)
	return c
}

func TestOnboard(t *testing.T) {
	store := &memStore{}
	s := New(store, Options{})

	c := onboard(t, s, "3001")
	assert.Equal(t, "3001", c.AccountID)
	assert.True(t, c.Checking.Active)
	assert.True(t, c.Savings.Balance.Equal(dec("50")))
	assert.Equal(t, 1, store.saves, "onboarding writes immediately")
	require.Len(t, store.rows, 1)

	got, ok := s.Lookup("3001")
	require.True(t, ok)
	assert.Equal(t, c, got)
}

func TestOnboard_DefaultsToZeroBalances(t *testing.T) {
	s := New(&memStore{}, Options{})
	c, err := s.Onboard(OnboardParams{AccountID: "3002", FirstName: "New", LastName: "Customer", Password: "pw123"})
	require.NoError(t, err)
	assert.True(t, c.Checking.Balance.IsZero())
	assert.Equal(t, "New", c.FirstName)
}

func TestOnboard_Duplicate(t *testing.T) {
	store := &memStore{}
	s := New(store, Options{})
	onboard(t, s, "3001")

	_, err := s.Onboard(OnboardParams{AccountID: " 3001 ", FirstName: "Other"})
	require.ErrorIs(t, err, ErrDuplicateAccountID)
	assert.Equal(t, 1, store.saves)

	got, _ := s.Lookup("3001")
	assert.Equal(t, "Unit", got.FirstName)
}

func TestOnboard_Invalid(t *testing.T) {
	s := New(&memStore{}, Options{})

	_, err := s.Onboard(OnboardParams{AccountID: "a,b"})
	assert.ErrorIs(t, err, ErrInvalidAccountID)

	_, err = s.Onboard(OnboardParams{AccountID: "9", Checking: dec("-1")})
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
	assert.Equal(t, 0, s.Len())
}

func TestOnboard_SubCentOpeningBalance(t *testing.T) {
	store := &memStore{}
	s := New(store, Options{})

	_, err := s.Onboard(OnboardParams{AccountID: "9", Savings: dec("10.005")})
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, store.rows)
}

func TestOnboard_PersistFailureKeepsCustomer(t *testing.T) {
	store := &memStore{failErr: errors.New("disk full")}
	s := New(store, Options{})

	c, err := s.Onboard(OnboardParams{AccountID: "1", FirstName: "A"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	var pe *PersistError
	require.ErrorAs(t, err, &pe)
	assert.EqualError(t, pe.Err, "disk full")

	assert.Equal(t, "1", c.AccountID)
	assert.True(t, s.Exists("1"))
}

func TestLoad_MissingStoreIsEmpty(t *testing.T) {
	store := csvstore.New(filepath.Join(t.TempDir(), "bank.csv"), csvstore.SchemaLegacy)
	s, err := Load(store, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestLoad_Error(t *testing.T) {
	_, err := Load(&memStore{loadErr: errors.New("corrupt")}, Options{})
	assert.Error(t, err)
}

func TestLoad_DuplicateRowsLaterWins(t *testing.T) {
	store := &memStore{rows: []model.Customer{
		{AccountID: "1", FirstName: "first"},
		{AccountID: "1", FirstName: "second"},
	}}
	s, err := Load(store, Options{})
	require.NoError(t, err)
	got, _ := s.Lookup("1")
	assert.Equal(t, "second", got.FirstName)
}

func TestListAndIDs(t *testing.T) {
	s := New(&memStore{}, Options{})
	for _, k := range []string{"20002", "3001", "abc"} {
		onboard(t, s, k)
	}

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "3001", list[0].AccountID)
	assert.Equal(t, "20002", list[1].AccountID)
	assert.Equal(t, []string{"3001", "20002", "abc"}, s.IDs())
}

func TestNextID(t *testing.T) {
	s := New(&memStore{}, Options{})
	assert.Equal(t, "10001", s.NextID(10001))

	onboard(t, s, "10001")
	onboard(t, s, "abc")
	assert.Equal(t, "10002", s.NextID(10001))

	onboard(t, s, "50000")
	assert.Equal(t, "50001", s.NextID(10001))
}

func TestMutate(t *testing.T) {
	s := New(&memStore{}, Options{})
	onboard(t, s, "1")
	onboard(t, s, "2")

	err := s.Mutate([]string{"2", "1", "2"}, func(live map[string]*model.Customer) error {
		require.Len(t, live, 2)
		live["1"].Checking.Balance = dec("7")
		return nil
	})
	require.NoError(t, err)

	got, _ := s.Lookup("1")
	assert.True(t, got.Checking.Balance.Equal(dec("7")))
}

func TestMutate_NotFound(t *testing.T) {
	s := New(&memStore{}, Options{})
	onboard(t, s, "1")

	called := false
	err := s.Mutate([]string{"1", "404"}, func(map[string]*model.Customer) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, called)
}

func TestMutate_CrossingPairsDoNotDeadlock(t *testing.T) {
	s := New(&memStore{}, Options{})
	onboard(t, s, "1")
	onboard(t, s, "2")

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Mutate([]string{"1", "2"}, func(live map[string]*model.Customer) error {
				live["1"].Checking.Balance = live["1"].Checking.Balance.Sub(dec("1"))
				live["2"].Checking.Balance = live["2"].Checking.Balance.Add(dec("1"))
				return nil
			})
		}()
		go func() {
			defer wg.Done()
			_ = s.Mutate([]string{"2", "1"}, func(live map[string]*model.Customer) error {
				live["2"].Checking.Balance = live["2"].Checking.Balance.Sub(dec("1"))
				live["1"].Checking.Balance = live["1"].Checking.Balance.Add(dec("1"))
				return nil
			})
			_ = s.PersistAll()
		}()
	}
	wg.Wait()

	a, _ := s.Lookup("1")
	b, _ := s.Lookup("2")
	assert.True(t, a.Checking.Balance.Equal(dec("100")))
	assert.True(t, b.Checking.Balance.Equal(dec("100")))
}

func TestRoundTripThroughCSV(t *testing.T) {
	for _, schema := range []csvstore.Schema{csvstore.SchemaLegacy, csvstore.SchemaSplit} {
		t.Run(string(schema), func(t *testing.T) {
			store := csvstore.New(filepath.Join(t.TempDir(), "bank.csv"), schema)
			s := New(store, Options{})
			onboard(t, s, "3001")
			onboard(t, s, "3002")

			// Give checking an overdraft history; savings stays clean.
			require.NoError(t, s.Mutate([]string{"3001"}, func(live map[string]*model.Customer) error {
				live["3001"].Checking = model.Account{Balance: dec("-85"), Active: true, OverdraftCount: 1}
				return nil
			}))
			require.NoError(t, s.PersistAll())

			reloaded, err := Load(store, Options{})
			require.NoError(t, err)

			for _, want := range s.List() {
				got, ok := reloaded.Lookup(want.AccountID)
				require.True(t, ok)
				assert.True(t, want.Checking.Balance.Equal(got.Checking.Balance))
				assert.True(t, want.Savings.Balance.Equal(got.Savings.Balance))
				assert.Equal(t, want.Checking.Active, got.Checking.Active)
				assert.Equal(t, want.Checking.OverdraftCount, got.Checking.OverdraftCount)
				if schema == csvstore.SchemaSplit {
					assert.Equal(t, want.Savings.OverdraftCount, got.Savings.OverdraftCount)
				} else {
					// Shared status column: savings comes back with checking's status.
					assert.Equal(t, want.Checking.OverdraftCount, got.Savings.OverdraftCount)
				}
			}
		})
	}
}
