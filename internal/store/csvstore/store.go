package csvstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tellerline/teller/internal/model"
)

// Store keeps the customer directory in a single CSV file.
type Store struct {
	path   string
	schema Schema
}

// New returns a Store for path writing the given schema.
func New(path string, schema Schema) *Store {
	return &Store{path: path, schema: schema}
}

// Load reads every customer. A missing file is returned as an error that
// matches fs.ErrNotExist.
func (s *Store) Load() ([]model.Customer, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening customers file: %w", err)
	}
	defer f.Close()

	customers, err := ReadCustomers(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return customers, nil
}

// Save replaces the file with the given customers. The rows go to a
// temporary file in the same directory which is then renamed over the
// existing file, so a failed write leaves the previous contents in place.
func (s *Store) Save(customers []model.Customer) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := WriteCustomers(tmp, s.schema, customers); err != nil {
		tmp.Close()
		return fmt.Errorf("writing customers: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing customers file: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Save.
func (s *Store) Close() error {
	return nil
}
