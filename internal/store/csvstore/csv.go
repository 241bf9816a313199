package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tellerline/teller/internal/model"
)

// Schema selects the status columns written to the customers file.
type Schema string

const (
	// SchemaLegacy stores one active/overdraft_count pair shared by checking
	// and savings. It is the format of existing bank.csv files.
	SchemaLegacy Schema = "legacy"
	// SchemaSplit adds savings_active and savings_overdraft_count.
	SchemaSplit Schema = "split"
)

// ParseSchema validates a schema name; empty means legacy.
func ParseSchema(s string) (Schema, error) {
	switch Schema(strings.ToLower(s)) {
	case "", SchemaLegacy:
		return SchemaLegacy, nil
	case SchemaSplit:
		return SchemaSplit, nil
	default:
		return "", fmt.Errorf("unknown store schema %q", s)
	}
}

const (
	colID             = "id"
	colFirstName      = "first_name"
	colLastName       = "last_name"
	colPassword       = "password"
	colChecking       = "checking"
	colSavings        = "savings"
	colActive         = "active"
	colOverdrafts     = "overdraft_count"
	colSavingsActive  = "savings_active"
	colSavingsOverdue = "savings_overdraft_count"
)

var (
	legacyHeader = []string{colID, colFirstName, colLastName, colPassword, colChecking, colSavings, colActive, colOverdrafts}
	splitHeader  = append(append([]string{}, legacyHeader...), colSavingsActive, colSavingsOverdue)
)

// Header returns the column names written for schema.
func Header(schema Schema) []string {
	if schema == SchemaSplit {
		return append([]string{}, splitHeader...)
	}
	return append([]string{}, legacyHeader...)
}

// ReadCustomers reads a customers file. Columns are located by header name,
// so column order and extra columns do not matter. Unparseable balances and
// counts read as zero and unparseable flags as false; only a structurally
// broken file or a missing id column is an error. Rows with a blank id are
// skipped.
func ReadCustomers(r io.Reader) ([]model.Customer, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading customers CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols[colID]; !ok {
		return nil, errors.New("reading customers CSV: header has no id column")
	}

	var customers []model.Customer
	for _, rec := range records[1:] {
		cust := UnmarshalCustomer(cols, rec)
		if cust.AccountID == "" {
			continue
		}
		customers = append(customers, cust)
	}
	return customers, nil
}

// WriteCustomers writes a header and one row per customer.
func WriteCustomers(w io.Writer, schema Schema, customers []model.Customer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header(schema)); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, c := range customers {
		if err := cw.Write(MarshalCustomer(schema, c)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalCustomer converts a Customer to a CSV row. The legacy schema keeps
// only the checking account's status.
func MarshalCustomer(schema Schema, c model.Customer) []string {
	row := []string{
		c.AccountID,
		c.FirstName,
		c.LastName,
		c.Password,
		c.Checking.Balance.StringFixed(2),
		c.Savings.Balance.StringFixed(2),
		formatBool(c.Checking.Active),
		strconv.Itoa(c.Checking.OverdraftCount),
	}
	if schema == SchemaSplit {
		row = append(row, formatBool(c.Savings.Active), strconv.Itoa(c.Savings.OverdraftCount))
	}
	return row
}

// UnmarshalCustomer converts a CSV row to a Customer using the header
// positions in cols. Without savings status columns the savings account
// shares the checking account's status.
func UnmarshalCustomer(cols map[string]int, record []string) model.Customer {
	field := func(name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[i]), true
	}

	id, _ := field(colID)
	first, _ := field(colFirstName)
	last, _ := field(colLastName)
	pw, _ := field(colPassword)

	checking := model.Account{
		Balance:        parseAmount(field(colChecking)),
		Active:         parseActive(field(colActive)),
		OverdraftCount: parseCount(field(colOverdrafts)),
	}
	savings := model.Account{
		Balance:        parseAmount(field(colSavings)),
		Active:         checking.Active,
		OverdraftCount: checking.OverdraftCount,
	}
	if s, ok := field(colSavingsActive); ok {
		savings.Active = parseActive(s, true)
	}
	if s, ok := field(colSavingsOverdue); ok {
		savings.OverdraftCount = parseCount(s, true)
	}

	return model.Customer{
		AccountID: id,
		FirstName: first,
		LastName:  last,
		Password:  pw,
		Checking:  checking,
		Savings:   savings,
	}
}

func parseAmount(s string, present bool) decimal.Decimal {
	if !present {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d.Round(model.AmountPlaces)
}

// parseActive treats a missing column as active. A present value is active
// only when it is exactly "True", the spelling formatBool writes.
func parseActive(s string, present bool) bool {
	if !present {
		return true
	}
	return s == formatBool(true)
}

func parseCount(s string, present bool) int {
	if !present {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
