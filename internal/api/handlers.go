package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/tellerline/teller/internal/auth"
	"github.com/tellerline/teller/internal/directory"
	"github.com/tellerline/teller/internal/engine"
	"github.com/tellerline/teller/internal/model"
)

type accountView struct {
	Balance        decimal.Decimal `json:"balance"`
	Active         bool            `json:"active"`
	OverdraftCount int             `json:"overdraft_count"`
}

type customerView struct {
	AccountID string       `json:"account_id"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Checking  *accountView `json:"checking,omitempty"`
	Savings   *accountView `json:"savings,omitempty"`
}

type postingView struct {
	AccountID string `json:"account_id"`
	Kind      string `json:"kind"`
	accountView
}

type receiptView struct {
	Operation   string          `json:"operation"`
	Amount      decimal.Decimal `json:"amount"`
	Source      *postingView    `json:"source,omitempty"`
	Destination *postingView    `json:"destination,omitempty"`
	Penalized   bool            `json:"penalized"`
	Deactivated bool            `json:"deactivated"`
	Reactivated bool            `json:"reactivated"`
	Canceled    bool            `json:"canceled"`
}

func newAccountView(a model.Account) *accountView {
	return &accountView{Balance: a.Balance, Active: a.Active, OverdraftCount: a.OverdraftCount}
}

func newPostingView(p *engine.Posting) *postingView {
	if p == nil {
		return nil
	}
	return &postingView{AccountID: p.AccountID, Kind: string(p.Kind), accountView: *newAccountView(p.Account)}
}

func newReceiptView(r engine.Receipt) *receiptView {
	return &receiptView{
		Operation:   string(r.Operation),
		Amount:      r.Amount,
		Source:      newPostingView(r.Source),
		Destination: newPostingView(r.Destination),
		Penalized:   r.Penalized,
		Deactivated: r.Deactivated,
		Reactivated: r.Reactivated,
		Canceled:    r.Canceled,
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"customers": s.dir.Len(),
	})
}

type loginRequest struct {
	AccountID string `json:"account_id"`
	Password  string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	sess, err := s.gateway.Authenticate(req.AccountID, req.Password)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"token":      sess.Token(),
		"account_id": sess.AccountID(),
		"issued_at":  sess.IssuedAt().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.gateway.Logout(sessionFrom(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers := s.dir.List()
	out := make([]customerView, 0, len(customers))
	for _, c := range customers {
		out = append(out, customerView{AccountID: c.AccountID, FirstName: c.FirstName, LastName: c.LastName})
	}
	writeJSON(w, http.StatusOK, out)
}

type onboardRequest struct {
	AccountID string          `json:"account_id"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Password  string          `json:"password"`
	Checking  decimal.Decimal `json:"checking"`
	Savings   decimal.Decimal `json:"savings"`
}

func (s *Server) handleOnboard(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "password is required")
		return
	}
	if req.AccountID == "" {
		req.AccountID = s.dir.NextID(s.opts.FirstAccountID)
	}
	password := req.Password
	if s.opts.HashPasswords {
		hashed, err := auth.HashPassword(password)
		if err != nil {
			s.fail(w, err)
			return
		}
		password = hashed
	}

	c, err := s.dir.Onboard(directory.OnboardParams{
		AccountID: req.AccountID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  password,
		Checking:  req.Checking,
		Savings:   req.Savings,
	})
	if errors.Is(err, directory.ErrPersistence) {
		view := viewCustomer(c)
		s.failWith(w, err, errorBody{Customer: &view})
		return
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewCustomer(c))
}

func viewCustomer(c model.Customer) customerView {
	return customerView{
		AccountID: c.AccountID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Checking:  newAccountView(c.Checking),
		Savings:   newAccountView(c.Savings),
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	c, err := s.engine.Customer(sessionFrom(r))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewCustomer(c))
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	s.handleSingle(w, r, s.engine.Deposit)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.handleSingle(w, r, s.engine.Withdraw)
}

type singleOp func(*auth.Session, model.AccountKind, decimal.Decimal) (engine.Receipt, error)

func (s *Server) handleSingle(w http.ResponseWriter, r *http.Request, op singleOp) {
	kind, err := model.ParseAccountKind(mux.Vars(r)["kind"])
	if err != nil {
		s.fail(w, err)
		return
	}
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	receipt, err := op(sessionFrom(r), kind, req.Amount)
	s.respond(w, receipt, err)
}

type transferRequest struct {
	ToAccountID string          `json:"to_account_id,omitempty"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
}

func (s *Server) parseTransfer(w http.ResponseWriter, r *http.Request) (transferRequest, model.AccountKind, model.AccountKind, bool) {
	var req transferRequest
	if !decode(w, r, &req) {
		return req, "", "", false
	}
	from, err := model.ParseAccountKind(req.From)
	if err != nil {
		s.fail(w, err)
		return req, "", "", false
	}
	to, err := model.ParseAccountKind(req.To)
	if err != nil {
		s.fail(w, err)
		return req, "", "", false
	}
	return req, from, to, true
}

func (s *Server) handleTransferInternal(w http.ResponseWriter, r *http.Request) {
	req, from, to, ok := s.parseTransfer(w, r)
	if !ok {
		return
	}
	receipt, err := s.engine.TransferInternal(sessionFrom(r), from, to, req.Amount)
	s.respond(w, receipt, err)
}

func (s *Server) handleTransferExternal(w http.ResponseWriter, r *http.Request) {
	req, from, to, ok := s.parseTransfer(w, r)
	if !ok {
		return
	}
	if req.ToAccountID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "to_account_id is required")
		return
	}
	receipt, err := s.engine.TransferExternal(sessionFrom(r), req.ToAccountID, from, to, req.Amount)
	s.respond(w, receipt, err)
}

// respond writes a receipt. A canceled external transfer is still a 200:
// the debit happened and the receipt says so.
func (s *Server) respond(w http.ResponseWriter, receipt engine.Receipt, err error) {
	if err != nil {
		var body errorBody
		if errors.Is(err, engine.ErrPersistence) {
			body.Receipt = newReceiptView(receipt)
		}
		s.failWith(w, err, body)
		return
	}
	writeJSON(w, http.StatusOK, newReceiptView(receipt))
}
