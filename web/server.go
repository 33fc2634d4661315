// Package web exposes the ledger over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/billbatista/acasinha-ledger/eventlogger"
	"github.com/billbatista/acasinha-ledger/ledger"
	"github.com/billbatista/acasinha-ledger/middleware"
	"github.com/billbatista/acasinha-ledger/session"
	"github.com/billbatista/acasinha-ledger/split"
	"github.com/billbatista/acasinha-ledger/user"
	chimiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

// filterAll is the listing filter value meaning "no restriction".
const filterAll = "All"

type ExpenseService interface {
	AddExpense(ctx context.Context, in ledger.ExpenseInput) (ledger.Entry, ledger.Summary, error)
	Balance(ctx context.Context) (ledger.Summary, error)
	Recent(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error)
	Names() ledger.Names
	Categories() []string
}

type Authenticator interface {
	Authenticate(name, password string) (user.User, error)
}

type EventLog interface {
	Log(event eventlogger.Event)
}

type EventReader interface {
	GetByType(ctx context.Context, eventType string, limit int) ([]eventlogger.Event, error)
}

type Server struct {
	expenses ExpenseService
	sessions session.Repository
	auth     Authenticator
	events   EventLog
	history  EventReader
	secure   bool
}

type Option func(*Server)

// WithSecureCookies marks session cookies Secure, for deployments behind TLS.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) {
		s.secure = secure
	}
}

func NewServer(expenses ExpenseService, sessions session.Repository, auth Authenticator, events EventLog, history EventReader, opts ...Option) *Server {
	s := &Server{
		expenses: expenses,
		sessions: sessions,
		auth:     auth,
		events:   events,
		history:  history,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.AuthMiddleware(s.sessions))

	router.Get("/health", s.health)
	router.Post("/login", s.login)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth())

		r.Post("/logout", s.logout)
		r.Post("/expenses", s.addExpense)
		r.Get("/expenses", s.listExpenses)
		r.Get("/balance", s.balance)
		r.Get("/categories", s.categories)
		r.Get("/notifications", s.notifications)
	})

	return router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	u, err := s.auth.Authenticate(r.FormValue("name"), r.FormValue("password"))
	if err != nil {
		http.Error(w, "invalid name or password", http.StatusUnauthorized)
		return
	}

	sess, err := s.sessions.Create(r.Context(), u.Party)
	if err != nil {
		slog.Error("failed to create session", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(eventlogger.TypePartyLoggedIn),
		eventlogger.WithData(map[string]string{
			"party":      u.Party.String(),
			"name":       u.Name,
			"session_id": sess.ID.String(),
		}),
	))

	writeJSON(w, http.StatusOK, u)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	party, _ := middleware.GetParty(r.Context())

	var err error
	if r.FormValue("all") == "true" {
		err = s.sessions.DeleteByParty(r.Context(), party)
	} else if cookie, cerr := r.Cookie(session.CookieName); cerr == nil {
		err = s.sessions.Delete(r.Context(), cookie.Value)
	}
	if err != nil {
		slog.Error("failed to delete session", "error", err)
	}

	middleware.ClearSessionCookie(w)

	s.events.Log(eventlogger.NewEvent(
		eventlogger.WithType(eventlogger.TypePartyLoggedOut),
		eventlogger.WithData(map[string]string{"party": party.String()}),
	))

	w.WriteHeader(http.StatusNoContent)
}

type expenseResponse struct {
	Expense ledger.Entry   `json:"expense"`
	Balance ledger.Summary `json:"balance"`
}

func (s *Server) addExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	in := ledger.ExpenseInput{
		Description: r.FormValue("description"),
		Cost:        r.FormValue("amount"),
		Payer:       r.FormValue("paid_by"),
		Category:    r.FormValue("category"),
		Date:        r.FormValue("date"),
		Split: split.Config{
			A: split.ParsePercent(r.FormValue("split_a")),
			B: split.ParsePercent(r.FormValue("split_b")),
		},
	}
	if in.Payer == "" {
		if party, ok := middleware.GetParty(r.Context()); ok {
			in.PayerParty = &party
		}
	}

	entry, summary, err := s.expenses.AddExpense(r.Context(), in)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, expenseResponse{Expense: entry, Balance: summary})
}

type listResponse struct {
	Count    int            `json:"count"`
	Expenses []ledger.Entry `json:"expenses"`
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := s.parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := s.expenses.Recent(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list expenses", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}

	writeJSON(w, http.StatusOK, listResponse{Count: len(entries), Expenses: entries})
}

func (s *Server) parseFilter(r *http.Request) (ledger.Filter, error) {
	q := r.URL.Query()
	var filter ledger.Filter

	if v := q.Get("paid_by"); v != "" && v != filterAll {
		party, err := s.expenses.Names().Payer(v)
		if err != nil {
			return filter, err
		}
		filter.Payer = &party
	}
	if v := q.Get("category"); v != "" && v != filterAll {
		filter.Category = v
	}

	var err error
	if filter.From, err = ledger.ParseDay(q.Get("from")); err != nil {
		return filter, err
	}
	if filter.To, err = ledger.ParseDay(q.Get("to")); err != nil {
		return filter, err
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return filter, errors.New("limit must be a non-negative integer")
		}
		filter.Limit = n
	}
	return filter, nil
}


func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	summary, err := s.expenses.Balance(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	categories := s.expenses.Categories()
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, categories)
}

type notification struct {
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) notifications(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}

	events, err := s.history.GetByType(r.Context(), eventlogger.TypeExpenseFailed, limit)
	if err != nil {
		slog.Error("failed to load notifications", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	out := make([]notification, 0, len(events))
	for _, e := range events {
		var data struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(e.Data, &data); err != nil {
			continue
		}
		out = append(out, notification{Message: data.Message, CreatedAt: e.CreatedAt})
	}

	writeJSON(w, http.StatusOK, out)
}

func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidPayer),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidDate),
		errors.Is(err, ledger.ErrInvalidCategory):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrLedgerInvariant):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		slog.Error("ledger request failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
