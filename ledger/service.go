package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/billbatista/acasinha-ledger/money"
	"github.com/billbatista/acasinha-ledger/split"
)

const (
	DefaultCategory    = "Other"
	DefaultRecentLimit = 20
)

type Repository interface {
	Save(ctx context.Context, entry Entry) (Entry, error)
	List(ctx context.Context, filter Filter) ([]Entry, error)
	All(ctx context.Context) ([]Entry, error)
}

// Notifier surfaces a failure message to the people using the ledger.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// PostedFunc is called after an entry has been stored, with the updated balance.
type PostedFunc func(ctx context.Context, entry Entry, summary Summary)

// ExpenseInput is an expense as typed by a user. Empty fields take defaults.
// PayerParty, when set, is used as is and Payer is ignored.
type ExpenseInput struct {
	Description string
	Cost        string
	Payer       string
	PayerParty  *Party
	Category    string
	Date        string
	Split       split.Config
}

type Service struct {
	repo       Repository
	policy     split.Policy
	split      split.Config
	names      Names
	category   string
	categories []string
	limit      int
	notifier   Notifier
	onPosted   []PostedFunc
	now        func() time.Time
}

type ServiceOption func(*Service)

func WithPolicy(p split.Policy) ServiceOption {
	return func(s *Service) {
		s.policy = p
	}
}

// WithSplit sets the configured percentages used when an expense carries none.
func WithSplit(cfg split.Config) ServiceOption {
	return func(s *Service) {
		s.split = cfg
	}
}

func WithNames(names Names) ServiceOption {
	return func(s *Service) {
		s.names = names
	}
}

func WithDefaultCategory(category string) ServiceOption {
	return func(s *Service) {
		if category != "" {
			s.category = category
		}
	}
}

// WithCategories restricts expenses to the given categories. An empty list
// accepts any category.
func WithCategories(categories []string) ServiceOption {
	return func(s *Service) {
		s.categories = nil
		for _, c := range categories {
			if c = strings.TrimSpace(c); c != "" {
				s.categories = append(s.categories, c)
			}
		}
	}
}

func WithRecentLimit(limit int) ServiceOption {
	return func(s *Service) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) {
		s.notifier = n
	}
}

func OnPosted(fn PostedFunc) ServiceOption {
	return func(s *Service) {
		s.onPosted = append(s.onPosted, fn)
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:     repo,
		policy:   split.DefaultPolicy(),
		category: DefaultCategory,
		limit:    DefaultRecentLimit,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Names() Names {
	return s.names
}

// Policy is the split policy applied to new expenses.
func (s *Service) Policy() split.Policy {
	return s.policy
}

// Categories lists the accepted categories, or nil when any is accepted.
func (s *Service) Categories() []string {
	return append([]string(nil), s.categories...)
}

// AddExpense validates and posts an expense, stores it and returns it along
// with the balance of the whole ledger afterwards. Nothing is stored when
// posting fails.
func (s *Service) AddExpense(ctx context.Context, in ExpenseInput) (Entry, Summary, error) {
	entry, err := s.prepare(in)
	if err != nil {
		s.fail(ctx, err)
		return Entry{}, Summary{}, err
	}

	saved, err := s.repo.Save(ctx, entry)
	if err != nil {
		err = fmt.Errorf("saving expense: %w", err)
		s.fail(ctx, err)
		return Entry{}, Summary{}, err
	}

	slog.Info("expense added",
		"id", saved.ID,
		"description", saved.Description,
		"cost", saved.Cost.String(),
		"paid_by", s.names.Of(saved.Payer),
	)

	summary, err := s.Balance(ctx)
	if err != nil {
		return saved, Summary{}, err
	}

	for _, fn := range s.onPosted {
		fn(ctx, saved, summary)
	}

	return saved, summary, nil
}

func (s *Service) prepare(in ExpenseInput) (Entry, error) {
	cost, err := money.Parse(in.Cost)
	if err != nil || cost.IsNegative() {
		return Entry{}, &InvalidAmountError{Field: "cost", Value: in.Cost}
	}

	payer, err := s.payer(in)
	if err != nil {
		return Entry{}, err
	}

	date, err := s.parseDate(in.Date)
	if err != nil {
		return Entry{}, err
	}

	cfg := in.Split
	if cfg.A == nil {
		cfg.A = s.split.A
	}
	if cfg.B == nil {
		cfg.B = s.split.B
	}
	shares := s.policy.Resolve(cfg)

	amounts, err := PostExpense(cost, payer, shares)
	if err != nil {
		return Entry{}, err
	}

	category, err := s.categoryOf(in.Category)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Date:        date,
		Description: strings.TrimSpace(in.Description),
		Category:    category,
		Cost:        cost,
		Amounts:     amounts,
		Payer:       payer,
	}, nil
}

func (s *Service) payer(in ExpenseInput) (Party, error) {
	if in.PayerParty != nil {
		if !in.PayerParty.Valid() {
			return *in.PayerParty, &InvalidPayerError{Payer: in.PayerParty.String()}
		}
		return *in.PayerParty, nil
	}
	return s.names.Payer(in.Payer)
}

func (s *Service) categoryOf(raw string) (string, error) {
	category := strings.TrimSpace(raw)
	if category == "" {
		return s.category, nil
	}
	if len(s.categories) == 0 {
		return category, nil
	}
	for _, c := range s.categories {
		if strings.EqualFold(c, category) {
			return c, nil
		}
	}
	return "", &InvalidCategoryError{Category: raw}
}

func (s *Service) parseDate(raw string) (time.Time, error) {
	t, err := ParseDay(raw)
	if err != nil {
		return time.Time{}, err
	}
	if t.IsZero() {
		return Day(s.now()), nil
	}
	return t, nil
}

func (s *Service) fail(ctx context.Context, err error) {
	slog.Error("failed to add expense", "error", err)
	if s.notifier != nil {
		s.notifier.Notify(ctx, "Failed to add expense: "+err.Error())
	}
}

// Balance summarizes the full ledger.
func (s *Service) Balance(ctx context.Context) (Summary, error) {
	entries, err := s.repo.All(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("loading ledger: %w", err)
	}

	summary, err := Summarize(entries)
	if err != nil {
		slog.Error("ledger does not balance", "error", err, "entries", len(entries))
		return Summary{}, err
	}

	summary.Narrative = summary.Describe(s.names)
	return summary, nil
}

// Recent lists entries newest first, for display only.
func (s *Service) Recent(ctx context.Context, filter Filter) ([]Entry, error) {
	if filter.Limit <= 0 {
		filter.Limit = s.limit
	}

	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return entries, nil
}

// ParseDay reads a free-form date, dropping any time of day. Empty input
// yields the zero time.
func ParseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, raw, err)
	}
	return Day(t), nil
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
