package ledger

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/billbatista/acasinha-ledger/split"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepository struct {
	entries    []Entry
	saveErr    error
	lastFilter Filter
}

func (m *memoryRepository) Save(_ context.Context, e Entry) (Entry, error) {
	if m.saveErr != nil {
		return Entry{}, m.saveErr
	}
	e.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memoryRepository) List(_ context.Context, f Filter) ([]Entry, error) {
	m.lastFilter = f
	out := append([]Entry(nil), m.entries...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memoryRepository) All(ctx context.Context) ([]Entry, error) {
	return m.List(ctx, Filter{})
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, message string) {
	n.messages = append(n.messages, message)
}

var fixedNow = time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)

func newTestService(repo *memoryRepository, notifier *recordingNotifier, opts ...ServiceOption) *Service {
	opts = append([]ServiceOption{
		WithNames(Names{A: "Bill", B: "Ana"}),
		WithNotifier(notifier),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	return NewService(repo, opts...)
}

func TestServiceAddExpense(t *testing.T) {
	repo := &memoryRepository{}
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier)

	entry, summary, err := svc.AddExpense(context.Background(), ExpenseInput{
		Description: " Groceries ",
		Cost:        "10",
		Payer:       "bill",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), entry.ID)
	assert.Equal(t, "Groceries", entry.Description)
	assert.Equal(t, DefaultCategory, entry.Category)
	assert.Equal(t, PartyA, entry.Payer)
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), entry.Date)
	assert.Equal(t, "4.00", entry.Amounts.Get(PartyA).String())
	assert.Equal(t, "-4.00", entry.Amounts.Get(PartyB).String())

	assert.Equal(t, "Ana owes Bill: 4.00", summary.Narrative)
	assert.Empty(t, notifier.messages)
}

func TestServiceAddExpenseUsesConfiguredAndOverrideSplit(t *testing.T) {
	repo := &memoryRepository{}
	svc := newTestService(repo, &recordingNotifier{}, WithSplit(split.Config{A: pct(50), B: pct(50)}))

	e, _, err := svc.AddExpense(context.Background(), ExpenseInput{Cost: "10", Payer: "A", Date: "2025-01-02"})
	require.NoError(t, err)
	assert.Equal(t, "5.00", e.Amounts.Get(PartyA).String())
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), e.Date)

	e, summary, err := svc.AddExpense(context.Background(), ExpenseInput{
		Cost:  "10",
		Payer: "Ana",
		Split: split.Config{A: pct(33), B: pct(67)},
	})
	require.NoError(t, err)
	assert.Equal(t, "-3.30", e.Amounts.Get(PartyA).String())
	assert.Equal(t, "3.30", e.Amounts.Get(PartyB).String())
	assert.Equal(t, "1.70", summary.Net.String())
}

func TestServiceAddExpenseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input ExpenseInput
		want  error
	}{
		{"unknown payer", ExpenseInput{Cost: "10", Payer: "charlie"}, ErrInvalidPayer},
		{"non numeric cost", ExpenseInput{Cost: "ten", Payer: "A"}, ErrInvalidAmount},
		{"negative cost", ExpenseInput{Cost: "-5", Payer: "A"}, ErrInvalidAmount},
		{"bad date", ExpenseInput{Cost: "5", Payer: "A", Date: "not a date"}, ErrInvalidDate},
		{"invalid payer party", ExpenseInput{Cost: "5", PayerParty: partyPtr(Party(7))}, ErrInvalidPayer},
		{"unlisted category", ExpenseInput{Cost: "5", Payer: "A", Category: "Travel"}, ErrInvalidCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memoryRepository{}
			notifier := &recordingNotifier{}
			svc := newTestService(repo, notifier, WithCategories([]string{"Food", "Other"}))

			_, _, err := svc.AddExpense(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, repo.entries, "nothing must be stored")
			require.Len(t, notifier.messages, 1)
			assert.Contains(t, notifier.messages[0], "Failed to add expense")
		})
	}
}

func partyPtr(p Party) *Party {
	return &p
}

func TestServiceAddExpensePayerParty(t *testing.T) {
	repo := &memoryRepository{}
	svc := NewService(repo, WithNames(Names{A: "Bill", B: "Ana"}))

	e, _, err := svc.AddExpense(context.Background(), ExpenseInput{
		Cost:       "10",
		Payer:      "Bill",
		PayerParty: partyPtr(PartyB),
	})
	require.NoError(t, err)
	assert.Equal(t, PartyB, e.Payer)
	assert.Equal(t, "-6.00", e.Amounts.Get(PartyA).String())
	assert.Equal(t, "6.00", e.Amounts.Get(PartyB).String())
}

func TestServiceCategories(t *testing.T) {
	repo := &memoryRepository{}
	svc := newTestService(repo, &recordingNotifier{},
		WithCategories([]string{"Food", " ", "Home"}),
		WithDefaultCategory("Home"),
	)
	assert.Equal(t, []string{"Food", "Home"}, svc.Categories())

	e, _, err := svc.AddExpense(context.Background(), ExpenseInput{Cost: "1", Payer: "A", Category: "food"})
	require.NoError(t, err)
	assert.Equal(t, "Food", e.Category)

	e, _, err = svc.AddExpense(context.Background(), ExpenseInput{Cost: "1", Payer: "A"})
	require.NoError(t, err)
	assert.Equal(t, "Home", e.Category)

	open := newTestService(&memoryRepository{}, &recordingNotifier{})
	assert.Nil(t, open.Categories())
	e, _, err = open.AddExpense(context.Background(), ExpenseInput{Cost: "1", Payer: "A", Category: "Anything"})
	require.NoError(t, err)
	assert.Equal(t, "Anything", e.Category)
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"", time.Time{}},
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"2024-01-02 18:45:00", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"Jan 2, 2024", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"March 5 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseDay(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseDay("not a date")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestServiceAddExpenseStorageFailure(t *testing.T) {
	storageErr := errors.New("connection refused")
	repo := &memoryRepository{saveErr: storageErr}
	notifier := &recordingNotifier{}
	svc := newTestService(repo, notifier)

	_, _, err := svc.AddExpense(context.Background(), ExpenseInput{Cost: "1", Payer: "A"})
	assert.ErrorIs(t, err, storageErr)
	assert.Len(t, notifier.messages, 1)
}

func TestServiceOnPosted(t *testing.T) {
	var got []Summary
	svc := newTestService(&memoryRepository{}, &recordingNotifier{}, OnPosted(func(_ context.Context, _ Entry, s Summary) {
		got = append(got, s)
	}))

	_, _, err := svc.AddExpense(context.Background(), ExpenseInput{Cost: "10", Payer: "B"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bill owes Ana: 6.00", got[0].Narrative)
}

func TestServiceBalanceUsesFullLedger(t *testing.T) {
	repo := &memoryRepository{}
	svc := newTestService(repo, &recordingNotifier{}, WithRecentLimit(1))

	for _, in := range []ExpenseInput{
		{Cost: "10", Payer: "A", Date: "2025-01-01"},
		{Cost: "5", Payer: "B", Date: "2025-01-02"},
	} {
		_, _, err := svc.AddExpense(context.Background(), in)
		require.NoError(t, err)
	}

	recent, err := svc.Recent(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, 1, repo.lastFilter.Limit)
	assert.Equal(t, PartyB, recent[0].Payer)

	summary, err := svc.Balance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.00", summary.Net.String())
	assert.Equal(t, "Ana owes Bill: 1.00", summary.Narrative)
}

func TestServiceBalanceCorruptedLedger(t *testing.T) {
	repo := &memoryRepository{entries: []Entry{entry("1.00", "-0.99")}}
	svc := newTestService(repo, &recordingNotifier{})

	_, err := svc.Balance(context.Background())
	assert.ErrorIs(t, err, ErrLedgerInvariant)
}

func TestServicePolicy(t *testing.T) {
	policy, err := split.NewPolicy(50, 50, nil)
	require.NoError(t, err)

	svc := NewService(&memoryRepository{}, WithPolicy(policy))
	assert.Equal(t, "50.00/50.00", svc.Policy().Defaults().String())
	assert.Equal(t, "60.00/40.00", NewService(&memoryRepository{}).Policy().Defaults().String())
}
