package ledger

import (
	"math/rand"
	"testing"

	"github.com/billbatista/acasinha-ledger/money"
	"github.com/billbatista/acasinha-ledger/split"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pct(v float64) *float64 { return &v }

func entry(a, b string) Entry {
	return Entry{Amounts: Amounts{money.MustParse(a), money.MustParse(b)}}
}

func TestPostExpense(t *testing.T) {
	policy := split.DefaultPolicy()

	tests := []struct {
		name         string
		cost         string
		payer        Party
		cfg          split.Config
		wantA, wantB string
	}{
		{"A pays 60/40", "10.00", PartyA, split.Config{}, "4.00", "-4.00"},
		{"B pays 60/40", "10.00", PartyB, split.Config{}, "-6.00", "6.00"},
		{"B pays 33/67", "10.00", PartyB, split.Config{A: pct(33), B: pct(67)}, "-3.30", "3.30"},
		{"A pays 33/67", "10.00", PartyA, split.Config{A: pct(33), B: pct(67)}, "6.70", "-6.70"},
		{"zero cost", "0", PartyA, split.Config{}, "0.00", "0.00"},
		{"B pays everything for A", "12.34", PartyB, split.Config{A: pct(100), B: pct(0)}, "-12.34", "12.34"},
		{"A pays own expense", "12.34", PartyA, split.Config{A: pct(100), B: pct(0)}, "0.00", "0.00"},
		// 0.01 at 50/50 rounds both halves up to 0.01, drift of -0.01 lands on A.
		{"drift lands on A", "0.01", PartyB, split.Config{A: pct(50), B: pct(50)}, "0.00", "0.00"},
		{"drift lands on A, A pays", "0.01", PartyA, split.Config{A: pct(50), B: pct(50)}, "0.01", "-0.01"},
		{"thirds", "100.00", PartyB, split.Config{A: pct(1), B: pct(2)}, "-33.33", "33.33"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amounts, err := PostExpense(money.MustParse(tt.cost), tt.payer, policy.Resolve(tt.cfg))
			require.NoError(t, err)
			assert.Equal(t, tt.wantA, amounts.Get(PartyA).String())
			assert.Equal(t, tt.wantB, amounts.Get(PartyB).String())
			assert.True(t, amounts.Sum().IsZero())
		})
	}
}

func TestPostExpenseSharesReconcileToCost(t *testing.T) {
	policy := split.DefaultPolicy()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		cost := money.FromCents(rng.Int63n(1_000_000))
		s := policy.Resolve(split.Config{A: pct(float64(rng.Intn(101))), B: pct(float64(rng.Intn(101)))})

		owedByB, err := PostExpense(cost, PartyA, s)
		require.NoError(t, err)
		owedByA, err := PostExpense(cost, PartyB, s)
		require.NoError(t, err)

		assert.True(t, owedByB.Sum().IsZero())
		assert.True(t, owedByA.Sum().IsZero())

		// B's share when A pays plus A's share when B pays is the whole cost.
		total := owedByB.Get(PartyA).Add(owedByA.Get(PartyB))
		assert.True(t, total.Equal(cost), "cost %s split %s: shares add to %s", cost, s, total)
	}
}

func TestPostExpenseFullPaymentMagnitude(t *testing.T) {
	cost := money.MustParse("57.19")
	s := split.Split{A: decimal.Zero, B: decimal.NewFromInt(1)}

	amounts, err := PostExpense(cost, PartyA, s)
	require.NoError(t, err)
	assert.True(t, amounts.Get(PartyA).Abs().Add(amounts.Get(PartyB).Abs()).Equal(cost.Add(cost)))
	assert.Equal(t, "57.19", amounts.Get(PartyA).String())
}

func TestPostExpenseInvalidPayer(t *testing.T) {
	_, err := PostExpense(money.MustParse("10"), Party(7), split.DefaultPolicy().Defaults())

	var payerErr *InvalidPayerError
	require.ErrorAs(t, err, &payerErr)
	assert.ErrorIs(t, err, ErrInvalidPayer)
}

func TestPostExpenseNegativeCost(t *testing.T) {
	_, err := PostExpense(money.MustParse("-1"), PartyA, split.DefaultPolicy().Defaults())
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSummarize(t *testing.T) {
	s, err := Summarize([]Entry{entry("4.00", "-4.00"), entry("-2.00", "2.00")})
	require.NoError(t, err)

	assert.Equal(t, "2.00", s.TotalA.String())
	assert.Equal(t, "-2.00", s.TotalB.String())
	assert.Equal(t, "2.00", s.Net.String())
	assert.Equal(t, "B owes A: 2.00", s.Narrative)
}

func TestSummarizeNarratives(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    string
	}{
		{"empty ledger", nil, "All settled up"},
		{"cancels out", []Entry{entry("3.10", "-3.10"), entry("-3.10", "3.10")}, "All settled up"},
		{"A owes", []Entry{entry("-6.5", "6.5")}, "A owes B: 6.50"},
		{"B owes", []Entry{entry("0.1", "-0.1")}, "B owes A: 0.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Summarize(tt.entries)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Narrative)
		})
	}
}

func TestSummarizeCorruptedEntries(t *testing.T) {
	_, err := Summarize([]Entry{entry("4.00", "-4.00"), entry("1.00", "0.00")})

	var invErr *LedgerInvariantError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, "1.00", invErr.Sum.String())
	assert.ErrorIs(t, err, ErrLedgerInvariant)
}

func TestSummarizeIdempotentAndOrderIndependent(t *testing.T) {
	entries := []Entry{
		entry("4.00", "-4.00"),
		entry("-2.00", "2.00"),
		entry("0.33", "-0.33"),
		entry("-17.01", "17.01"),
		entry("250.00", "-250.00"),
	}

	first, err := Summarize(entries)
	require.NoError(t, err)
	second, err := Summarize(entries)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]Entry(nil), entries...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := Summarize(shuffled)
		require.NoError(t, err)
		assert.True(t, got.TotalA.Equal(first.TotalA))
		assert.True(t, got.TotalB.Equal(first.TotalB))
		assert.Equal(t, first.Narrative, got.Narrative)
	}
}

func TestSummaryDescribe(t *testing.T) {
	s, err := Summarize([]Entry{entry("-2.00", "2.00")})
	require.NoError(t, err)

	assert.Equal(t, "Bill owes Ana: 2.00", s.Describe(Names{A: "Bill", B: "Ana"}))

	debtor, creditor, ok := s.Debtor()
	require.True(t, ok)
	assert.Equal(t, PartyA, debtor)
	assert.Equal(t, PartyB, creditor)
}
