package ledger

import (
	"fmt"

	"github.com/billbatista/acasinha-ledger/money"
	"github.com/billbatista/acasinha-ledger/split"
)

const settledNarrative = "All settled up"

// PostExpense turns a cost paid by one party into the signed amounts for both.
// The payer is credited with the other party's share and the other party is
// debited by the same amount. Rounding drift between the two shares always
// lands on party A, so the shares add back up to cost exactly.
func PostExpense(cost money.Money, payer Party, s split.Split) (Amounts, error) {
	if cost.IsNegative() {
		return Amounts{}, &InvalidAmountError{Field: "cost", Value: cost.String()}
	}

	shareA := cost.Mul(s.A)
	shareB := cost.Mul(s.B)
	shareA = shareA.Add(cost.Sub(shareA.Add(shareB)))

	var amounts Amounts
	switch payer {
	case PartyA:
		amounts[PartyA] = shareB
		amounts[PartyB] = shareB.Neg()
	case PartyB:
		amounts[PartyA] = shareA.Neg()
		amounts[PartyB] = shareA
	default:
		return Amounts{}, &InvalidPayerError{Payer: fmt.Sprint(int(payer))}
	}

	if sum := amounts.Sum(); !sum.IsZero() {
		return Amounts{}, &LedgerInvariantError{Op: "post expense", Sum: sum}
	}

	return amounts, nil
}

// Summary is the settlement position derived from a set of entries.
type Summary struct {
	TotalA    money.Money `json:"total_a"`
	TotalB    money.Money `json:"total_b"`
	Net       money.Money `json:"net"`
	Narrative string      `json:"narrative"`
}

// Summarize folds entries into per-party totals. It must be given the full
// ledger, never a filtered page.
func Summarize(entries []Entry) (Summary, error) {
	var totalA, totalB money.Money
	for _, e := range entries {
		totalA = totalA.Add(e.Amounts.Get(PartyA))
		totalB = totalB.Add(e.Amounts.Get(PartyB))
	}

	if sum := totalA.Add(totalB); !sum.IsZero() {
		return Summary{}, &LedgerInvariantError{Op: "summarize", Sum: sum}
	}

	s := Summary{TotalA: totalA, TotalB: totalB, Net: totalA}
	s.Narrative = s.Describe(Names{})
	return s, nil
}

// Debtor reports who owes whom. ok is false when the ledger is settled.
func (s Summary) Debtor() (debtor, creditor Party, ok bool) {
	switch s.Net.Sign() {
	case 1:
		return PartyB, PartyA, true
	case -1:
		return PartyA, PartyB, true
	default:
		return 0, 0, false
	}
}

// Describe renders the narrative using display names.
func (s Summary) Describe(names Names) string {
	debtor, creditor, ok := s.Debtor()
	if !ok {
		return settledNarrative
	}
	return fmt.Sprintf("%s owes %s: %s", names.Of(debtor), names.Of(creditor), s.Net.Abs())
}
