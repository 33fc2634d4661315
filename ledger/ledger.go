package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/billbatista/acasinha-ledger/money"
)

// Party identifies one of the two people sharing expenses.
type Party int

const (
	PartyA Party = iota
	PartyB
)

func (p Party) Valid() bool {
	return p == PartyA || p == PartyB
}

func (p Party) Other() Party {
	if p == PartyA {
		return PartyB
	}
	return PartyA
}

// String returns the stored code for the party, "A" or "B".
func (p Party) String() string {
	switch p {
	case PartyA:
		return "A"
	case PartyB:
		return "B"
	default:
		return "?"
	}
}

// ParseParty decodes a stored party code.
func ParseParty(code string) (Party, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "A":
		return PartyA, nil
	case "B":
		return PartyB, nil
	default:
		return Party(-1), &InvalidPayerError{Payer: code}
	}
}

func (p Party) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Party) UnmarshalText(text []byte) error {
	parsed, err := ParseParty(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Names are the display names of both parties.
type Names struct {
	A string
	B string
}

func (n Names) Of(p Party) string {
	name := n.A
	if p == PartyB {
		name = n.B
	}
	if name == "" {
		return p.String()
	}
	return name
}

// Validate rejects a display name that reads as the other party's code, since
// payer selections would resolve to the wrong party.
func (n Names) Validate() error {
	for _, p := range []Party{PartyA, PartyB} {
		if strings.EqualFold(strings.TrimSpace(n.Of(p)), p.Other().String()) {
			return fmt.Errorf("%w: %q", ErrAmbiguousName, n.Of(p))
		}
	}
	return nil
}

// Payer resolves a payer selection: a configured name (case-insensitive) or
// the party code itself.
func (n Names) Payer(raw string) (Party, error) {
	s := strings.TrimSpace(raw)
	for _, p := range []Party{PartyA, PartyB} {
		if strings.EqualFold(s, n.Of(p)) {
			return p, nil
		}
	}

	p, err := ParseParty(s)
	if err != nil {
		return p, &InvalidPayerError{Payer: raw}
	}
	return p, nil
}

// Amounts holds the signed balance change of each party for one entry.
// Positive means the party is owed, negative means the party owes.
type Amounts [2]money.Money

func (a Amounts) Get(p Party) money.Money {
	return a[p]
}

func (a Amounts) Sum() money.Money {
	return a[PartyA].Add(a[PartyB])
}

func (a Amounts) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]money.Money{
		PartyA.String(): a[PartyA],
		PartyB.String(): a[PartyB],
	})
}

// Entry is one posted expense. Entries are never updated in place.
type Entry struct {
	ID          int64       `json:"id,omitempty"`
	Date        time.Time   `json:"date"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Cost        money.Money `json:"cost"`
	Amounts     Amounts     `json:"amounts"`
	Payer       Party       `json:"paid_by"`
	CreatedAt   time.Time   `json:"created_at,omitempty"`
}

// Filter narrows a listing of entries. Zero values mean no restriction.
type Filter struct {
	Payer    *Party
	Category string
	From     time.Time
	To       time.Time
	Limit    int
}
