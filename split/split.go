// Package split resolves how an expense is shared between the two parties.
package split

import (
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Tolerance is how far the raw fractions may sum away from 1 before a warning is logged.
const Tolerance = 1e-9

var (
	ErrInvalidDefaults = errors.New("default split must be non-negative and not all zero")

	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Config carries the raw percentages (0-100) for each party. Nil means not supplied.
type Config struct {
	A *float64
	B *float64
}

// Split is a normalized allocation. A + B is exactly 1.
type Split struct {
	A decimal.Decimal
	B decimal.Decimal
}

func (s Split) String() string {
	return s.A.Mul(hundred).StringFixed(2) + "/" + s.B.Mul(hundred).StringFixed(2)
}

type Policy struct {
	defaultA decimal.Decimal
	defaultB decimal.Decimal
	logger   *slog.Logger
}

// DefaultPolicy falls back to a 60/40 split.
func DefaultPolicy() Policy {
	return Policy{
		defaultA: decimal.RequireFromString("0.6"),
		defaultB: decimal.RequireFromString("0.4"),
	}
}

// NewPolicy builds a policy whose fallback is defaultA/defaultB percent, normalized.
func NewPolicy(defaultA, defaultB float64, logger *slog.Logger) (Policy, error) {
	if !usable(defaultA) || !usable(defaultB) || defaultA+defaultB == 0 {
		return Policy{}, ErrInvalidDefaults
	}

	a := decimal.NewFromFloat(defaultA)
	b := decimal.NewFromFloat(defaultB)
	normalized := normalize(a, b)

	return Policy{
		defaultA: normalized.A,
		defaultB: normalized.B,
		logger:   logger,
	}, nil
}

func (p Policy) Defaults() Split {
	return Split{A: p.defaultA, B: p.defaultB}
}

// Resolve never fails. Missing, negative or non-finite inputs fall back to the
// default for that party, and an all-zero pair falls back to both defaults.
func (p Policy) Resolve(cfg Config) Split {
	a := p.fraction(cfg.A, p.defaultA)
	b := p.fraction(cfg.B, p.defaultB)

	if a.IsZero() && b.IsZero() {
		return p.Defaults()
	}

	total := a.Add(b)
	if drift, _ := total.Sub(one).Abs().Float64(); drift > Tolerance {
		p.log().Warn("split percentages do not add up to 100, normalizing",
			"share_a", a.String(),
			"share_b", b.String(),
			"total", total.String(),
		)
	}

	return normalize(a, b)
}

func (p Policy) fraction(raw *float64, fallback decimal.Decimal) decimal.Decimal {
	if raw == nil || !usable(*raw) {
		return fallback
	}
	return decimal.NewFromFloat(*raw).Div(hundred)
}

func (p Policy) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.Default()
}

// ParsePercent reads a textual percentage. Empty or unparseable input yields nil.
func ParsePercent(s string) *float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" {
		return nil
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

func normalize(a, b decimal.Decimal) Split {
	shareA := a.Div(a.Add(b))
	return Split{A: shareA, B: one.Sub(shareA)}
}

func usable(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
