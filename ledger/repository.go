package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// writeLockKey is the advisory lock taken by every ledger insert so that
// concurrent writers are serialized.
const writeLockKey = 4_201_337

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) Save(ctx context.Context, entry Entry) (Entry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return entry, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, writeLockKey); err != nil {
		return entry, fmt.Errorf("acquiring ledger lock: %w", err)
	}

	query := `INSERT INTO expenses (date, description, category, cost, amount_a, amount_b, paid_by)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              RETURNING id, created_at`
	err = tx.QueryRowContext(
		ctx,
		query,
		entry.Date,
		entry.Description,
		entry.Category,
		entry.Cost,
		entry.Amounts.Get(PartyA),
		entry.Amounts.Get(PartyB),
		entry.Payer.String(),
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return entry, fmt.Errorf("inserting expense: %w", err)
	}

	return entry, tx.Commit()
}

func (r *repository) List(ctx context.Context, filter Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Payer != nil {
		add("paid_by = $%d", filter.Payer.String())
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if !filter.From.IsZero() {
		add("date >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("date <= $%d", filter.To)
	}

	query := `SELECT id, date, description, category, cost, amount_a, amount_b, paid_by, created_at FROM expenses`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return r.query(ctx, query, args...)
}

// All returns every entry in the ledger, the input balances must be computed from.
func (r *repository) All(ctx context.Context) ([]Entry, error) {
	return r.List(ctx, Filter{})
}

func (r *repository) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying expenses: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			paidBy   string
			category sql.NullString
		)
		err := rows.Scan(
			&entry.ID,
			&entry.Date,
			&entry.Description,
			&category,
			&entry.Cost,
			&entry.Amounts[PartyA],
			&entry.Amounts[PartyB],
			&paidBy,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}
		if category.Valid {
			entry.Category = category.String
		}
		if entry.Payer, err = ParseParty(paidBy); err != nil {
			return nil, fmt.Errorf("expense %d: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
