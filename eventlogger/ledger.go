package eventlogger

import (
	"context"
	"log/slog"

	"github.com/billbatista/acasinha-ledger/ledger"
)

// ExpensePosted records a stored expense together with the resulting balance.
// It matches ledger.PostedFunc.
func (w *Worker) ExpensePosted(_ context.Context, entry ledger.Entry, summary ledger.Summary) {
	w.Log(NewEvent(
		WithType(TypeExpensePosted),
		WithData(map[string]any{
			"expense": entry,
			"balance": summary,
		}),
	))
}

// Notifier records failure messages as events so they can be shown later.
type Notifier struct {
	worker *Worker
	source string
}

func NewNotifier(w *Worker, source string) *Notifier {
	return &Notifier{worker: w, source: source}
}

func (n *Notifier) Notify(_ context.Context, message string) {
	slog.Warn("notification", "message", message, "source", n.source)
	n.worker.Log(NewEvent(
		WithType(TypeExpenseFailed),
		WithData(map[string]string{"message": message}),
		WithMetadata(map[string]string{"source": n.source}),
	))
}
