package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/billbatista/acasinha-ledger/ledger"
	"github.com/billbatista/acasinha-ledger/split"
	"github.com/spf13/cobra"
)

// stderrNotifier shows failure messages to the person at the terminal.
type stderrNotifier struct {
	w io.Writer
}

func (n stderrNotifier) Notify(_ context.Context, message string) {
	fmt.Fprintln(n.w, message)
}

var addInput struct {
	description string
	amount      string
	paidBy      string
	category    string
	date        string
	splitA      string
	splitB      string
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an expense",
	Example: `  acasinha add --amount 42.50 --paid-by Bill --description "Groceries" --category Food
  acasinha add --amount 10 --paid-by Ana --split-a 33 --split-b 67`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		svc, err := newService(ledger.NewRepository(db), ledger.WithNotifier(stderrNotifier{w: cmd.ErrOrStderr()}))
		if err != nil {
			return err
		}

		entry, summary, err := svc.AddExpense(cmd.Context(), ledger.ExpenseInput{
			Description: addInput.description,
			Cost:        addInput.amount,
			Payer:       addInput.paidBy,
			Category:    addInput.category,
			Date:        addInput.date,
			Split: split.Config{
				A: split.ParsePercent(addInput.splitA),
				B: split.ParsePercent(addInput.splitB),
			},
		})
		if err != nil {
			return err
		}

		names := svc.Names()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "#%d %s %s paid %s (%s: %s, %s: %s)\n",
			entry.ID,
			entry.Date.Format(time.DateOnly),
			names.Of(entry.Payer),
			entry.Cost,
			names.Of(ledger.PartyA), entry.Amounts.Get(ledger.PartyA),
			names.Of(ledger.PartyB), entry.Amounts.Get(ledger.PartyB),
		)
		fmt.Fprintln(out, summary.Narrative)
		return nil
	},
}

var listInput struct {
	paidBy   string
	category string
	from     string
	to       string
	limit    int
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the most recent expenses",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		svc, err := newService(ledger.NewRepository(db))
		if err != nil {
			return err
		}

		filter := ledger.Filter{Category: listInput.category, Limit: listInput.limit}
		if listInput.paidBy != "" {
			party, err := svc.Names().Payer(listInput.paidBy)
			if err != nil {
				return err
			}
			filter.Payer = &party
		}
		if filter.From, err = ledger.ParseDay(listInput.from); err != nil {
			return err
		}
		if filter.To, err = ledger.ParseDay(listInput.to); err != nil {
			return err
		}

		entries, err := svc.Recent(cmd.Context(), filter)
		if err != nil {
			return err
		}

		printEntries(cmd.OutOrStdout(), svc.Names(), entries)
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show who owes whom",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		svc, err := newService(ledger.NewRepository(db))
		if err != nil {
			return err
		}

		summary, err := svc.Balance(cmd.Context())
		if err != nil {
			return err
		}

		names := svc.Names()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %s\n", names.Of(ledger.PartyA), summary.TotalA)
		fmt.Fprintf(out, "%s: %s\n", names.Of(ledger.PartyB), summary.TotalB)
		fmt.Fprintln(out, summary.Narrative)
		return nil
	},
}

func printEntries(w io.Writer, names ledger.Names, entries []ledger.Entry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "ID\tDATE\tPAID BY\tCATEGORY\tCOST\t%s\t%s\tDESCRIPTION\t\n", names.Of(ledger.PartyA), names.Of(ledger.PartyB))
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			e.ID,
			e.Date.Format(time.DateOnly),
			names.Of(e.Payer),
			e.Category,
			e.Cost,
			e.Amounts.Get(ledger.PartyA),
			e.Amounts.Get(ledger.PartyB),
			e.Description,
		)
	}
	tw.Flush()
}

func init() {
	addCmd.Flags().StringVarP(&addInput.amount, "amount", "a", "", "total cost of the expense")
	addCmd.Flags().StringVarP(&addInput.paidBy, "paid-by", "p", "", "who paid: a party name, A or B")
	addCmd.Flags().StringVarP(&addInput.description, "description", "d", "", "what the expense was for")
	addCmd.Flags().StringVar(&addInput.category, "category", "", "expense category")
	addCmd.Flags().StringVar(&addInput.date, "date", "", "date of the expense (default today)")
	addCmd.Flags().StringVar(&addInput.splitA, "split-a", "", "percentage owed by party A")
	addCmd.Flags().StringVar(&addInput.splitB, "split-b", "", "percentage owed by party B")
	addCmd.MarkFlagRequired("amount")
	addCmd.MarkFlagRequired("paid-by")

	listCmd.Flags().StringVarP(&listInput.paidBy, "paid-by", "p", "", "only expenses paid by this party")
	listCmd.Flags().StringVar(&listInput.category, "category", "", "only expenses in this category")
	listCmd.Flags().StringVar(&listInput.from, "from", "", "earliest date")
	listCmd.Flags().StringVar(&listInput.to, "to", "", "latest date")
	listCmd.Flags().IntVarP(&listInput.limit, "limit", "n", 0, "maximum number of expenses (default from config)")

	rootCmd.AddCommand(addCmd, listCmd, balanceCmd)
}
