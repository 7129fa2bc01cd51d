// Command finance-report prints an owner's reports from the configured
// ledger store as text tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"
)

type reports struct {
	monthly    []core.MonthSlot
	categories []core.CategoryTotal
	totals     core.Totals
	budgets    []core.BudgetProgress
}

func main() {
	owner := flag.String("owner", "", "owner id whose ledger is reported (required)")
	year := flag.Int("year", 0, "calendar year of the monthly summary (default: current year)")
	scope := flag.String("scope", string(core.ScopeAllTime), "budget spend scope: all or period")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	if *owner == "" {
		fmt.Fprintln(os.Stderr, "finance-report: -owner is required")
		flag.Usage()
		os.Exit(2)
	}
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	be := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	}()

	assembler := report.NewAssembler(aggregate.NewEngine(be.Store, cfg.Location()), be.Store)
	if *year == 0 {
		*year = assembler.Now().Year()
	}

	r, err := collect(ctx, assembler, be.Store, *owner, *year, core.SpendScope(*scope))
	if err != nil {
		logger.Error("Failed to build reports", log.FieldError, err, log.FieldOwner, *owner)
		os.Exit(1)
	}
	render(os.Stdout, *year, r)
}

// budgetLister lists the owner's budgets.
type budgetLister interface {
	ListBudgets(ctx context.Context, owner string) ([]core.Budget, error)
}

// collect runs the report reads concurrently; the first failure cancels the
// rest.
func collect(ctx context.Context, a *report.Assembler, budgets budgetLister, owner string, year int, scope core.SpendScope) (reports, error) {
	var r reports
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		r.monthly, err = a.MonthlySummaryFor(gctx, owner, year)
		return err
	})
	g.Go(func() error {
		var err error
		r.categories, err = a.CategoryBreakdown(gctx, owner)
		return err
	})
	g.Go(func() error {
		var err error
		r.totals, err = a.Totals(gctx, owner)
		return err
	})
	g.Go(func() error {
		bs, err := budgets.ListBudgets(gctx, owner)
		if err != nil {
			return core.Retrieval("list budgets", err)
		}
		for _, b := range bs {
			p, err := a.BudgetProgress(gctx, owner, b.ID, scope)
			if err != nil {
				return err
			}
			r.budgets = append(r.budgets, p)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return reports{}, err
	}
	return r, nil
}

func render(w io.Writer, year int, r reports) {
	fmt.Fprintf(w, "\n=== Monthly summary %d ===\n", year)
	t := newTable(w, "Month", "Income", "Expense", "Balance")
	for _, s := range r.monthly {
		t.Append([]string{time.Month(s.Month).String(), s.Income.Fixed(), s.Expense.Fixed(), s.Balance.Fixed()})
	}
	t.Render()

	fmt.Fprintln(w, "\n=== Expenses by category ===")
	t = newTable(w, "Category", "Total")
	for _, c := range r.categories {
		t.Append([]string{c.Category, c.Total.Fixed()})
	}
	t.Render()

	fmt.Fprintln(w, "\n=== Totals ===")
	t = newTable(w, "Income", "Expense", "Balance")
	t.Append([]string{r.totals.Income.Fixed(), r.totals.Expense.Fixed(), r.totals.Balance.Fixed()})
	t.Render()

	if len(r.budgets) == 0 {
		return
	}
	fmt.Fprintln(w, "\n=== Budgets ===")
	t = newTable(w, "Category", "Period", "Amount", "Spent", "Remaining", "Used %")
	for _, b := range r.budgets {
		t.Append([]string{b.Category, string(b.Period), b.Amount.Fixed(), b.Spent.Fixed(), b.Remaining.Fixed(), usedPercent(b)})
	}
	t.Render()
}

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(headers)
	t.SetAutoFormatHeaders(false)
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	return t
}

func usedPercent(b core.BudgetProgress) string {
	if b.Amount.Cents == 0 {
		return "-"
	}
	return strconv.FormatInt(b.Spent.Cents*100/b.Amount.Cents, 10)
}
