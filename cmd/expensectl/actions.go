package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	"expensetracker/internal/core"
	"expensetracker/internal/export"
)

// dispatch runs one action. Mutations use ctx; watch runs until watchCtx ends.
func dispatch(ctx, watchCtx context.Context, env *cli.Environment, p *Params, out io.Writer) error {
	tr := env.Tracker
	cur := core.GetCurrency(env.Config.Currency)

	switch p.Action {
	case "list":
		return cli.PrintExpenses(out, tr.Query(filterFrom(p)), cur, p.Output)

	case "show":
		e, err := tr.Get(p.ID)
		if err != nil {
			return fmt.Errorf("show %q: %w", p.ID, err)
		}
		return cli.PrintExpense(out, e, cur, p.Output)

	case "add":
		draft := core.Expense{Title: p.Title, Amount: p.Amount, Date: p.Date}
		if draft.Date == "" {
			draft.Date = time.Now().Format(time.DateOnly)
		}
		cat, err := core.ParseCategory(p.Category)
		if err != nil {
			return err
		}
		draft.Category = cat

		created, err := tr.Add(ctx, draft)
		if err != nil {
			return fmt.Errorf("add expense: %w", err)
		}
		return cli.PrintExpense(out, created, cur, p.Output)

	case "update":
		e, err := tr.Get(p.ID)
		if err != nil {
			return fmt.Errorf("update %q: %w", p.ID, err)
		}
		if err := applyFlags(&e, p); err != nil {
			return err
		}
		updated, err := tr.Update(ctx, e)
		if err != nil {
			return fmt.Errorf("update expense: %w", err)
		}
		return cli.PrintExpense(out, updated, cur, p.Output)

	case "delete":
		if p.ID == "" {
			return errors.New("delete needs --id")
		}
		if !tr.Delete(ctx, p.ID) {
			fmt.Fprintf(out, "No expense with id %s\n", p.ID)
			return nil
		}
		fmt.Fprintf(out, "Deleted %s\n", p.ID)
		return nil

	case "summary":
		return cli.PrintSummary(out, tr.Summary(filterFrom(p)), cur, p.Output)

	case "export":
		return exportFile(p.File, tr.Query(filterFrom(p)), cur, out)

	case "import":
		return importFile(ctx, p.File, env, out)

	case "watch":
		return watch(watchCtx, env, out)

	default:
		return fmt.Errorf("unknown action %q", p.Action)
	}
}

func filterFrom(p *Params) core.Filter {
	f := core.Filter{Search: p.Search, Category: core.AllCategories}
	if cat, err := core.ParseCategory(p.Category); err == nil && p.Category != "" {
		f.Category = string(cat)
	}
	return f
}

// applyFlags overwrites the fields given on the command line.
func applyFlags(e *core.Expense, p *Params) error {
	if p.Title != "" {
		e.Title = p.Title
	}
	if p.Amount != "" {
		e.Amount = p.Amount
	}
	if p.Date != "" {
		e.Date = p.Date
	}
	if p.Category != "" {
		cat, err := core.ParseCategory(p.Category)
		if err != nil {
			return err
		}
		e.Category = cat
	}
	return nil
}

func exportFile(path string, records []core.Expense, cur core.Currency, out io.Writer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteXLSX(f, records, cur); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	fmt.Fprintf(out, "Exported %d expense(s) to %s\n", len(records), path)
	return nil
}

// importFile adds every row of a spreadsheet as a new expense. Rows failing
// the presence checks are skipped.
func importFile(ctx context.Context, path string, env *cli.Environment, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := export.ReadXLSX(f)
	if err != nil {
		return err
	}

	added, skipped := 0, 0
	for _, e := range rows {
		e.ID = ""
		if _, err := env.Tracker.Add(ctx, e); err != nil {
			skipped++
			continue
		}
		added++
	}
	fmt.Fprintf(out, "Imported %d expense(s), skipped %d\n", added, skipped)
	return nil
}

// watch prints change notifications published by other processes.
func watch(ctx context.Context, env *cli.Environment, out io.Writer) error {
	client := env.Backend.Notifier
	if client == nil {
		return errors.New("watch needs a reachable AMQP broker (set AMQP_URL)")
	}
	fmt.Fprintln(out, "Watching expense changes, press Ctrl+C to stop")

	err := client.ConsumeWithRetry(ctx, func(msg *amqp.ExpenseChangeMessage) error {
		line := fmt.Sprintf("%s  %-16s %s", msg.Timestamp.Local().Format(time.DateTime), msg.Event, msg.ID)
		if msg.Expense != nil {
			line += fmt.Sprintf("  %s  %s", msg.Expense.Title, msg.Expense.Amount)
		}
		_, err := fmt.Fprintln(out, line)
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
