package main

import (
	"context"
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"

	"expensetracker/internal/cli"
	applog "expensetracker/internal/log"
)

type Params struct {
	Action   string `descr:"Action to run" positional:"true" alts:"list,add,update,delete,show,summary,export,import,watch" strict:"true"`
	ID       string `descr:"Expense id for update, delete and show" optional:"true"`
	Title    string `descr:"Expense title" optional:"true"`
	Amount   string `descr:"Expense amount" optional:"true"`
	Category string `descr:"Expense category (Food, Rent, Utilities, Entertainment); All is accepted when filtering" optional:"true"`
	Date     string `descr:"Expense date as YYYY-MM-DD, defaults to today on add" optional:"true"`
	Search   string `descr:"Only include expenses whose title contains this text" optional:"true"`
	File     string `descr:"Spreadsheet path for export and import" default:"expenses.xlsx"`
	Output   string `descr:"Output format" alts:"table,json" strict:"true" default:"table"`
	Backend  string `descr:"Storage backend, overrides DATA_BACKEND (memory, file, sqlite)" optional:"true"`
	Verbose  bool   `descr:"Log at debug level to stderr"`
}

func main() {
	boa.NewCmdT[Params]("expensectl").
		WithShort("Manage the expense ledger from the command line").
		WithLong("Adds, edits, deletes, lists and summarises expenses in the same storage the expense tracker server uses. " +
			"Storage and display settings are read from the environment (.env is honoured) and may be overridden with flags.").
		WithRunFunc(func(params *Params) {
			if err := run(params); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}).
		Run()
}

func run(p *Params) error {
	cli.LoadEnvFile()
	if p.Backend != "" {
		os.Setenv("DATA_BACKEND", p.Backend)
	}

	level := "warn"
	if p.Verbose {
		level = "debug"
	}
	logger := cli.SetupLogger(applog.ComponentCLI, level, os.Stderr)

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}

	ctx, stop := cli.ShutdownContext(logger.Logger)
	defer stop()

	env, err := cli.OpenEnvironment(ctx, logger.WithComponent(applog.ComponentTracker).Logger, cfg)
	if err != nil {
		return err
	}
	defer env.Close()

	return dispatch(context.WithoutCancel(ctx), ctx, env, p, os.Stdout)
}
