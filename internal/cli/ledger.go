package cli

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/nhm-india/fund-tracker/internal/models/dto"
	"github.com/nhm-india/fund-tracker/internal/services"
)

type fundsCmd struct {
	app  *App
	logs bool
}

func (*fundsCmd) Name() string     { return "funds" }
func (*fundsCmd) Synopsis() string { return "prints allocations per state" }
func (*fundsCmd) Usage() string {
	return `fundctl funds [-logs]

  Prints the current allocation of every state, and with -logs the audit
  trail, newest first.
`
}

func (c *fundsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.logs, "logs", false, "also print the audit trail")
}

func (c *fundsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := c.app.Store(ctx)
	if err != nil {
		return c.app.failf("open database: %v", err)
	}
	funds, err := services.NewLedgerService(store, c.app.Log).ListFunds(ctx)
	if err != nil {
		return c.app.failf("%v", err)
	}

	states := make([]string, 0, len(funds.Allocations))
	for state := range funds.Allocations {
		states = append(states, state)
	}
	sort.Strings(states)

	w := tabwriter.NewWriter(c.app.Out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "STATE\tALLOCATION\t")
	for _, state := range states {
		fmt.Fprintf(w, "%s\t%.2f\t\n", state, funds.Allocations[state])
	}
	if err := w.Flush(); err != nil {
		return c.app.failf("%v", err)
	}

	if c.logs {
		fmt.Fprintln(c.app.Out)
		w = tabwriter.NewWriter(c.app.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME (UTC)\tUSER\tSTATE\tTYPE\tAMOUNT\tNOTE")
		for _, l := range funds.Logs {
			kind := string(l.Type)
			if l.RequestedType != "" {
				kind = fmt.Sprintf("%s (%s)", l.Type, l.RequestedType)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%s\n",
				l.CreatedAt.Format(dto.LogTimeLayout), l.User, l.State, kind, l.Amount, l.Note)
		}
		if err := w.Flush(); err != nil {
			return c.app.failf("%v", err)
		}
	}
	return subcommands.ExitSuccess
}

type clearLogsCmd struct {
	app *App
	yes bool
}

func (*clearLogsCmd) Name() string     { return "clear-logs" }
func (*clearLogsCmd) Synopsis() string { return "deletes the entire audit trail" }
func (*clearLogsCmd) Usage() string {
	return `fundctl clear-logs -yes

  Irreversibly deletes every audit entry. Allocations are kept.
`
}

func (c *clearLogsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.yes, "yes", false, "confirm the deletion")
}

func (c *clearLogsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.yes {
		return c.app.failf("refusing to clear the audit trail without -yes")
	}
	store, err := c.app.Store(ctx)
	if err != nil {
		return c.app.failf("open database: %v", err)
	}
	n, err := services.NewLedgerService(store, c.app.Log).ClearAuditLog(ctx)
	if err != nil {
		return c.app.failf("%v", err)
	}
	fmt.Fprintf(c.app.Out, "Audit History Cleared (%d entries)\n", n)
	return subcommands.ExitSuccess
}
