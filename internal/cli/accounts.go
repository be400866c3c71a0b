package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/nhm-india/fund-tracker/internal/models"
	"github.com/nhm-india/fund-tracker/internal/services"
)

type addOfficerCmd struct {
	app      *App
	username string
	password string
}

func (*addOfficerCmd) Name() string     { return "add-officer" }
func (*addOfficerCmd) Synopsis() string { return "creates a government officer account" }
func (*addOfficerCmd) Usage() string {
	return `fundctl add-officer -u <email> [-p <password>]

  Creates an account with the government role. The password is prompted
  for when -p is omitted.
`
}

func (c *addOfficerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "u", "", "officer email used as the login name")
	f.StringVar(&c.password, "p", "", "password (prompted when empty)")
}

func (c *addOfficerCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" {
		return c.app.failf("-u is required")
	}
	password := c.password
	if password == "" {
		var err error
		if password, err = c.app.ReadPassword("Password for " + c.username + ": "); err != nil {
			return c.app.failf("read password: %v", err)
		}
	}

	store, err := c.app.Store(ctx)
	if err != nil {
		return c.app.failf("open database: %v", err)
	}
	user, err := services.NewAccessService(store, c.app.Log).AddClient(ctx, c.username, password)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyExists) {
			return c.app.failf("user %q already exists", c.username)
		}
		return c.app.failf("%v", err)
	}
	fmt.Fprintf(c.app.Out, "Added officer %s (%s)\n", user.Username, models.RoleGovernment)
	return subcommands.ExitSuccess
}

type resetRequestsCmd struct {
	app *App
}

func (*resetRequestsCmd) Name() string     { return "reset-requests" }
func (*resetRequestsCmd) Synopsis() string { return "lists queued password-reset requests" }
func (*resetRequestsCmd) Usage() string {
	return `fundctl reset-requests

  Prints every forgot-password request, newest first.
`
}

func (*resetRequestsCmd) SetFlags(*flag.FlagSet) {}

func (c *resetRequestsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	store, err := c.app.Store(ctx)
	if err != nil {
		return c.app.failf("open database: %v", err)
	}
	reqs, err := services.NewResetService(store, c.app.Log).ListRequests(ctx)
	if err != nil {
		return c.app.failf("list reset requests: %v", err)
	}
	if len(reqs) == 0 {
		fmt.Fprintln(c.app.Out, "No pending reset requests.")
		return subcommands.ExitSuccess
	}

	w := tabwriter.NewWriter(c.app.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "REQUESTED (UTC)\tEMAIL")
	for _, r := range reqs {
		fmt.Fprintf(w, "%s\t%s\n", r.CreatedAt.Format("2006-01-02 15:04"), r.Email)
	}
	if err := w.Flush(); err != nil {
		return c.app.failf("%v", err)
	}
	return subcommands.ExitSuccess
}
