// Package cli implements fundctl, the operator command line for tasks that
// are handled out of band: provisioning officers, reviewing reset requests,
// inspecting and clearing the ledger.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/nhm-india/fund-tracker/internal/storage"
	"github.com/nhm-india/fund-tracker/internal/storage/backend"
)

// App carries what every command needs. The store is opened on first use.
type App struct {
	DatabaseURL  string
	Log          *zap.Logger
	Out          io.Writer
	Err          io.Writer
	ReadPassword func(prompt string) (string, error)

	store storage.Store
}

// Register adds every fundctl command to c.
func Register(c *subcommands.Commander, app *App) {
	c.Register(&addOfficerCmd{app: app}, "accounts")
	c.Register(&resetRequestsCmd{app: app}, "accounts")
	c.Register(&fundsCmd{app: app}, "ledger")
	c.Register(&clearLogsCmd{app: app}, "ledger")
}

// Store opens the configured database once and returns it.
func (a *App) Store(ctx context.Context) (storage.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := backend.Open(ctx, a.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

// Close releases the store if it was opened.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func (a *App) failf(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(a.Err, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}

// TerminalPassword prompts on stderr and reads a password without echo.
func TerminalPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
