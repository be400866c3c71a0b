package cli

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"testing"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhm-india/fund-tracker/internal/services"
)

func newApp(t *testing.T) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := &App{
		DatabaseURL: "sqlite://file:cli_" + uuid.NewString() + "?mode=memory&cache=shared",
		Log:         zap.NewNop(),
		Out:         &out,
		Err:         &errOut,
		ReadPassword: func(string) (string, error) {
			return "prompted-pw", nil
		},
	}
	t.Cleanup(func() { _ = app.Close() })
	return app, &out, &errOut
}

func run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(fs)
	require.NoError(t, fs.Parse(args))
	return cmd.Execute(context.Background(), fs)
}

func TestAddOfficer_PromptsForPassword(t *testing.T) {
	app, out, _ := newApp(t)

	status := run(t, &addOfficerCmd{app: app}, "-u", "officer@gov.in")
	require.Equal(t, subcommands.ExitSuccess, status)
	require.Contains(t, out.String(), "Added officer officer@gov.in")

	store, err := app.Store(context.Background())
	require.NoError(t, err)
	_, err = services.NewAccessService(store, zap.NewNop()).Login(context.Background(), "officer@gov.in", "prompted-pw")
	require.NoError(t, err)
}

func TestAddOfficer_Errors(t *testing.T) {
	app, _, errOut := newApp(t)

	require.Equal(t, subcommands.ExitFailure, run(t, &addOfficerCmd{app: app}))
	require.Contains(t, errOut.String(), "-u is required")

	require.Equal(t, subcommands.ExitSuccess, run(t, &addOfficerCmd{app: app}, "-u", "a@gov.in", "-p", "pw"))
	require.Equal(t, subcommands.ExitFailure, run(t, &addOfficerCmd{app: app}, "-u", "a@gov.in", "-p", "pw"))
	require.Contains(t, errOut.String(), "already exists")

	app.ReadPassword = func(string) (string, error) { return "", errors.New("not a terminal") }
	require.Equal(t, subcommands.ExitFailure, run(t, &addOfficerCmd{app: app}, "-u", "b@gov.in"))
}

func TestResetRequests(t *testing.T) {
	app, out, _ := newApp(t)

	require.Equal(t, subcommands.ExitSuccess, run(t, &resetRequestsCmd{app: app}))
	require.Contains(t, out.String(), "No pending reset requests.")

	store, err := app.Store(context.Background())
	require.NoError(t, err)
	_, err = services.NewResetService(store, zap.NewNop()).RequestReset(context.Background(), "lost@gov.in")
	require.NoError(t, err)

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &resetRequestsCmd{app: app}))
	require.Contains(t, out.String(), "lost@gov.in")
}

func TestFundsAndClearLogs(t *testing.T) {
	app, out, errOut := newApp(t)
	ctx := context.Background()

	store, err := app.Store(ctx)
	require.NoError(t, err)
	ledger := services.NewLedgerService(store, zap.NewNop())
	_, err = ledger.ApplyTransaction(ctx, services.TransactionRequest{State: "Kerala", Amount: "100", Type: "add", Note: "grant", User: "jeet"})
	require.NoError(t, err)

	require.Equal(t, subcommands.ExitSuccess, run(t, &fundsCmd{app: app}, "-logs"))
	require.Contains(t, out.String(), "Kerala")
	require.Contains(t, out.String(), "100.00")
	require.Contains(t, out.String(), "grant")

	_, err = ledger.ApplyTransaction(ctx, services.TransactionRequest{State: "Goa", Amount: "5", Type: "withdrawal", User: "jeet"})
	require.NoError(t, err)
	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &fundsCmd{app: app}, "-logs"))
	require.Contains(t, out.String(), "subtract (withdrawal)")

	require.Equal(t, subcommands.ExitFailure, run(t, &clearLogsCmd{app: app}))
	require.Contains(t, errOut.String(), "-yes")

	out.Reset()
	require.Equal(t, subcommands.ExitSuccess, run(t, &clearLogsCmd{app: app}, "-yes"))
	require.Contains(t, out.String(), "(2 entries)")

	funds, err := ledger.ListFunds(ctx)
	require.NoError(t, err)
	require.Empty(t, funds.Logs)
	require.Equal(t, 100.0, funds.Allocations["Kerala"])
}
