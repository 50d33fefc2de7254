//go:build !integration

package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/invest-sim/internal/store"
)

// runCLI executes the root command the way main does.
func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	return rootCmd.ExecuteContext(context.Background())
}

func TestCLI_ImportSimulateHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")
	seed, err := filepath.Abs(filepath.Join("testdata", "catalog.yaml"))
	require.NoError(t, err)

	t.Setenv("INVEST_STORE_DRIVER", "sqlite")
	t.Setenv("INVEST_STORE_DATABASE_URL", dbPath)
	t.Setenv("INVEST_LOG_LEVEL", "error")

	require.NoError(t, runCLI(t, "migrate"))
	require.NoError(t, runCLI(t, "catalog", "import", "--file", seed))
	require.NoError(t, runCLI(t, "catalog", "types"))
	require.NoError(t, runCLI(t, "simulate", "--client", "client-42", "--amount", "10000", "--term", "12", "--save"))
	require.NoError(t, runCLI(t, "history", "list"))
	require.NoError(t, runCLI(t, "profile", "client-42"))

	st, err := store.NewSQLite(dbPath)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	products, err := st.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 3)

	records, err := st.ListSimulationsByClient(context.Background(), "client-42")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "CDB Banco A", records[0].ProductName)
	assert.Equal(t, "11200.00", records[0].ProjectedValue.StringFixed(2))
}

func TestCLI_ProfileUnknownClient(t *testing.T) {
	t.Setenv("INVEST_STORE_DATABASE_URL", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("INVEST_LOG_LEVEL", "error")

	err := runCLI(t, "profile", "nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no simulations recorded")
}

func TestCLI_ServeRejectsBadConfig(t *testing.T) {
	t.Setenv("INVEST_STORE_DRIVER", "oracle")
	t.Setenv("INVEST_LOG_LEVEL", "error")

	err := runCLI(t, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
}
