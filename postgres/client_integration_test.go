//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/slackmgr/todos"
	"github.com/slackmgr/todos/postgres"
	"github.com/slackmgr/todos/storetest"
)

var client *postgres.Client

func TestMain(m *testing.M) {
	ctx := context.Background()
	c := postgres.New(
		postgres.WithHost("localhost"),
		postgres.WithPort(5432),
		postgres.WithUser("postgres"),
		postgres.WithPassword("qwerty"),
		postgres.WithDatabase("todos"),
		postgres.WithSSLMode(postgres.SSLModeDisable),
		postgres.WithTable("__todo_items_integration_test"),
	)

	// Verify that the client implements the todos.Store interface
	var _ todos.Store = c

	err := c.Connect(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Ensure the database is clean before running tests
	err = c.DropAllData(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("failed to drop integration test table: %w", err))
		os.Exit(1)
	}

	err = c.Init(ctx, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client = c

	code := m.Run()

	err = client.DropAllData(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("failed to drop integration test table: %w", err))
		os.Exit(1)
	}

	err = client.Close(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("failed to close client: %w", err))
		os.Exit(1)
	}

	os.Exit(code)
}

func TestStoreIntegration(t *testing.T) {
	storetest.TestAll(t, client)
}
