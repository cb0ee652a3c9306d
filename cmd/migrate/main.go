package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/checkout/internal/storage/postgres"
)

const (
	defaultTimeout = 30 * time.Second
	envPostgresDSN = "CHECKOUT_POSTGRES_DSN"
)

// migrator — операции со схемой, которые нужны CLI.
type migrator interface {
	MigrateUp(ctx context.Context, steps int) error
	MigrateDown(ctx context.Context, steps int) error
	MigrationStatus(ctx context.Context) (postgres.MigrationState, error)
	Close() error
}

type openFunc func(ctx context.Context, dsn string) (migrator, error)

func openPostgres(ctx context.Context, dsn string) (migrator, error) {
	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func newRootCmd(open openFunc) *cobra.Command {
	var (
		dsn     string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the checkout PostgreSQL schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: "+envPostgresDSN+")")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", defaultTimeout, "overall command timeout")

	// withStore открывает хранилище, выполняет fn и печатает итоговое состояние схемы.
	withStore := func(c *cobra.Command, label string, fn func(ctx context.Context, m migrator) error) error {
		resolved := strings.TrimSpace(dsn)
		if resolved == "" {
			resolved = strings.TrimSpace(os.Getenv(envPostgresDSN))
		}
		if resolved == "" {
			return errors.New(envPostgresDSN + " (or --dsn) is required")
		}

		ctx, cancel := context.WithTimeout(c.Context(), timeout)
		defer cancel()

		m, err := open(ctx, resolved)
		if err != nil {
			return fmt.Errorf("open postgres store: %w", err)
		}
		defer m.Close()

		if err := fn(ctx, m); err != nil {
			return fmt.Errorf("%s failed: %w", label, err)
		}
		state, err := m.MigrationStatus(ctx)
		if err != nil {
			return fmt.Errorf("migration status failed: %w", err)
		}
		printState(c.OutOrStdout(), label, state)
		return nil
	}

	cmd.AddCommand(newUpCmd(withStore), newDownCmd(withStore), newStatusCmd(withStore))
	return cmd
}

type storeRunner func(c *cobra.Command, label string, fn func(ctx context.Context, m migrator) error) error

func newUpCmd(run storeRunner) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return run(c, "migrate up", func(ctx context.Context, m migrator) error {
				return m.MigrateUp(ctx, steps)
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "number of migrations to apply (0 = all)")
	return cmd
}

func newDownCmd(run storeRunner) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return run(c, "migrate down", func(ctx context.Context, m migrator) error {
				return m.MigrateDown(ctx, steps)
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

func newStatusCmd(run storeRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return run(c, "migration status", func(context.Context, migrator) error { return nil })
		},
	}
}

func printState(w io.Writer, label string, state postgres.MigrationState) {
	_, _ = fmt.Fprintf(w, "%s: version=%d applied=%d pending=%d\n",
		label, state.Version, state.Applied, state.Pending())
}

func main() {
	if err := newRootCmd(openPostgres).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
