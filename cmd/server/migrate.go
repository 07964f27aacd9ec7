package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"idvmgt/internal/platform/postgres"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the embedded SQL migrations.",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConnection(cmd.Context(), func(conn *postgres.Connection) error {
				if err := conn.MigrateUp(); err != nil {
					return err
				}
				return printVersion(cmd, conn)
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConnection(cmd.Context(), func(conn *postgres.Connection) error {
				if err := conn.MigrateDown(steps); err != nil {
					return err
				}
				return printVersion(cmd, conn)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func withConnection(ctx context.Context, fn func(*postgres.Connection) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for migrations")
	}
	conn, err := postgres.NewConnection(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}

func printVersion(cmd *cobra.Command, conn *postgres.Connection) error {
	version, dirty, err := conn.Version()
	if err != nil {
		return err
	}
	cmd.Printf("schema version %d (dirty=%t)\n", version, dirty)
	return nil
}
