package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/Togather-Foundation/books/internal/storage/postgres"
	"github.com/spf13/cobra"
)

var (
	migrateDatabaseURL string
	migrateDownSteps   int
)

var errNoDatabaseURL = errors.New("database url is required (--database-url or DATABASE_URL)")

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Apply or roll back the embedded schema migrations.

Only the database connection is needed; API keys and the rest of the
server configuration are not read.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := resolveDatabaseURL(migrateDatabaseURL)
		if err != nil {
			return err
		}
		if err := postgres.MigrateUp(dsn); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := resolveDatabaseURL(migrateDatabaseURL)
		if err != nil {
			return err
		}
		if err := postgres.MigrateDown(dsn, migrateDownSteps); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", migrateDownSteps)
		return nil
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := resolveDatabaseURL(migrateDatabaseURL)
		if err != nil {
			return err
		}
		version, dirty, err := postgres.MigrationVersion(dsn)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version: %d dirty: %t\n", version, dirty)
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrateDatabaseURL, "database-url", "", "PostgreSQL connection string (default: $DATABASE_URL)")
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}

// resolveDatabaseURL prefers the flag value over DATABASE_URL.
func resolveDatabaseURL(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("DATABASE_URL"); env != "" {
		return env, nil
	}
	return "", errNoDatabaseURL
}
