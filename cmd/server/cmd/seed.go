package cmd

import (
	"context"
	"fmt"

	"github.com/Togather-Foundation/books/internal/config"
	"github.com/Togather-Foundation/books/internal/domain/books"
	"github.com/Togather-Foundation/books/internal/storage/postgres"
	"github.com/spf13/cobra"
)

var (
	seedFile        string
	seedDatabaseURL string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert books into an empty catalogue",
	Long: `Insert books into the catalogue when it holds no rows yet.

Without --file the three default classics are used. A seed file is YAML:

  books:
    - title: Anna Karenina
      author: Leo Tolstoy
      year: 1878
      isbn: "9780143035008"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := resolveDatabaseURL(seedDatabaseURL)
		if err != nil {
			return err
		}

		inputs := books.DefaultSeed
		if seedFile != "" {
			inputs, err = books.LoadSeedFile(seedFile)
			if err != nil {
				return err
			}
		}

		logger := config.NewLogger(config.LoggingConfig{Level: logLevel, Format: logFormat})
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		pool, err := openPool(ctx, config.DatabaseConfig{URL: dsn})
		if err != nil {
			return err
		}
		defer pool.Close()

		repo, err := postgres.NewRepository(pool)
		if err != nil {
			return err
		}
		inserted, err := books.NewService(repo.Books()).Seed(ctx, inputs)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		logger.Debug().Int("books", inserted).Msg("seed finished")
		fmt.Fprintf(cmd.OutOrStdout(), "inserted %d book(s)\n", inserted)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML seed file (default: built-in classics)")
	seedCmd.Flags().StringVar(&seedDatabaseURL, "database-url", "", "PostgreSQL connection string (default: $DATABASE_URL)")
}
