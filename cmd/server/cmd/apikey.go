package cmd

import (
	"fmt"

	"github.com/Togather-Foundation/books/internal/auth"
	"github.com/spf13/cobra"
)

var (
	apikeyWithHash bool
	apikeyCost     int
)

// apikeyCmd groups helpers for the shared write secret.
var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Generate and hash API keys",
	Long: `Generate and hash the shared secret that guards write endpoints.

The server accepts the secret either in plain text (API_KEY) or as a
bcrypt hash (API_KEY_HASH). Storing only the hash keeps the secret out
of the environment of the running process.

Examples:
  # Generate a new key
  server apikey generate

  # Generate a key and print its hash for API_KEY_HASH
  server apikey generate --hash

  # Hash an existing key
  server apikey hash my-secret-key`,
}

var apikeyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random API key",
	Long: `Generate a random API key.

The key is displayed once. Save it in a secure location.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := auth.GenerateKey()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !apikeyWithHash {
			fmt.Fprintln(out, key)
			return nil
		}
		hash, err := auth.HashAPIKeyWithCost(key, apikeyCost)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "API_KEY=%s\n", key)
		fmt.Fprintf(out, "API_KEY_HASH=%s\n", hash)
		return nil
	},
}

var apikeyHashCmd = &cobra.Command{
	Use:   "hash <key>",
	Short: "Print the bcrypt hash of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashAPIKeyWithCost(args[0], apikeyCost)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	apikeyGenerateCmd.Flags().BoolVar(&apikeyWithHash, "hash", false, "also print the bcrypt hash")
	apikeyCmd.PersistentFlags().IntVar(&apikeyCost, "cost", auth.BcryptCost, "bcrypt cost")

	apikeyCmd.AddCommand(apikeyGenerateCmd, apikeyHashCmd)
}
