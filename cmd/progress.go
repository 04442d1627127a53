package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/versemark/versemark/internal/printer"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show a user's reading progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		showKeys, _ := cmd.Flags().GetBool("keys")

		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if _, err := db.GetUser(cmd.Context(), userID); err != nil {
			return fmt.Errorf("user %s: %w", userID, err)
		}

		store, err := openProgressStore(db)
		if err != nil {
			return err
		}
		if store != db {
			defer store.Close()
		}

		progress, err := store.ReadProgress(cmd.Context(), userID)
		if err != nil {
			return err
		}
		ix := catalog.Current().Index
		if err := printer.PrintTally(os.Stdout, ix.Tally(progress)); err != nil {
			return err
		}

		if showKeys {
			keys := make([]string, 0, len(progress))
			for k := range progress {
				if !ix.HasKey(k) {
					// Marks for entries dropped from the dataset do not count.
					continue
				}
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return printer.PrintReadKeys(os.Stdout, keys)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(progressCmd)
	progressCmd.Flags().StringP("user", "u", "", "User id (see db stats / db shell)")
	progressCmd.Flags().BoolP("keys", "k", false, "Also list the keys marked as read")
	progressCmd.MarkFlagRequired("user")
}
