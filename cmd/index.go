package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/versemark/versemark/internal/printer"
	"github.com/versemark/versemark/internal/utils"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the checklist index from the dataset and print it",
	Long: `Build the checklist index from the dataset and print one line per verse entry.

Output flags (-o) pick the fields, in order:
  b  book
  c  chapter label
  v  verse label
  k  composite key
  l  link text
  u  deep link url
  t  scripture text`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if path, _ := cmd.Flags().GetString("dataset"); path != "" {
			viper.Set("dataset.path", path)
		}
		outputFlags, _ := cmd.Flags().GetString("output")
		delimiter, _ := cmd.Flags().GetString("delimiter")
		asJSON, _ := cmd.Flags().GetBool("json")

		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		snap := catalog.Current()
		utils.Log.Debugf("Indexed %d of %d records, skipped %d, overwrote %d",
			snap.Report.Indexed, snap.Report.Records, len(snap.Report.Skipped), len(snap.Report.Overwritten))

		if asJSON {
			data, err := snap.Index.MarshalJSON()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		return printer.PrintEntries(os.Stdout, snap.Index.Entries(), outputFlags, delimiter)
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringP("output", "o", "bcv", "Output flags. Supported: b (book), c (chapter), v (verse), k (key), l (link text), u (url), t (text)")
	indexCmd.Flags().StringP("delimiter", "d", " ", "Delimiter character to use for txt output format")
	indexCmd.Flags().String("dataset", "", "Citation dataset (overrides dataset.path)")
	indexCmd.Flags().Bool("json", false, "Print the nested index as JSON")
}
