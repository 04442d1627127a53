package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/versemark/versemark/internal/utils"
	"github.com/versemark/versemark/pkg/index"
	"github.com/versemark/versemark/pkg/reference"
)

type parsedCitation struct {
	reference.ParsedReference
	Volume string `json:"volume"`
	Key    string `json:"key"`
	URL    string `json:"url"`
}

var parseCmd = &cobra.Command{
	Use:   "parse <citation>...",
	Short: "Parse citations and show their key, volume and link",
	Example: `  versemark parse "Luke 1:26–38" "1 Ne. 3:7" "D&C 59"
  versemark parse --json "Moro. 10:4–5"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		base := viper.GetString("links.base_url")

		var out []parsedCitation
		failed := 0
		for _, arg := range args {
			ref, err := reference.Parse(arg)
			if err != nil {
				utils.Log.Warn(err)
				failed++
				continue
			}
			out = append(out, parsedCitation{
				ParsedReference: ref,
				Volume:          string(reference.Classify(reference.NormalizeBook(ref.Book))),
				Key:             index.KeyFor(ref),
				URL:             reference.DeepLink(base, ref),
			})
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
		} else {
			for _, p := range out {
				verses := "(whole chapter)"
				if p.HasVerses() {
					verses = p.VerseRange
				}
				fmt.Printf("%s\n  book:    %s\n  chapter: %d\n  verses:  %s\n  volume:  %s\n  key:     %s\n  link:    %s\n",
					p.DisplayText, p.Book, p.Chapter, verses, reference.Volume(p.Volume).Title(), p.Key, p.URL)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d citations could not be parsed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().Bool("json", false, "Print JSON instead of text")
}
