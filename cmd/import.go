package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/versemark/versemark/internal/utils"
	"github.com/versemark/versemark/pkg/dataset"
	"github.com/versemark/versemark/pkg/importer"
	"github.com/versemark/versemark/pkg/whttp"
)

var importCmd = &cobra.Command{
	Use:   "import <page.html|url>",
	Short: "Build a citation dataset from the scripture links of an HTML page",
	Long: `Collect every scripture link of an HTML page, look up the verse texts in the
scripture volumes and write the citation dataset read by serve and index.

Links that cannot be resolved are kept with a placeholder text.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = viper.GetString("dataset.path")
		}
		source, _ := cmd.Flags().GetString("source")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		retries, _ := cmd.Flags().GetInt("retries")

		client := whttp.NewClient(retries)

		var markup string
		input := args[0]
		if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
			res, err := whttp.Get(cmd.Context(), client, input)
			if err != nil {
				return err
			}
			if res.HTTPTitle != "" {
				utils.Log.Infof("Fetched %q (%d bytes)", res.HTTPTitle, res.ResponseLength)
			}
			markup = res.BodyString
		} else {
			data, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			markup = string(data)
		}

		anchors, err := importer.ParseAnchors(markup)
		if err != nil {
			return err
		}
		if len(anchors) == 0 {
			return fmt.Errorf("no links found in %s", input)
		}
		utils.Log.Infof("Found %d links", len(anchors))

		result, err := importer.Run(cmd.Context(), importer.Config{
			Anchors:     anchors,
			SourceURL:   source,
			Client:      client,
			Concurrency: concurrency,
			Log:         utils.Log,
		})
		if err != nil {
			return err
		}
		for _, e := range result.Errors {
			utils.Log.Warn(e)
		}

		lock, err := utils.NewFileLock(output)
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		defer lock.Unlock()

		if err := dataset.Save(output, result.Records); err != nil {
			return err
		}
		utils.Log.Infof("Wrote %d citations to %s (%d unresolved, %d written but unindexable)",
			len(result.Records), output, result.Unresolved, result.Unindexable)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringP("output", "o", "", "Dataset file to write (default dataset.path)")
	importCmd.Flags().String("source", importer.DefaultSourceURL, "Base URL of the scripture volume JSON files")
	importCmd.Flags().IntP("concurrency", "c", 4, "Number of volumes fetched at once")
	importCmd.Flags().Int("retries", 3, "Retries per HTTP request")
}
