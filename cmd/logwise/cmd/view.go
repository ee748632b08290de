package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/drewcrawford/logwise/recording"
)

var viewCmd = &cobra.Command{
	Use:   "view [database]",
	Short: "Print the log lines stored in a recorded database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		level, _ := cmd.Flags().GetString("level")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		reader := recording.NewReader(args[0])
		defer reader.Close()
		reader.MapTable("records", recording.RecordEntry{})

		params := recording.QueryParams{
			OrderBy: "Seq",
			Limit:   limit,
			Offset:  offset,
		}
		if level != "" {
			params.Where = "Level = ?"
			params.Args = []any{level}
		}

		results, total, err := reader.Query(
			cmd.Context(), "records", params)
		if err != nil {
			return err
		}

		for _, result := range results {
			entry := result.(*recording.RecordEntry)
			emitted := time.Unix(0, entry.EmittedAt).Format(time.RFC3339Nano)
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n",
				entry.Seq, emitted, entry.Level, entry.Content)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d of %d records\n",
			len(results), total)

		return nil
	},
}

func init() {
	viewCmd.Flags().String("level", "", "only show records at this level")
	viewCmd.Flags().Int("limit", 0, "maximum number of records to show")
	viewCmd.Flags().Int("offset", 0, "number of records to skip")
	rootCmd.AddCommand(viewCmd)
}
