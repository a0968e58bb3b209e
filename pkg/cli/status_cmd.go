package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var sessionName string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show mapping progress for a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, closeApp, err := openApp(opts)
			if err != nil {
				return err
			}
			defer closeApp()
			ctx := cmd.Context()

			session, err := resolveSession(ctx, application, sessionName, false)
			if err != nil {
				return err
			}
			summary, err := application.Sessions.Summary(ctx, session.ID)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, summary)
			}

			rows := make([][]string, 0, len(summary.Pipelines))
			for _, p := range summary.Pipelines {
				rows = append(rows, []string{
					p.PipelineName,
					fmt.Sprintf("%d", p.TotalActivities),
					fmt.Sprintf("%d", p.TotalReferences),
					fmt.Sprintf("%d", p.MappedReferences),
					fmt.Sprintf("%d%%", p.MappingPercentage),
				})
			}
			printTable(cmd.OutOrStdout(), []string{"PIPELINE", "ACTIVITIES", "REFERENCES", "MAPPED", "PROGRESS"}, rows)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nOverall: %d/%d references mapped (%d%%)\n",
				summary.MappedReferences, summary.TotalReferences, summary.MappingPercentage)
			if summary.ReadyToDeploy {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "All pipelines fully mapped.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionName, "session", "", "Migration session name")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}
