package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"fabric-bridge/internal/decision"
)

func newPlanCmd(opts *rootOptions) *cobra.Command {
	var sessionName string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan connector skips for a session",
		Long:  "Resolves every scanned connector type against the Fabric-supported list and reports which connectors would be skipped. When the list cannot be fetched, nothing is skipped.",
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
			plan, err := application.Sessions.PlanSkips(ctx, session.ID)
			if err != nil {
				return err
			}

			types := make([]string, 0, len(plan))
			for t := range plan {
				types = append(types, t)
			}
			sort.Strings(types)

			if getOutputFormat(cmd) == "json" {
				out := make(map[string]interface{}, len(plan))
				for _, t := range types {
					d := plan[t]
					out[t] = map[string]interface{}{
						"fabric_type":         d.FabricType,
						"should_skip":         d.ShouldSkip,
						"reason":              d.Reason,
						"verification_status": string(d.Status),
						"message":             decision.DecisionMessage(d),
					}
				}
				return printJSON(os.Stdout, out)
			}

			rows := make([][]string, 0, len(types))
			for _, t := range types {
				d := plan[t]
				action := "include"
				if d.ShouldSkip {
					action = "skip"
				}
				rows = append(rows, []string{t, d.FabricType, action, d.Reason})
			}
			printTable(cmd.OutOrStdout(), []string{"SOURCE TYPE", "FABRIC TYPE", "ACTION", "REASON"}, rows)
			if len(rows) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No connector types found; run scan first.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionName, "session", "", "Migration session name")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}
