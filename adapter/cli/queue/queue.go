package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eduardojeem/benchline/adapter/cli"
	"github.com/eduardojeem/benchline/internal/triage/application/queries"
)

// Cmd is the queue command group.
var Cmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the prioritized bench queue",
}

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the current priority ordering",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		out := cmd.OutOrStdout()
		if app == nil || app.Queue == nil {
			fmt.Fprintln(out, "Queue requires a ticket store connection.")
			fmt.Fprintln(out, "Set DATABASE_URL and try again.")
			return nil
		}

		scored, err := app.Queue.Handle(cmd.Context(), queries.GetQueueQuery{})
		if err != nil {
			return err
		}

		if listJSON {
			return json.NewEncoder(out).Encode(scored)
		}

		if len(scored) == 0 {
			fmt.Fprintln(out, "No pending work items.")
			return nil
		}

		for i, s := range scored {
			fmt.Fprintf(out, "%2d. %-40s %6.3f  (%s, urgency %d, %s)\n",
				i+1,
				truncate(s.Item.DeviceDescriptor+" - "+s.Item.IssueDescription, 40),
				s.Total,
				s.Item.CurrentStage,
				s.Item.UrgencyLevel,
				s.Item.CreatedAt.Format("2006-01-02"),
			)
		}
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <item-id>",
	Short: "Show the score breakdown for one item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		out := cmd.OutOrStdout()
		if app == nil || app.Queue == nil {
			return errors.New("queue handler not configured")
		}

		scored, err := app.Queue.Handle(cmd.Context(), queries.GetQueueQuery{})
		if err != nil {
			return err
		}

		for _, s := range scored {
			if s.Item.ID.String() != args[0] {
				continue
			}
			fmt.Fprintf(out, "total:                %.3f\n", s.Total)
			fmt.Fprintf(out, "urgency:              %.3f\n", s.Breakdown.Urgency)
			fmt.Fprintf(out, "wait time:            %.3f\n", s.Breakdown.WaitTime)
			fmt.Fprintf(out, "historical value:     %.3f\n", s.Breakdown.HistoricalValue)
			fmt.Fprintf(out, "technical complexity: %.3f\n", s.Breakdown.TechnicalComplexity)
			for _, rule := range s.Breakdown.MatchedRules {
				fmt.Fprintf(out, "rule %q:              %+.3f\n", rule.Name, rule.Bonus)
			}
			return nil
		}

		return fmt.Errorf("work item %s not found in the pending queue", args[0])
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(explainCmd)
}
