package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/abhisek/nextstep/internal/store"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List session lifecycle events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		who, _ := cmd.Flags().GetString("candidate")

		_, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		opts := store.QueryOpts{Kind: store.KindSession}
		if who != "" {
			c, err := st.Candidate(ctx, who)
			if err != nil {
				return err
			}
			opts.CandidateID = c.ID
		}

		events, err := st.EventRepo().Events(ctx, opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		events = tail(events, limit)
		if len(events) == 0 {
			fmt.Println("No session events found.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Time", "Candidate", "Sub-test", "Attempt", "Action", "Answered", "Question"})
		for _, e := range events {
			p := gjson.Parse(e.Payload)
			table.Append([]string{
				fmt.Sprint(e.ID),
				e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(e.CandidateID, 8),
				e.SubTest,
				p.Get("attempt").String(),
				p.Get("action").String(),
				p.Get("answered_count").String(),
				p.Get("question_id").String(),
			})
		}
		table.Render()
		return nil
	},
}

// tail keeps the last n events; n <= 0 keeps all.
func tail(events []store.Event, n int) []store.Event {
	if n > 0 && len(events) > n {
		return events[len(events)-n:]
	}
	return events
}

func init() {
	eventsCmd.Flags().IntP("limit", "n", 50, "Number of events to show")
	eventsCmd.Flags().String("candidate", "", "Only events for this candidate id or email")
}
