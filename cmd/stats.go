package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/abhisek/nextstep/internal/assessment"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show every candidate's progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		cs, err := st.Candidates(ctx)
		if err != nil {
			return err
		}
		if len(cs) == 0 {
			fmt.Println("No candidates registered.")
			return nil
		}

		header := []string{"Candidate"}
		for _, subTest := range assessment.AllSubTests {
			header = append(header, subTest.Label())
		}
		header = append(header, "Final")

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader(header)

		var done int
		for _, c := range cs {
			row := []string{c.Email}
			complete := 0
			for _, subTest := range assessment.AllSubTests {
				sess, err := st.LoadSession(ctx, assessment.Key{CandidateID: c.ID, SubTest: subTest})
				if err != nil {
					return err
				}
				if sess.State == assessment.StateComplete {
					complete++
				}
				row = append(row, progressCell(sess))
			}

			final := "-"
			if _, err := st.FinalResult(ctx, c.ID); err == nil {
				final = "yes"
				done++
			} else if complete == len(assessment.AllSubTests) {
				final = "ready"
			}
			table.Append(append(row, final))
		}
		table.Render()

		color.Cyan("%d of %d candidates have a final result", done, len(cs))
		return nil
	},
}

func progressCell(sess *assessment.Session) string {
	switch sess.State {
	case assessment.StateComplete:
		return fmt.Sprintf("done (#%d)", sess.Attempt)
	case assessment.StateInProgress, assessment.StateCompleting:
		return fmt.Sprintf("%d/%d", sess.AnsweredCount, sess.QuestionCount)
	}
	return "-"
}
