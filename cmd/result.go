package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/engine"
)

var resultCmd = &cobra.Command{
	Use:   "result",
	Short: "Inspect and generate assessment results",
}

var resultShowCmd = &cobra.Command{
	Use:   "show <candidate id or email>",
	Short: "Show the stored final result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		c, err := st.Candidate(ctx, args[0])
		if err != nil {
			return err
		}
		fr, err := st.FinalResult(ctx, c.ID)
		if errors.Is(err, assessment.ErrNotFound) {
			return fmt.Errorf("no final result for %s yet; run \"nextstep result generate\"", c.Email)
		}
		if err != nil {
			return err
		}
		return printFinal(cmd, fr)
	},
}

var resultGenerateCmd = &cobra.Command{
	Use:   "generate <candidate id or email>",
	Short: "Aggregate the sub-test results and write career guidance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		log, err := newLogger(cfg.Log)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()
		c, err := st.Candidate(ctx, args[0])
		if err != nil {
			return err
		}

		eng, err := engine.Build(ctx, cfg, st, log, engine.Options{})
		if err != nil {
			return fmt.Errorf("build engine: %w", err)
		}
		defer eng.Close()

		fr, err := eng.Aggregator.Generate(ctx, c.ID)
		var incomplete *assessment.AggregationIncompleteError
		if errors.As(err, &incomplete) {
			color.Yellow("Not all sub-tests are complete.")
			for _, missing := range incomplete.Missing {
				fmt.Printf("  missing: %s\n", missing.Label())
			}
			return err
		}
		if err != nil {
			return err
		}
		return printFinal(cmd, fr)
	},
}

var resultSubTestCmd = &cobra.Command{
	Use:   "subtest <candidate id or email> <sub-test>",
	Short: "Show one sub-test's summary",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		subTest, err := assessment.ParseSubTest(args[1])
		if err != nil {
			return err
		}

		_, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		c, err := st.Candidate(ctx, args[0])
		if err != nil {
			return err
		}
		r, err := st.SubTestResult(ctx, c.ID, subTest)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(r)
		}
		color.Cyan("%s (attempt %d, completed %s)", subTest.Label(), r.Attempt, r.CompletedAt.Local().Format("2006-01-02 15:04"))
		printSummary(r.Summary)
		return nil
	},
}

func printFinal(cmd *cobra.Command, fr *assessment.FinalResult) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(fr)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Measure", "Result"})
	table.Append([]string{"Average rating", fmt.Sprintf("%.0f", fr.AverageScore)})
	table.Append([]string{"Coding", fr.TechnicalTest})
	table.Append([]string{"Coding level", fr.TechnicalLevel})
	table.Append([]string{"Personality", fr.NonTechnicalTest})
	table.Render()

	fmt.Println()
	color.Cyan("Career guidance")
	fmt.Println(fr.Narrative)
	fmt.Printf("\n(generated %s)\n", fr.GeneratedAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func printSummary(sum assessment.Summary) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	if sum.Score != nil {
		table.Append([]string{"rating", fmt.Sprintf("%.0f", *sum.Score)})
	}
	if sum.Label != "" {
		table.Append([]string{"type", sum.Label})
	}
	if sum.Total > 0 {
		table.Append([]string{"solved", fmt.Sprintf("%d/%d", sum.Solved, sum.Total)})
	}
	if sum.Level != "" {
		table.Append([]string{"level", sum.Level})
	}
	table.Append([]string{"answered", fmt.Sprint(sum.Answered)})

	keys := make([]string, 0, len(sum.Metrics))
	for k := range sum.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		table.Append([]string{k, fmt.Sprintf("%.1f", sum.Metrics[k])})
	}
	table.Render()
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{resultShowCmd, resultGenerateCmd, resultSubTestCmd} {
		c.Flags().Bool("json", false, "Print JSON instead of a table")
		resultCmd.AddCommand(c)
	}
}
