package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/abhisek/nextstep/internal/assessment"
	"github.com/abhisek/nextstep/internal/bank"
	"github.com/abhisek/nextstep/internal/engine"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Inspect question banks",
}

// loadBankFor resolves a sub-test argument to its bank: --file wins over
// the configured path, which wins over the embedded default.
func loadBankFor(cmd *cobra.Command, arg string) (assessment.SubTest, *bank.Bank, error) {
	st, err := assessment.ParseSubTest(arg)
	if err != nil {
		return "", nil, err
	}
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return "", nil, err
		}
		path = cfg.SubTest(st).Bank
	}
	b, err := engine.LoadBank(st, path)
	if err != nil {
		return "", nil, err
	}
	return st, b, nil
}

var bankListCmd = &cobra.Command{
	Use:   "list <sub-test>",
	Short: "List the questions in a bank",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, b, err := loadBankFor(cmd, args[0])
		if err != nil {
			return err
		}

		topic, _ := cmd.Flags().GetString("topic")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		qs := b.Filter(func(q *assessment.Question) bool {
			return (topic == "" || strings.EqualFold(q.Topic, topic)) &&
				(difficulty == "" || strings.EqualFold(q.Difficulty, difficulty))
		})

		fmt.Printf("%s bank: %d of %d questions\n", st.Label(), len(qs), b.Len())
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"#", "ID", "Topic", "Difficulty", "Prompt"})
		table.SetAutoWrapText(false)
		for _, q := range qs {
			prompt := q.Prompt
			if q.Problem != nil && q.Problem.Title != "" {
				prompt = q.Problem.Title
			}
			table.Append([]string{
				strconv.Itoa(q.Ordinal + 1),
				q.ID,
				q.Topic,
				q.Difficulty,
				truncate(strings.ReplaceAll(prompt, "\n", " "), 60),
			})
		}
		table.Render()
		return nil
	},
}

var bankTopicsCmd = &cobra.Command{
	Use:   "topics <sub-test>",
	Short: "List the topics of a bank with question counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, b, err := loadBankFor(cmd, args[0])
		if err != nil {
			return err
		}
		topics := b.Topics()
		if len(topics) == 0 {
			fmt.Printf("%s bank has no topics\n", st.Label())
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Topic", "Questions"})
		for _, t := range topics {
			n := len(b.Filter(func(q *assessment.Question) bool { return q.Topic == t }))
			table.Append([]string{t, strconv.Itoa(n)})
		}
		table.Render()
		return nil
	},
}

var bankPreviewCmd = &cobra.Command{
	Use:   "preview <sub-test> <question-id>",
	Short: "Show a question as a candidate would see it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, b, err := loadBankFor(cmd, args[0])
		if err != nil {
			return err
		}
		q, ok := b.Get(args[1])
		if !ok {
			return fmt.Errorf("question %q not found", args[1])
		}
		showAnswers, _ := cmd.Flags().GetBool("answers")

		heading := color.New(color.FgCyan, color.Bold)
		dim := color.New(color.Faint)
		good := color.New(color.FgGreen)

		heading.Printf("Question %d: %s\n", q.Ordinal+1, q.ID)
		if q.Topic != "" || q.Difficulty != "" {
			dim.Printf("%s  %s\n", q.Topic, q.Difficulty)
		}
		fmt.Println()
		fmt.Println(q.Prompt)

		for i, opt := range q.Options {
			line := fmt.Sprintf("  %d. %s", i+1, opt)
			if showAnswers && opt == q.Answer {
				good.Println(line + "  ✓")
				continue
			}
			fmt.Println(line)
		}

		if p := q.Problem; p != nil {
			fmt.Println()
			heading.Println(p.Title)
			fmt.Printf("Input:       %s\n", p.InputExample)
			if p.Constraints != "" {
				fmt.Printf("Constraints: %s\n", p.Constraints)
			}
			fmt.Printf("Length:      %d-%d lines\n", p.MinLines, p.MaxLines)
			if showAnswers {
				good.Printf("Expected:    %s\n", p.ExpectedOutput)
			}
		}

		if showAnswers && len(q.Options) == 0 && q.Problem == nil && q.Answer != "" {
			fmt.Println()
			good.Printf("Answer: %s\n", q.Answer)
		}
		return nil
	},
}

func init() {
	bankCmd.PersistentFlags().String("file", "", "Load the bank from this YAML file instead of the configured one")
	bankPreviewCmd.Flags().Bool("answers", false, "Reveal the answer key")
	bankListCmd.Flags().String("topic", "", "Only list questions in this topic")
	bankListCmd.Flags().String("difficulty", "", "Only list questions of this difficulty")

	bankCmd.AddCommand(bankListCmd)
	bankCmd.AddCommand(bankTopicsCmd)
	bankCmd.AddCommand(bankPreviewCmd)
}
