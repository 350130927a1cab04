package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/abhisek/nextstep/internal/llm"
	"github.com/abhisek/nextstep/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect LLM request/response events",
}

// llmEvent is the decoded payload of one llm_request event.
type llmEvent struct {
	ID           int64
	Event        store.Event
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

func decodeLLMEvent(e store.Event) llmEvent {
	p := gjson.Parse(e.Payload)
	return llmEvent{
		ID:           e.ID,
		Event:        e,
		Provider:     p.Get("provider").String(),
		Model:        p.Get("model").String(),
		Purpose:      p.Get("purpose").String(),
		InputTokens:  int(p.Get("input_tokens").Int()),
		OutputTokens: int(p.Get("output_tokens").Int()),
		LatencyMs:    p.Get("latency_ms").Int(),
		Success:      p.Get("success").Bool(),
		ErrorMessage: p.Get("error_message").String(),
		RequestBody:  p.Get("request_body").String(),
		ResponseBody: p.Get("response_body").String(),
	}
}

func loadLLMEvents(cmd *cobra.Command, opts store.QueryOpts) ([]llmEvent, error) {
	_, st, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	opts.Kind = store.KindLLMRequest
	events, err := st.EventRepo().Events(cmd.Context(), opts)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	out := make([]llmEvent, 0, len(events))
	for _, e := range events {
		out = append(out, decodeLLMEvent(e))
	}
	return out, nil
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		events, err := loadLLMEvents(cmd, store.QueryOpts{})
		if err != nil {
			return err
		}
		var filtered []llmEvent
		for _, e := range events {
			if purpose == "" || e.Purpose == purpose {
				filtered = append(filtered, e)
			}
		}
		if limit > 0 && len(filtered) > limit {
			filtered = filtered[len(filtered)-limit:]
		}
		if len(filtered) == 0 {
			fmt.Println("No LLM events found.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK"})
		for _, e := range filtered {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			table.Append([]string{
				strconv.FormatInt(e.ID, 10),
				e.Event.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				truncate(e.Model, 28),
				strconv.Itoa(e.InputTokens),
				strconv.Itoa(e.OutputTokens),
				strconv.FormatInt(e.LatencyMs, 10),
				ok,
			})
		}
		table.Render()
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		events, err := loadLLMEvents(cmd, store.QueryOpts{After: id - 1, Limit: 1})
		if err != nil {
			return err
		}
		if len(events) == 0 || events[0].ID != id {
			return fmt.Errorf("event %d not found", id)
		}
		e := events[0]

		sep := strings.Repeat("─", 60)

		fmt.Printf("ID:        %d\n", e.ID)
		fmt.Printf("Time:      %s\n", e.Event.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Provider:  %s\n", e.Provider)
		fmt.Printf("Model:     %s\n", e.Model)
		fmt.Printf("Purpose:   %s\n", e.Purpose)
		fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Printf("Latency:   %dms\n", e.LatencyMs)
		fmt.Printf("Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Printf("Error:     %s\n", e.ErrorMessage)
		}

		for _, section := range []struct{ title, body string }{
			{"REQUEST", e.RequestBody},
			{"RESPONSE", e.ResponseBody},
		} {
			fmt.Println(sep)
			fmt.Println(section.title)
			fmt.Println(sep)
			if section.body != "" {
				fmt.Println(section.body)
			} else {
				fmt.Println("(not captured)")
			}
		}
		return nil
	},
}

// usage sums tokens and latency for one group of events.
type usage struct {
	Key          string
	Calls        int
	InputTokens  int
	OutputTokens int
	latencyMs    int64
}

func (u usage) AvgLatencyMs() int64 {
	if u.Calls == 0 {
		return 0
	}
	return u.latencyMs / int64(u.Calls)
}

// groupUsage sums events by key, sorted by key.
func groupUsage(events []llmEvent, key func(llmEvent) string) []usage {
	byKey := make(map[string]*usage)
	for _, e := range events {
		k := key(e)
		u, ok := byKey[k]
		if !ok {
			u = &usage{Key: k}
			byKey[k] = u
		}
		u.Calls++
		u.InputTokens += e.InputTokens
		u.OutputTokens += e.OutputTokens
		u.latencyMs += e.LatencyMs
	}
	out := make([]usage, 0, len(byKey))
	for _, u := range byKey {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := loadLLMEvents(cmd, store.QueryOpts{})
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		fmt.Println("Usage by Purpose")
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Purpose", "Calls", "Input", "Output", "Total", "Avg Ms"})
		var totalCalls, totalIn, totalOut int
		for _, u := range groupUsage(events, func(e llmEvent) string { return e.Purpose }) {
			table.Append([]string{
				u.Key, strconv.Itoa(u.Calls), strconv.Itoa(u.InputTokens), strconv.Itoa(u.OutputTokens),
				strconv.Itoa(u.InputTokens + u.OutputTokens), strconv.FormatInt(u.AvgLatencyMs(), 10),
			})
			totalCalls += u.Calls
			totalIn += u.InputTokens
			totalOut += u.OutputTokens
		}
		table.SetFooter([]string{"TOTAL", strconv.Itoa(totalCalls), strconv.Itoa(totalIn), strconv.Itoa(totalOut), strconv.Itoa(totalIn + totalOut), ""})
		table.Render()

		fmt.Println()
		fmt.Println("Estimated Cost (USD)")
		costs := tablewriter.NewWriter(os.Stdout)
		costs.SetHeader([]string{"Model", "Calls", "Input", "Output", "Cost"})

		var totalCost float64
		var unknownModels []string
		for _, u := range groupUsage(events, func(e llmEvent) string { return e.Model }) {
			cost := llm.LookupCost(u.Key)
			cell := "?"
			if cost == nil {
				unknownModels = append(unknownModels, u.Key)
			} else {
				c := cost.Cost(u.InputTokens, u.OutputTokens)
				totalCost += c
				cell = formatCost(c)
			}
			costs.Append([]string{truncate(u.Key, 32), strconv.Itoa(u.Calls), strconv.Itoa(u.InputTokens), strconv.Itoa(u.OutputTokens), cell})
		}
		label := "TOTAL"
		if len(unknownModels) > 0 {
			label = "TOTAL (partial)"
		}
		costs.SetFooter([]string{label, "", "", "", formatCost(totalCost)})
		costs.Render()

		if len(unknownModels) > 0 {
			fmt.Printf("\nPricing unavailable for: %s\n", strings.Join(unknownModels, ", "))
		}
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. career-guidance)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
