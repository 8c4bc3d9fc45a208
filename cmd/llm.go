package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect logged calls to the scoring collaborator's LLM provider",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		repo, st, err := openRepo(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := context.Background()
		events, err := repo.ListLLMRequests(ctx, limit)
		if err != nil {
			return fmt.Errorf("list llm requests: %w", err)
		}

		if len(events) == 0 {
			fmt.Println("No LLM requests logged yet.")
			return nil
		}

		fmt.Printf("%-14s  %-28s  %-8s  %-8s  %-7s  %s\n",
			"Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 80))
		for _, e := range events {
			if purpose != "" && e.Purpose != purpose {
				continue
			}
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Printf("%-14s  %-28s  %-8d  %-8d  %-7d  %s\n",
				e.Purpose, truncate(e.Model, 28), e.InputTokens, e.OutputTokens, e.LatencyMs, ok)
			if !e.Success && e.ErrorMessage != "" {
				fmt.Printf("  error: %s\n", e.ErrorMessage)
			}
		}
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage by model",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, st, err := openRepo(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := context.Background()
		events, err := repo.ListLLMRequests(ctx, 0)
		if err != nil {
			return fmt.Errorf("list llm requests: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		type usage struct {
			calls, in, out int
		}
		byModel := map[string]*usage{}
		var totalIn, totalOut, totalCalls int
		for _, e := range events {
			u := byModel[e.Model]
			if u == nil {
				u = &usage{}
				byModel[e.Model] = u
			}
			u.calls++
			u.in += e.InputTokens
			u.out += e.OutputTokens
			totalCalls++
			totalIn += e.InputTokens
			totalOut += e.OutputTokens
		}

		fmt.Printf("%-32s  %6s  %10s  %10s\n", "Model", "Calls", "Input", "Output")
		fmt.Println(strings.Repeat("─", 62))
		for model, u := range byModel {
			fmt.Printf("%-32s  %6d  %10d  %10d\n", truncate(model, 32), u.calls, u.in, u.out)
		}
		fmt.Println(strings.Repeat("─", 62))
		fmt.Printf("%-32s  %6d  %10d  %10d\n", "TOTAL", totalCalls, totalIn, totalOut)
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. response-scoring)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
