package cmd

import (
	"fmt"

	"github.com/hemisphere-labs/engine/internal/fsrs"
	"github.com/hemisphere-labs/engine/internal/store"
	"github.com/spf13/cobra"
)

// tuneCmd drives the weekly per-learner weight-tuning heuristic (§4.1). A
// real deployment feeds LearnerStats from a scheduled aggregation over the
// week's fsrs_memory_rows; this CLI accepts the aggregate directly since
// that batch job sits outside the engine's repository contract (§6).
var tuneCmd = &cobra.Command{
	Use:   "tune <userID>",
	Short: "Run the weekly FSRS weight-tuning heuristic for a learner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := args[0]

		repo, st, err := openRepo(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()

		base := fsrs.DefaultWeights
		if existing, gerr := repo.GetFsrsParameters(ctx, userID); gerr != nil {
			return fmt.Errorf("load existing parameters: %w", gerr)
		} else if existing != nil {
			base = existing.Weights
		}

		totalReviews, _ := cmd.Flags().GetInt("total-reviews")
		totalLapses, _ := cmd.Flags().GetInt("total-lapses")
		avgR, _ := cmd.Flags().GetFloat64("avg-retrievability")
		avgS, _ := cmd.Flags().GetFloat64("avg-stability")
		avgD, _ := cmd.Flags().GetFloat64("avg-difficulty")

		result := fsrs.OptimizeWeights(base, fsrs.LearnerStats{
			TotalReviews:      totalReviews,
			TotalLapses:       totalLapses,
			AvgRetrievability: avgR,
			AvgStability:      avgS,
			AvgDifficulty:     avgD,
		})

		if err := repo.UpsertFsrsParameters(ctx, store.FsrsParameters{
			UserID:          userID,
			Weights:         result.Weights,
			TargetRetention: result.TargetRetention,
		}); err != nil {
			return fmt.Errorf("persist tuned parameters: %w", err)
		}

		fmt.Printf("lapseRate=%.3f adjustmentScore=%+.3f targetRetention=%.3f\n",
			result.LapseRate, result.AdjustmentScore, result.TargetRetention)
		fmt.Println("weights:", result.Weights)
		return nil
	},
}

func init() {
	tuneCmd.Flags().Int("total-reviews", 0, "Reviews this learner completed in the window")
	tuneCmd.Flags().Int("total-lapses", 0, "Again-rated reviews in the window")
	tuneCmd.Flags().Float64("avg-retrievability", 0.9, "Mean retrievability across reviews in the window")
	tuneCmd.Flags().Float64("avg-stability", 1, "Mean stability across reviews in the window")
	tuneCmd.Flags().Float64("avg-difficulty", 5, "Mean difficulty across reviews in the window")
}
