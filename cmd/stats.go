package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <userID> <topicID>",
	Short: "Show a learner's four-layer profile for a topic",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, topicID := args[0], args[1]

		repo, st, err := openRepo(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := context.Background()

		prof, err := repo.GetLearnerTopicProficiency(ctx, userID, topicID)
		if err != nil {
			return fmt.Errorf("load topic proficiency: %w", err)
		}

		fmt.Println("Knowledge")
		fmt.Println(strings.Repeat("─", 40))
		if prof == nil {
			fmt.Println("  no sessions completed for this topic yet")
		} else {
			fmt.Printf("  proficiency      %.2f\n", prof.Proficiency)
			fmt.Printf("  mastered KCs     %d\n", prof.MasteredCount)
			fmt.Printf("  in-progress KCs  %d\n", prof.InProgressCount)
			fmt.Printf("  not-started KCs  %d\n", prof.NotStartedCount)
		}
		fmt.Println()

		kcIDs, err := repo.KCsByTopic(ctx, topicID)
		if err != nil {
			return fmt.Errorf("list topic kcs: %w", err)
		}
		if len(kcIDs) > 0 {
			kcStates, err := repo.GetLearnerKcStates(ctx, userID, kcIDs)
			if err != nil {
				return fmt.Errorf("load kc states: %w", err)
			}
			sort.Slice(kcStates, func(i, j int) bool {
				return kcStates[i].MasteryLevel > kcStates[j].MasteryLevel
			})
			if len(kcStates) > 0 {
				fmt.Println("Knowledge components")
				fmt.Println(strings.Repeat("─", 40))
				fmt.Printf("%-24s  %6s  %6s  %5s\n", "KC", "Mastery", "Integ.", "Tier")
				for _, ks := range kcStates {
					fmt.Printf("%-24s  %6.2f  %6.2f  %5d\n",
						truncate(ks.KcID, 24), ks.MasteryLevel, ks.IntegratedScore, ks.DifficultyTier)
				}
				fmt.Println()
			}
		}

		beh, err := repo.GetLearnerBehavioralState(ctx, userID)
		if err != nil {
			return fmt.Errorf("load behavioral state: %w", err)
		}
		fmt.Println("Behavioral")
		fmt.Println(strings.Repeat("─", 40))
		if beh == nil {
			fmt.Println("  no sessions completed yet")
		} else {
			fmt.Printf("  sessions          %d total, %d/7d, %d/30d\n",
				beh.SessionCountTotal, beh.SessionCountLast7Days, beh.SessionCountLast30Days)
			fmt.Printf("  duration EWMA     %.0fs\n", beh.DurationEwmaS)
			fmt.Printf("  latency mean      %.0fms (trend %+.2f)\n", beh.LatencyMeanMs, beh.LatencyTrend)
			fmt.Printf("  help request rate %.2f\n", beh.HelpRequestRate)
			fmt.Printf("  calibration gap   %.2f\n", beh.CalibrationGap)
		}
		fmt.Println()

		cog, err := repo.GetLearnerCognitiveProfile(ctx, userID)
		if err != nil {
			return fmt.Errorf("load cognitive profile: %w", err)
		}
		fmt.Println("Cognitive")
		fmt.Println(strings.Repeat("─", 40))
		if cog == nil {
			fmt.Println("  no sessions completed yet")
		} else {
			fmt.Printf("  hemisphere balance  %+.2f\n", cog.HBS)
			fmt.Printf("  metacognitive acc.  %.2f\n", cog.MetacognitiveAccuracy)
			fmt.Printf("  learning velocity   %.2f\n", cog.LearningVelocityOverall)
			if len(cog.StrongestTopics) > 0 {
				fmt.Printf("  strongest topics    %s\n", strings.Join(cog.StrongestTopics, ", "))
			}
			if len(cog.WeakestTopics) > 0 {
				fmt.Printf("  weakest topics      %s\n", strings.Join(cog.WeakestTopics, ", "))
			}
		}
		fmt.Println()

		mot, err := repo.GetLearnerMotivationalState(ctx, userID)
		if err != nil {
			return fmt.Errorf("load motivational state: %w", err)
		}
		fmt.Println("Motivational")
		fmt.Println(strings.Repeat("─", 40))
		if mot == nil {
			fmt.Println("  no sessions completed yet")
		} else {
			fmt.Printf("  weekly engagement   %.2f (%s)\n", mot.WeeklyEngagementScore, mot.EngagementTrend)
			fmt.Printf("  challenge tolerance %.2f\n", mot.ChallengeToleranceEwma)
			fmt.Printf("  dropout risk        %s\n", mot.DropoutRisk)
			fmt.Printf("  burnout risk        %s\n", mot.BurnoutRisk)
		}

		return nil
	},
}
