package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// seedCmd installs a small demo fixture: one user, two topics with a
// handful of content items each, tagged with knowledge components, enough
// to exercise `session start` end to end. Content authoring is out of this
// engine's scope at runtime (§1); this command exists only to make the
// CLI usable without a separate authoring pipeline.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install a small demo user/topic/content fixture",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openRepo(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		tx := st.DB.MustBegin()

		tx.MustExec(`INSERT OR REPLACE INTO users (id, is_active) VALUES (?, 1)`, "demo-learner")

		topics := []struct{ id, name string }{
			{"topic-fractions", "Fractions"},
			{"topic-decimals", "Decimals"},
		}
		for _, t := range topics {
			tx.MustExec(`INSERT OR REPLACE INTO topics (id, name) VALUES (?, ?)`, t.id, t.name)
		}

		type item struct {
			id, topic, stage, itemType, primaryKC string
			difficulty                            int
			interleaveEligible                    bool
			tags                                  []string
			body                                  string
		}
		items := []item{
			{"fr-enc-1", "topic-fractions", "encounter", "worked_example", "kc-fraction-equivalence", 1, false, []string{"fractions", "equivalence"}, "Two fractions are equivalent when they represent the same quantity."},
			{"fr-ana-1", "topic-fractions", "analysis", "multiple_choice", "kc-fraction-equivalence", 1, true, []string{"fractions", "equivalence"}, "Which fraction is equivalent to 1/2?"},
			{"fr-ana-2", "topic-fractions", "analysis", "multiple_choice", "kc-fraction-addition", 2, true, []string{"fractions", "addition"}, "What is 1/4 + 1/4?"},
			{"fr-ana-3", "topic-fractions", "analysis", "free_text", "kc-fraction-addition", 2, true, []string{"fractions", "addition"}, "Explain why fractions need a common denominator before adding."},
			{"fr-ret-1", "topic-fractions", "return", "self_rated", "kc-fraction-equivalence", 1, false, []string{"fractions"}, "How confident are you identifying equivalent fractions?"},
			{"dc-enc-1", "topic-decimals", "encounter", "worked_example", "kc-decimal-place-value", 1, false, []string{"decimals", "place-value"}, "Each digit after the decimal point represents a power of ten."},
			{"dc-ana-1", "topic-decimals", "analysis", "multiple_choice", "kc-decimal-place-value", 1, true, []string{"decimals", "place-value"}, "Which digit is in the hundredths place in 3.14?"},
			{"dc-ret-1", "topic-decimals", "return", "self_rated", "kc-decimal-place-value", 1, false, []string{"decimals"}, "How confident are you reading decimal place value?"},
		}
		for _, it := range items {
			tagsJSON, merr := json.Marshal(it.tags)
			if merr != nil {
				return fmt.Errorf("marshal tags for %s: %w", it.id, merr)
			}
			tx.MustExec(`
				INSERT OR REPLACE INTO content_items
					(id, topic_id, stage, item_type, difficulty_level, hemisphere_mode,
					 estimated_duration_s, is_active, is_reviewable, interleave_eligible,
					 similarity_tags, body, primary_kc_id)
				VALUES (?, ?, ?, ?, ?, '', 30, 1, 1, ?, ?, ?, ?)`,
				it.id, it.topic, it.stage, it.itemType, it.difficulty, it.interleaveEligible,
				string(tagsJSON), it.body, it.primaryKC)
			tx.MustExec(`
				INSERT OR REPLACE INTO content_item_kcs (content_item_id, kc_id, topic_id, is_primary)
				VALUES (?, ?, ?, 1)`, it.id, it.primaryKC, it.topic)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit seed data: %w", err)
		}

		fmt.Println("seeded demo-learner with topics:", topics[0].id, topics[1].id)
		return nil
	},
}
