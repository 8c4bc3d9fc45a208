package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// resetTables lists every table keyed by user_id, in an order safe for
// foreign-key-free deletes. Shared tables (topics, content_items,
// content_item_kcs) are untouched: they're read-only content, not learner
// state.
var resetTables = []string{
	"sessions",
	"assessment_events",
	"fsrs_memory_rows",
	"fsrs_parameters",
	"learner_kc_states",
	"learner_topic_proficiency",
	"learner_behavioral_states",
	"learner_cognitive_profiles",
	"learner_motivational_states",
}

var resetCmd = &cobra.Command{
	Use:   "reset <userID>",
	Short: "Wipe a learner's sessions, memory rows and profile state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID := args[0]

		_, st, err := openRepo(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		tx := st.DB.MustBegin()
		for _, table := range resetTables {
			if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE user_id = ?`, table), userID); err != nil {
				tx.Rollback()
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit reset: %w", err)
		}

		fmt.Println("reset learner data for", userID)
		return nil
	},
}
