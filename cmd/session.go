package cmd

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/hemisphere-labs/engine/internal/auth"
	"github.com/hemisphere-labs/engine/internal/llm"
	"github.com/hemisphere-labs/engine/internal/orchestrator"
	"github.com/hemisphere-labs/engine/internal/scoring"
	"github.com/hemisphere-labs/engine/internal/store"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Drive a learning session through the lifecycle orchestrator",
}

// repoAuthenticator treats the bearer credential as the userID directly,
// trusting whatever the store says about that user. It exists only for
// this offline CLI driver; a real deployment supplies its own
// auth.Authenticator at the HTTP boundary.
type repoAuthenticator struct {
	repo store.Repository
}

func (a repoAuthenticator) Authenticate(ctx context.Context, credential string) (auth.Identity, error) {
	u, err := a.repo.GetUser(ctx, credential)
	if err != nil {
		return auth.Identity{}, err
	}
	if u == nil {
		return auth.Identity{}, auth.ErrInvalidCredential
	}
	return auth.Identity{UserID: u.ID, Role: "learner", IsActive: u.IsActive}, nil
}

func openService(cmd *cobra.Command) (*orchestrator.Service, func(), error) {
	repo, st, err := openRepo(cmd)
	if err != nil {
		return nil, nil, err
	}

	provider, err := llm.NewProvider(llm.ConfigFromEnv(), repo)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	scorer := scoring.NewLLMCollaborator(provider, scoring.DefaultConfig())
	svc := orchestrator.NewService(repo, scorer, repoAuthenticator{repo: repo}, nil, nil)
	return svc, func() { st.Close() }, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var sessionStartCmd = &cobra.Command{
	Use:   "start <userID> <topicID>",
	Short: "Plan and start a new session for a user/topic",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		sessionType, _ := cmd.Flags().GetString("type")
		related, _ := cmd.Flags().GetString("related")
		var relatedTopics []string
		if related != "" {
			relatedTopics = strings.Split(related, ",")
		}

		res, oerr := svc.StartSession(cmd.Context(), args[0], orchestrator.StartSessionRequest{
			UserID:          args[0],
			TopicID:         args[1],
			SessionType:     sessionType,
			RelatedTopicIDs: relatedTopics,
		})
		if oerr != nil {
			return oerr
		}
		return printJSON(res)
	},
}

var sessionRespondCmd = &cobra.Command{
	Use:   "respond <userID> <sessionID> <itemID>",
	Short: "Record one learner response and advance the session",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		responseType, _ := cmd.Flags().GetString("response-type")
		payload, _ := cmd.Flags().GetString("payload")
		latencyMs, _ := cmd.Flags().GetInt64("latency-ms")
		correctFlag, _ := cmd.Flags().GetString("correct")
		ratingFlag, _ := cmd.Flags().GetInt("rating")

		req := orchestrator.RecordResponseRequest{
			UserID:          args[0],
			SessionID:       args[1],
			ItemID:          args[2],
			ResponseType:    responseType,
			ResponsePayload: payload,
			LatencyMs:       latencyMs,
		}
		switch correctFlag {
		case "true":
			v := true
			req.Correct = &v
		case "false":
			v := false
			req.Correct = &v
		}
		if cmd.Flags().Changed("rating") {
			req.Rating = &ratingFlag
		}

		res, oerr := svc.RecordResponse(cmd.Context(), args[0], req)
		if oerr != nil {
			return oerr
		}
		return printJSON(res)
	},
}

var sessionCompleteCmd = &cobra.Command{
	Use:   "complete <userID> <sessionID>",
	Short: "Complete a session: aggregate mastery, reschedule FSRS, refresh profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		res, oerr := svc.CompleteSession(cmd.Context(), args[0], args[0], args[1])
		if oerr != nil {
			return oerr
		}
		return printJSON(res)
	},
}

var sessionActiveCmd = &cobra.Command{
	Use:   "active <userID>",
	Short: "Show the learner's currently in-progress session, if any",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()

		res, oerr := svc.GetActive(cmd.Context(), args[0], args[0])
		if oerr != nil {
			return oerr
		}
		return printJSON(res)
	},
}

func init() {
	sessionStartCmd.Flags().String("type", "standard", "Session type: quick, standard, extended")
	sessionStartCmd.Flags().String("related", "", "Comma-separated interleave-candidate topic ids")

	sessionRespondCmd.Flags().String("response-type", "multiple_choice", "multiple_choice, free_text, self_rated, ...")
	sessionRespondCmd.Flags().String("payload", "", "Raw response payload")
	sessionRespondCmd.Flags().Int64("latency-ms", 0, "Milliseconds between presentation and response")
	sessionRespondCmd.Flags().String("correct", "", "true, false, or empty for pending/external scoring")
	sessionRespondCmd.Flags().Int("rating", 0, "Self-rating 1-4 when applicable")

	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionRespondCmd)
	sessionCmd.AddCommand(sessionCompleteCmd)
	sessionCmd.AddCommand(sessionActiveCmd)
}
