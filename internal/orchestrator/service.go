package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hemisphere-labs/engine/internal/analytics"
	"github.com/hemisphere-labs/engine/internal/auth"
	"github.com/hemisphere-labs/engine/internal/cache"
	"github.com/hemisphere-labs/engine/internal/scoring"
	"github.com/hemisphere-labs/engine/internal/selector"
	"github.com/hemisphere-labs/engine/internal/sessionfsm"
	"github.com/hemisphere-labs/engine/internal/store"
)

// Service wires the repository and collaborators into the four learner
// operations. It is safe for concurrent use: per-user operations are
// serialised internally via userLocks.
type Service struct {
	repo   store.Repository
	scorer scoring.Collaborator
	authn  auth.Authenticator
	emit   analytics.Emitter
	cache  cache.Cache

	userLocks *keyedMutex

	// Clock lets tests substitute a fixed time source; nil uses time.Now.
	Clock func() time.Time
}

// NewService builds a Service. emitter and contentCache may be nil, in
// which case analytics.NoopEmitter and cache.NewMemory() are used.
func NewService(repo store.Repository, scorer scoring.Collaborator, authn auth.Authenticator, emitter analytics.Emitter, contentCache cache.Cache) *Service {
	if emitter == nil {
		emitter = analytics.NoopEmitter{}
	}
	if contentCache == nil {
		contentCache = cache.NewMemory()
	}
	return &Service{
		repo:      repo,
		scorer:    scorer,
		authn:     authn,
		emit:      emitter,
		cache:     contentCache,
		userLocks: newKeyedMutex(),
	}
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

// authenticate validates credential and ensures the resolved identity is
// active and matches wantUserID (when non-empty).
func (s *Service) authenticate(ctx context.Context, credential, wantUserID string) (auth.Identity, *Error) {
	id, err := s.authn.Authenticate(ctx, credential)
	if err != nil {
		return auth.Identity{}, newForbidden("invalid credential")
	}
	if !id.IsActive {
		return auth.Identity{}, newForbidden("user is not active")
	}
	if wantUserID != "" && id.UserID != wantUserID {
		return auth.Identity{}, newForbidden("credential does not authorize this user")
	}
	return id, nil
}

// GetActive implements getActive: the most recently started in_progress
// session for the user, with its item queue rehydrated.
func (s *Service) GetActive(ctx context.Context, credential, userID string) (*ActiveSessionView, *Error) {
	if _, aerr := s.authenticate(ctx, credential, userID); aerr != nil {
		return nil, aerr
	}

	row, err := s.repo.MostRecentInProgressSessionForUser(ctx, userID)
	if err != nil {
		return nil, newInternal("load active session", err)
	}
	if row == nil {
		return &ActiveSessionView{Active: false}, nil
	}

	state, derr := decodeState(row.AdaptiveDecisions)
	if derr != nil {
		return nil, newInternal("decode session state", derr)
	}

	items, ierr := s.loadContent(ctx, state.ItemQueue)
	if ierr != nil {
		return nil, newInternal("load queued content", ierr)
	}
	byID := contentItemViewIndex(items)

	return &ActiveSessionView{
		Active:           true,
		SessionID:        row.ID,
		TopicID:          row.TopicID,
		SessionType:       row.SessionType,
		Stage:            stageString(state.CurrentStage),
		CurrentItemIndex: state.CurrentItemIndex,
		StartedAt:        state.StartedAt,
		Items:            itemViewsFrom(state.ItemQueue, byID),
	}, nil
}

// StartSession implements startSession.
func (s *Service) StartSession(ctx context.Context, credential string, req StartSessionRequest) (*StartSessionResult, *Error) {
	if _, aerr := s.authenticate(ctx, credential, req.UserID); aerr != nil {
		return nil, aerr
	}
	if req.TopicID == "" {
		return nil, newValidation("topicId is required", nil)
	}

	unlock := s.userLocks.Lock(req.UserID)
	defer unlock()

	topic, err := s.repo.GetTopic(ctx, req.TopicID)
	if err != nil {
		return nil, newInternal("load topic", err)
	}
	if topic == nil {
		return nil, newNotFound("topic does not exist")
	}

	existing, err := s.repo.MostRecentInProgressSession(ctx, req.UserID, req.TopicID)
	if err != nil {
		return nil, newInternal("check existing session", err)
	}
	if existing != nil {
		return nil, newConflict("an in_progress session already exists for this user and topic")
	}

	now := s.now()
	sessionType := req.SessionType
	if sessionType == "" {
		sessionType = "standard"
	}

	topicIDs := append([]string{req.TopicID}, req.RelatedTopicIDs...)
	pool, err := s.repo.ListActiveContentByTopics(ctx, topicIDs)
	if err != nil {
		return nil, newInternal("load content pool", err)
	}

	encounterIDs, analysisCandidates, returnIDs := partitionPool(pool, req.TopicID)

	kcIDs, err := s.repo.KCsByTopic(ctx, req.TopicID)
	if err != nil {
		return nil, newInternal("load topic kcs", err)
	}
	kcStates, err := s.repo.GetLearnerKcStates(ctx, req.UserID, kcIDs)
	if err != nil {
		return nil, newInternal("load learner kc states", err)
	}
	hbs := hemisphereBalanceScore(kcStates)
	level := levelFromKcStates(kcStates)

	behavioral, err := s.repo.GetLearnerBehavioralState(ctx, req.UserID)
	if err != nil {
		return nil, newInternal("load learner behavioral state", err)
	}
	protocol := selector.DetectLearnerProtocol(protocolInputFor(behavioral, kcStates))
	analysisItemBudget := 0
	if protocol.Protocol == selector.ProtocolColdStart {
		analysisItemBudget = protocol.ColdStartItemBudget
	}

	var analysisItemIDs []string
	for _, tc := range analysisCandidates {
		for _, item := range tc.Items {
			analysisItemIDs = append(analysisItemIDs, item.ItemID)
		}
	}
	memRows, err := s.repo.GetFsrsMemoryRows(ctx, req.UserID, analysisItemIDs)
	if err != nil {
		return nil, newInternal("load fsrs memory rows", err)
	}
	memStates := make(map[string]selector.MemoryState, len(memRows))
	for _, row := range memRows {
		memStates[row.MemoryItemID] = memoryStateOf(row, now, 0)
	}

	plan := selector.Plan(selector.PlanInput{
		PrimaryTopicID:         req.TopicID,
		AvailableTopics:        analysisCandidates,
		MemoryStates:           memStates,
		CurrentLevel:           level,
		SessionType:            sessionType,
		HemisphereBalanceScore: hbs,
		AnalysisItemBudget:     analysisItemBudget,
		Now:                    now,
	})
	if len(plan.SelectedItems) == 0 {
		plan.SelectedItems = fallbackAnalysisPlan(analysisCandidates, selector.PlanInput{SessionType: sessionType}, req.TopicID)
	}

	itemQueue := selector.ComposeQueue(encounterIDs, plan, returnIDs, sessionType)
	if len(itemQueue) == 0 {
		return nil, newValidation("no active content available for this topic", nil)
	}

	initial := sessionfsm.SessionState{
		SessionID:        uuid.NewString(),
		UserID:           req.UserID,
		TopicID:          req.TopicID,
		Status:           sessionfsm.StatusReady,
		ItemQueue:        itemQueue,
		SessionType:      sessionType,
		PlannedBalance:   plannedBalance(plan),
	}

	started, rerr := sessionfsm.Reduce(initial, sessionfsm.Event{Kind: sessionfsm.EventStartSession, Timestamp: now}, nil, sessionfsm.Durations{})
	if rerr != nil {
		return nil, newInternal("start session transition", rerr)
	}

	encoded, eerr := json.Marshal(started)
	if eerr != nil {
		return nil, newInternal("encode session state", eerr)
	}

	row := store.SessionRow{
		ID:                started.SessionID,
		UserID:            req.UserID,
		TopicID:           req.TopicID,
		Status:            string(started.Status),
		SessionType:       sessionType,
		CreatedAt:         now,
		AdaptiveDecisions: encoded,
	}
	if err := s.repo.InsertSession(ctx, row); err != nil {
		return nil, newInternal("persist session", err)
	}

	allContent, err := s.loadContent(ctx, itemQueue)
	if err != nil {
		return nil, newInternal("reload queued content", err)
	}
	byID := contentItemViewIndex(allContent)

	s.emit.EmitHemisphereScoreUpdated(analytics.HemisphereScoreUpdated{UserID: req.UserID, TopicID: req.TopicID, Score: hbs, At: now})
	s.emit.EmitAdaptiveSessionPlanned(analytics.AdaptiveSessionPlanned{
		UserID:          req.UserID,
		SessionID:       started.SessionID,
		Level:           plan.Level,
		NextLevel:       plan.NextLevel,
		CountsByReason:  countsByReason(plan.SelectedItems),
		StageBalanceE:   plan.StageBalance.Encounter,
		StageBalanceA:   plan.StageBalance.Analysis,
		StageBalanceR:   plan.StageBalance.Return,
		Rationale:       plan.Rationale,
		At:              now,
	})
	for _, sel := range plan.SelectedItems {
		s.emit.EmitItemSelected(analytics.ItemSelected{UserID: req.UserID, SessionID: started.SessionID, ItemID: sel.ItemID, TopicID: sel.TopicID, Reason: string(sel.Reason), Score: sel.Score, At: now})
	}

	return &StartSessionResult{
		SessionID:       started.SessionID,
		Stage:           stageString(started.CurrentStage),
		SessionType:     sessionType,
		StageBalance:    plan.StageBalance,
		Level:           plan.Level,
		NextLevel:       plan.NextLevel,
		TargetDurationS: targetDurationS(sessionfsm.DefaultDurations),
		Items:           itemViewsFrom(encounterIDs, byID),
	}, nil
}

func decodeState(blob []byte) (sessionfsm.SessionState, error) {
	var s sessionfsm.SessionState
	if err := json.Unmarshal(blob, &s); err != nil {
		return sessionfsm.SessionState{}, fmt.Errorf("unmarshal session state: %w", err)
	}
	return s, nil
}

func contentItemViewIndex(items []store.ContentItem) map[string]ItemView {
	out := make(map[string]ItemView, len(items))
	for _, it := range items {
		out[it.ID] = ItemView{ItemID: it.ID, TopicID: it.TopicID, Stage: it.Stage, ItemType: it.ItemType, Body: it.Body}
	}
	return out
}

// partitionPool splits the content pool into encounter items and return
// items (both scoped to the primary topic) and the per-topic analysis
// candidate pools selector.Plan consumes.
func partitionPool(pool []store.ContentItem, primaryTopicID string) (encounterIDs []string, analysis []selector.TopicCandidates, returnIDs []string) {
	byTopic := make(map[string][]selector.AnalysisItem)
	var topicOrder []string
	for _, item := range pool {
		switch item.Stage {
		case "encounter":
			if item.TopicID == primaryTopicID {
				encounterIDs = append(encounterIDs, item.ID)
			}
		case "return":
			if item.TopicID == primaryTopicID {
				returnIDs = append(returnIDs, item.ID)
			}
		case "analysis":
			if !item.IsReviewable {
				continue
			}
			if _, ok := byTopic[item.TopicID]; !ok {
				topicOrder = append(topicOrder, item.TopicID)
			}
			byTopic[item.TopicID] = append(byTopic[item.TopicID], selector.AnalysisItem{
				ItemID:             item.ID,
				TopicID:            item.TopicID,
				DifficultyLevel:    item.DifficultyLevel,
				InterleaveEligible: item.InterleaveEligible,
				IsReviewable:       item.IsReviewable,
				SimilarityTags:     item.SimilarityTags,
			})
		}
	}
	for _, topicID := range topicOrder {
		analysis = append(analysis, selector.TopicCandidates{TopicID: topicID, Items: byTopic[topicID]})
	}
	return encounterIDs, analysis, returnIDs
}

func hemisphereBalanceScore(states []store.LearnerKcState) float64 {
	if len(states) == 0 {
		return 0
	}
	var sum float64
	for _, s := range states {
		sum += s.RhScore - s.LhAccuracy
	}
	return sum / float64(len(states))
}

// protocolInputFor derives DetectLearnerProtocol's signals from the
// learner's persisted behavioral state and the KC states touched by the
// topic being started: SessionCountTotal is the real session count, and
// recent average score / items-per-session are approximated from the
// topic's KC history since the repository contract has no dedicated
// recent-session rollup.
func protocolInputFor(behavioral *store.LearnerBehavioralState, kcStates []store.LearnerKcState) selector.ProtocolInput {
	input := selector.ProtocolInput{}
	if behavioral != nil {
		input.SessionCount = behavioral.SessionCountTotal
	}
	if len(kcStates) == 0 {
		input.AllAssignedItemsUnseen = true
		return input
	}
	var scoreSum float64
	var attemptSum int
	unseen := true
	for _, st := range kcStates {
		scoreSum += st.LhLastAccuracy
		attemptSum += st.LhAttempts
		if st.LhAttempts > 0 {
			unseen = false
		}
	}
	input.AllAssignedItemsUnseen = unseen
	input.RecentAverageScore = scoreSum / float64(len(kcStates))
	if input.SessionCount > 0 {
		input.RecentItemsPerSession = float64(attemptSum) / float64(input.SessionCount)
	}
	return input
}

func levelFromKcStates(states []store.LearnerKcState) int {
	if len(states) == 0 {
		return 1
	}
	var sum float64
	for _, s := range states {
		sum += float64(s.DifficultyTier)
	}
	level := int(sum/float64(len(states)) + 0.5)
	if level < 1 {
		level = 1
	}
	if level > 4 {
		level = 4
	}
	return level
}

// fallbackAnalysisPlan slices the primary topic's analysis pool to the
// session-type budget when Plan produced nothing.
func fallbackAnalysisPlan(candidates []selector.TopicCandidates, input selector.PlanInput, primaryTopicID string) []selector.SelectedItem {
	var primary []selector.AnalysisItem
	for _, tc := range candidates {
		if tc.TopicID == primaryTopicID {
			primary = tc.Items
			break
		}
	}
	b := 8
	switch input.SessionType {
	case "extended":
		b = 28
	case "standard":
		b = 16
	}
	if len(primary) > b {
		primary = primary[:b]
	}
	out := make([]selector.SelectedItem, 0, len(primary))
	for _, item := range primary {
		out = append(out, selector.SelectedItem{ItemID: item.ItemID, TopicID: item.TopicID, Reason: selector.ReasonFill})
	}
	return out
}

func plannedBalance(plan selector.AdaptiveSessionPlan) sessionfsm.StageBalance {
	var newCount, reviewCount, interleaved int
	for _, sel := range plan.SelectedItems {
		switch sel.Reason {
		case selector.ReasonNewPrimary:
			newCount++
		case selector.ReasonInterleaved:
			interleaved++
		default:
			reviewCount++
		}
	}
	return sessionfsm.StageBalance{New: newCount, Review: reviewCount, Interleaved: interleaved}
}

func countsByReason(items []selector.SelectedItem) map[string]int {
	out := make(map[string]int)
	for _, it := range items {
		out[string(it.Reason)]++
	}
	return out
}

func targetDurationS(d sessionfsm.Durations) int {
	return int((d.TargetEncounterMs + d.TargetAnalysisMs + d.TargetReturnMs) / 1000)
}
