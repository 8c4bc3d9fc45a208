package orchestrator

import (
	"context"
	"sync"

	"github.com/hemisphere-labs/engine/internal/store"
)

// fakeRepo is an in-memory store.Repository test double. It is not
// goroutine-per-call isolated the way the sqlite implementation is, but it
// is safe for the sequential access the orchestrator's own userLocks
// already guarantee in tests.
type fakeRepo struct {
	mu sync.Mutex

	users   map[string]store.User
	topics  map[string]store.Topic
	content map[string]store.ContentItem
	kcByTopic map[string][]string
	primaryKC map[string]string

	sessions map[string]store.SessionRow
	events   []store.AssessmentEvent

	fsrsRows   map[string]store.FsrsMemoryRow // key: userID|memoryItemID|stageType
	fsrsParams map[string]store.FsrsParameters

	kcStates     map[string]store.LearnerKcState // key: userID|kcID
	proficiency  map[string]store.LearnerTopicProficiency
	behavioral   map[string]store.LearnerBehavioralState
	cognitive    map[string]store.LearnerCognitiveProfile
	motivational map[string]store.LearnerMotivationalState
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:        make(map[string]store.User),
		topics:       make(map[string]store.Topic),
		content:      make(map[string]store.ContentItem),
		kcByTopic:    make(map[string][]string),
		primaryKC:    make(map[string]string),
		sessions:     make(map[string]store.SessionRow),
		fsrsRows:     make(map[string]store.FsrsMemoryRow),
		fsrsParams:   make(map[string]store.FsrsParameters),
		kcStates:     make(map[string]store.LearnerKcState),
		proficiency:  make(map[string]store.LearnerTopicProficiency),
		behavioral:   make(map[string]store.LearnerBehavioralState),
		cognitive:    make(map[string]store.LearnerCognitiveProfile),
		motivational: make(map[string]store.LearnerMotivationalState),
	}
}

func fsrsKey(userID, memoryItemID, stageType string) string {
	return userID + "|" + memoryItemID + "|" + stageType
}

func kcKey(userID, kcID string) string { return userID + "|" + kcID }

func (r *fakeRepo) GetUser(_ context.Context, id string) (*store.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *fakeRepo) GetTopic(_ context.Context, id string) (*store.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.topics[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (r *fakeRepo) ListActiveContentByTopics(_ context.Context, topicIDs []string) ([]store.ContentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]bool, len(topicIDs))
	for _, id := range topicIDs {
		want[id] = true
	}
	var out []store.ContentItem
	for _, item := range r.content {
		if item.IsActive && want[item.TopicID] {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListContentByIDs(_ context.Context, ids []string) ([]store.ContentItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]store.ContentItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.content[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeRepo) PrimaryKC(_ context.Context, contentItemID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.primaryKC[contentItemID], nil
}

func (r *fakeRepo) KCsByTopic(_ context.Context, topicID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.kcByTopic[topicID]...), nil
}

func (r *fakeRepo) InsertSession(_ context.Context, row store.SessionRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[row.ID] = row
	return nil
}

func (r *fakeRepo) UpdateSession(_ context.Context, row store.SessionRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[row.ID] = row
	return nil
}

func (r *fakeRepo) MostRecentInProgressSession(_ context.Context, userID, topicID string) (*store.SessionRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.sessions {
		if row.UserID == userID && row.TopicID == topicID && row.Status == "in_progress" {
			cp := row
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) MostRecentInProgressSessionForUser(_ context.Context, userID string) (*store.SessionRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.sessions {
		if row.UserID == userID && row.Status == "in_progress" {
			cp := row
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) GetSession(_ context.Context, id string) (*store.SessionRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.sessions[id]; ok {
		cp := row
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeRepo) InsertAssessmentEvent(_ context.Context, ev store.AssessmentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.Sequence = int64(len(r.events) + 1)
	r.events = append(r.events, ev)
	return nil
}

func (r *fakeRepo) ListAssessmentEventsBySession(_ context.Context, sessionID string) ([]store.AssessmentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []store.AssessmentEvent
	for _, ev := range r.events {
		if ev.SessionID == sessionID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpsertFsrsMemoryRow(_ context.Context, row store.FsrsMemoryRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fsrsRows[fsrsKey(row.UserID, row.MemoryItemID, row.StageType)] = row
	return nil
}

func (r *fakeRepo) GetFsrsMemoryRows(_ context.Context, userID string, memoryItemIDs []string) ([]store.FsrsMemoryRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]bool, len(memoryItemIDs))
	for _, id := range memoryItemIDs {
		want[id] = true
	}
	var out []store.FsrsMemoryRow
	for _, row := range r.fsrsRows {
		if row.UserID == userID && want[row.MemoryItemID] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetReturnMemoryRows(_ context.Context, userID string, kcIDs []string) ([]store.FsrsMemoryRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]bool, len(kcIDs))
	for _, id := range kcIDs {
		want[id] = true
	}
	var out []store.FsrsMemoryRow
	for _, row := range r.fsrsRows {
		if row.UserID == userID && row.StageType == "return" && want[row.MemoryItemID] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetFsrsParameters(_ context.Context, userID string) (*store.FsrsParameters, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.fsrsParams[userID]; ok {
		cp := p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeRepo) UpsertFsrsParameters(_ context.Context, p store.FsrsParameters) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fsrsParams[p.UserID] = p
	return nil
}

func (r *fakeRepo) UpsertLearnerKcState(_ context.Context, s store.LearnerKcState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kcStates[kcKey(s.UserID, s.KcID)] = s
	return nil
}

func (r *fakeRepo) GetLearnerKcStates(_ context.Context, userID string, kcIDs []string) ([]store.LearnerKcState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]store.LearnerKcState, 0, len(kcIDs))
	for _, id := range kcIDs {
		if st, ok := r.kcStates[kcKey(userID, id)]; ok {
			out = append(out, st)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpsertLearnerTopicProficiency(_ context.Context, p store.LearnerTopicProficiency) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.proficiency[kcKey(p.UserID, p.TopicID)] = p
	return nil
}

func (r *fakeRepo) GetLearnerTopicProficiency(_ context.Context, userID, topicID string) (*store.LearnerTopicProficiency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.proficiency[kcKey(userID, topicID)]; ok {
		cp := p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeRepo) UpsertLearnerBehavioralState(_ context.Context, s store.LearnerBehavioralState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.behavioral[s.UserID] = s
	return nil
}

func (r *fakeRepo) GetLearnerBehavioralState(_ context.Context, userID string) (*store.LearnerBehavioralState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.behavioral[userID]; ok {
		cp := s
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeRepo) UpsertLearnerCognitiveProfile(_ context.Context, p store.LearnerCognitiveProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cognitive[p.UserID] = p
	return nil
}

func (r *fakeRepo) GetLearnerCognitiveProfile(_ context.Context, userID string) (*store.LearnerCognitiveProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.cognitive[userID]; ok {
		cp := p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeRepo) UpsertLearnerMotivationalState(_ context.Context, s store.LearnerMotivationalState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.motivational[s.UserID] = s
	return nil
}

func (r *fakeRepo) GetLearnerMotivationalState(_ context.Context, userID string) (*store.LearnerMotivationalState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.motivational[userID]; ok {
		cp := s
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeRepo) WithTx(ctx context.Context, fn func(ctx context.Context, repo store.Repository) error) error {
	return fn(ctx, r)
}

var _ store.Repository = (*fakeRepo)(nil)
