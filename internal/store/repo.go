package store

import (
	"context"
	"time"
)

// User is the subset of the account record the engine consults.
type User struct {
	ID       string
	IsActive bool
}

// Topic is the subset of topic metadata the engine consults.
type Topic struct {
	ID   string
	Name string
}

// ContentItem is the full E5 shape: a reviewable prompt belonging to one
// topic, carrying the fields the selector scores candidates on.
type ContentItem struct {
	ID                 string
	TopicID            string
	Stage              string // "encounter", "analysis", "return"
	ItemType           string
	DifficultyLevel    int
	HemisphereMode     string
	EstimatedDurationS int
	IsActive           bool
	IsReviewable       bool
	InterleaveEligible bool
	SimilarityTags     []string
	Body               string // opaque to the core
}

// SessionRow is the persisted form of a SessionState plus the session
// metadata the store tracks alongside it.
type SessionRow struct {
	ID                string
	UserID            string
	TopicID           string
	Status            string
	SessionType       string
	CreatedAt         time.Time
	CompletedAt       *time.Time
	DurationS         int
	Accuracy          *float64
	AdaptiveDecisions []byte // opaque JSON blob: the logical SessionState shape
}

// AssessmentEvent is the immutable record of one learner response (E4).
type AssessmentEvent struct {
	ID               int64
	Sequence         int64 // global monotonic order, assigned by the store
	UserID           string
	SessionID        string
	ContentItemID    string
	KcID             string // empty if the item has no primary KC
	Stage            string
	ResponseType     string
	Payload          string
	IsCorrect        *bool
	Score            *float64
	ScoringMethod    string // "auto", "pending", "external"
	PresentedAt      time.Time
	RespondedAt      time.Time
	LatencyMs        int64
	ConfidenceRating *int
	SelfRating       *int
	HelpRequested    bool
	DifficultyLevel  int
}

// FsrsMemoryRow is the persisted memory state of one (user, memoryItemId)
// pair (E7). For stageType=return, memoryItemId is the KC id itself.
type FsrsMemoryRow struct {
	UserID         string
	MemoryItemID   string
	KcID           string
	StageType      string
	Stability      float64
	Difficulty     float64
	Retrievability float64
	State          string
	LastReview     *time.Time
	NextReview     time.Time
	ReviewCount    int
	LapseCount     int
}

// FsrsParameters is a per-learner override of the default FSRS weight
// vector and target retention (E8).
type FsrsParameters struct {
	UserID          string
	Weights         [19]float64
	TargetRetention float64
}

// LearnerKcState is the per-(user, KC) mastery row (E6).
type LearnerKcState struct {
	UserID           string
	KcID             string
	LhAccuracy       float64
	LhAttempts       int
	LhLastAccuracy   float64
	RhScore          float64
	RhAttempts       int
	RhLastScore      float64
	MasteryLevel     float64
	IntegratedScore  float64
	DifficultyTier   int
	FirstEncountered time.Time
	LastPracticed    time.Time
	UpdatedAt        time.Time
}

// LearnerTopicProficiency is the Knowledge layer's per-topic rollup.
type LearnerTopicProficiency struct {
	UserID          string
	TopicID         string
	Proficiency     float64
	MasteredCount   int
	InProgressCount int
	NotStartedCount int
	UpdatedAt       time.Time
}

// LearnerBehavioralState is the Behavioral layer of the four-layer profile.
type LearnerBehavioralState struct {
	UserID                        string
	SessionCountTotal             int
	SessionCountLast7Days         int
	SessionCountLast30Days        int
	DurationEwmaS                 float64
	LatencyMeanMs                 float64
	LatencyTrend                  float64
	PreferredTimeOfDay            string
	HelpRequestRate               float64
	StageTimeRatio                map[string]float64
	ConfidenceAccuracyCorrelation float64
	CalibrationGap                float64
	UpdatedAt                     time.Time
}

// LearnerCognitiveProfile is the Cognitive layer of the four-layer profile.
type LearnerCognitiveProfile struct {
	UserID                  string
	HBS                     float64
	HBSHistory              []float64
	ModalityPreferences     map[string]float64
	MetacognitiveAccuracy   float64
	LearningVelocityOverall float64
	LearningVelocityByTier  map[int]float64
	StrongestAssessmentTypes []string
	WeakestAssessmentTypes   []string
	StrongestTopics          []string
	WeakestTopics            []string
	UpdatedAt                time.Time
}

// LearnerMotivationalState is the Motivational layer of the four-layer
// profile.
type LearnerMotivationalState struct {
	UserID                       string
	WeeklyEngagementScore        float64
	EngagementHistory            []float64
	EngagementTrend              string // "increasing", "declining", "stable"
	ChallengeToleranceEwma       float64
	AbandonmentStageDistribution map[string]int
	DropoutRisk                  string // "low", "moderate", "high"
	BurnoutRisk                  string
	UpdatedAt                    time.Time
}

// Repository is the narrow contract the orchestrator (C4) consumes. A
// concrete implementation lives in internal/store/sqlite.
type Repository interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetTopic(ctx context.Context, id string) (*Topic, error)

	ListActiveContentByTopics(ctx context.Context, topicIDs []string) ([]ContentItem, error)
	ListContentByIDs(ctx context.Context, ids []string) ([]ContentItem, error)
	PrimaryKC(ctx context.Context, contentItemID string) (string, error)
	KCsByTopic(ctx context.Context, topicID string) ([]string, error)

	InsertSession(ctx context.Context, row SessionRow) error
	UpdateSession(ctx context.Context, row SessionRow) error
	MostRecentInProgressSession(ctx context.Context, userID, topicID string) (*SessionRow, error)
	// MostRecentInProgressSessionForUser is the cross-topic counterpart used
	// when resuming whatever session a learner has open, regardless of topic.
	MostRecentInProgressSessionForUser(ctx context.Context, userID string) (*SessionRow, error)
	GetSession(ctx context.Context, id string) (*SessionRow, error)

	InsertAssessmentEvent(ctx context.Context, ev AssessmentEvent) error
	ListAssessmentEventsBySession(ctx context.Context, sessionID string) ([]AssessmentEvent, error)

	UpsertFsrsMemoryRow(ctx context.Context, row FsrsMemoryRow) error
	GetFsrsMemoryRows(ctx context.Context, userID string, memoryItemIDs []string) ([]FsrsMemoryRow, error)
	GetReturnMemoryRows(ctx context.Context, userID string, kcIDs []string) ([]FsrsMemoryRow, error)

	GetFsrsParameters(ctx context.Context, userID string) (*FsrsParameters, error)
	UpsertFsrsParameters(ctx context.Context, p FsrsParameters) error

	UpsertLearnerKcState(ctx context.Context, s LearnerKcState) error
	GetLearnerKcStates(ctx context.Context, userID string, kcIDs []string) ([]LearnerKcState, error)

	UpsertLearnerTopicProficiency(ctx context.Context, p LearnerTopicProficiency) error
	GetLearnerTopicProficiency(ctx context.Context, userID, topicID string) (*LearnerTopicProficiency, error)

	UpsertLearnerBehavioralState(ctx context.Context, s LearnerBehavioralState) error
	GetLearnerBehavioralState(ctx context.Context, userID string) (*LearnerBehavioralState, error)

	UpsertLearnerCognitiveProfile(ctx context.Context, p LearnerCognitiveProfile) error
	GetLearnerCognitiveProfile(ctx context.Context, userID string) (*LearnerCognitiveProfile, error)

	UpsertLearnerMotivationalState(ctx context.Context, s LearnerMotivationalState) error
	GetLearnerMotivationalState(ctx context.Context, userID string) (*LearnerMotivationalState, error)

	// WithTx runs fn inside a single transaction; repository calls made
	// through the Repository passed to fn are atomic as a unit. If fn
	// returns an error, or ctx is cancelled, the transaction rolls back.
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
