package analytics

// NoopEmitter discards every event. It is the engine's default collaborator
// so the orchestrator never has to nil-check its emitter.
type NoopEmitter struct{}

func (NoopEmitter) EmitAdaptiveSessionPlanned(AdaptiveSessionPlanned)     {}
func (NoopEmitter) EmitItemSelected(ItemSelected)                        {}
func (NoopEmitter) EmitDifficultyLevelChanged(DifficultyLevelChanged)    {}
func (NoopEmitter) EmitReviewOutcome(ReviewOutcome)                      {}
func (NoopEmitter) EmitSessionCompleted(SessionCompleted)                {}
func (NoopEmitter) EmitHemisphereScoreUpdated(HemisphereScoreUpdated)    {}

var _ Emitter = NoopEmitter{}
