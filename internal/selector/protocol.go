package selector

// LearnerProtocol names the edge-case handling mode detected for a learner
// at session-plan time.
type LearnerProtocol string

const (
	ProtocolColdStart LearnerProtocol = "cold_start"
	ProtocolStuck     LearnerProtocol = "stuck"
	ProtocolBored     LearnerProtocol = "bored"
	ProtocolNormal    LearnerProtocol = "normal"
)

// ProtocolInput carries the recent-history signals detectLearnerProtocol
// needs.
type ProtocolInput struct {
	SessionCount          int
	AllAssignedItemsUnseen bool
	RecentAverageScore    float64
	RecentItemsPerSession float64
}

// ProtocolResult is the detected protocol plus any parameters it implies.
type ProtocolResult struct {
	Protocol           LearnerProtocol
	Reason             string
	ColdStartItemBudget int
	StuckBackoffDays    int
	InjectChallenge     bool
}

// DetectLearnerProtocol classifies a learner into one of the edge-case
// protocols.
func DetectLearnerProtocol(input ProtocolInput) ProtocolResult {
	if input.SessionCount < 3 || input.AllAssignedItemsUnseen {
		return ProtocolResult{
			Protocol:            ProtocolColdStart,
			Reason:              "fewer than 3 sessions or no practiced items yet",
			ColdStartItemBudget: 3,
		}
	}
	if input.RecentAverageScore < 0.5 && input.RecentItemsPerSession < 5 {
		return ProtocolResult{
			Protocol:         ProtocolStuck,
			Reason:           "low recent accuracy and low throughput",
			StuckBackoffDays: 3,
		}
	}
	if input.RecentAverageScore > 0.85 && input.RecentItemsPerSession > 15 {
		return ProtocolResult{
			Protocol:        ProtocolBored,
			Reason:          "high recent accuracy and high throughput",
			InjectChallenge: true,
		}
	}
	return ProtocolResult{Protocol: ProtocolNormal, Reason: "no edge-case signal detected"}
}
