package selector

import (
	"testing"
	"time"
)

func TestPlan_QueueBudget(t *testing.T) {
	input := PlanInput{
		PrimaryTopicID: "topic-a",
		AvailableTopics: []TopicCandidates{
			{TopicID: "topic-a", Items: manyItems("topic-a", 40)},
		},
		MemoryStates: map[string]MemoryState{},
		CurrentLevel: 2,
		SessionType:  "standard",
		Now:          time.Now(),
	}
	plan := Plan(input)
	if len(plan.SelectedItems) > 16 {
		t.Fatalf("selected %d items, budget is 16", len(plan.SelectedItems))
	}
}

func manyItems(topic string, n int) []AnalysisItem {
	items := make([]AnalysisItem, n)
	for i := 0; i < n; i++ {
		items[i] = AnalysisItem{ItemID: idx(topic, i), TopicID: topic, DifficultyLevel: 1}
	}
	return items
}

func idx(topic string, i int) string {
	return topic + "-item-" + string(rune('a'+i%26)) + string(rune('0'+i/26))
}

func TestPlan_InterleavePoolConstraints(t *testing.T) {
	input := PlanInput{
		PrimaryTopicID: "topic-a",
		AvailableTopics: []TopicCandidates{
			{TopicID: "topic-a", Items: []AnalysisItem{
				{ItemID: "a1", TopicID: "topic-a", DifficultyLevel: 1, SimilarityTags: []string{"x", "y"}},
			}},
			{TopicID: "topic-b", Items: []AnalysisItem{
				{ItemID: "b1", TopicID: "topic-b", DifficultyLevel: 1, InterleaveEligible: true, SimilarityTags: []string{"x", "y"}},
				{ItemID: "b2", TopicID: "topic-b", DifficultyLevel: 1, InterleaveEligible: false, SimilarityTags: []string{"x", "y"}},
				{ItemID: "b3", TopicID: "topic-b", DifficultyLevel: 1, InterleaveEligible: true, SimilarityTags: []string{"z"}},
			}},
		},
		MemoryStates: map[string]MemoryState{
			"b1": {State: StateReview, Retrievability: 0.95},
			"b2": {State: StateReview, Retrievability: 0.95},
			"b3": {State: StateReview, Retrievability: 0.95},
		},
		CurrentLevel: 1,
		SessionType:  "standard",
		Now:          time.Now(),
	}
	plan := Plan(input)
	for _, sel := range plan.SelectedItems {
		if sel.Reason != ReasonInterleaved {
			continue
		}
		if sel.TopicID == input.PrimaryTopicID {
			t.Fatalf("interleaved item %s belongs to the primary topic", sel.ItemID)
		}
		// b2 is not interleave-eligible, b3's tags don't overlap (similarity 0).
		if sel.ItemID != "b1" {
			t.Fatalf("unexpected interleaved item %s", sel.ItemID)
		}
	}
}

func TestPlan_LevelPromotionIdempotence(t *testing.T) {
	input := PlanInput{
		PrimaryTopicID: "topic-a",
		AvailableTopics: []TopicCandidates{
			{TopicID: "topic-a", Items: []AnalysisItem{
				{ItemID: "a1", TopicID: "topic-a", DifficultyLevel: 1},
				{ItemID: "a2", TopicID: "topic-a", DifficultyLevel: 1},
			}},
		},
		MemoryStates: map[string]MemoryState{
			"a1": {State: StateReview, Retrievability: 0.9},
			"a2": {State: StateReview, Retrievability: 0.95},
		},
		CurrentLevel: 1,
		SessionType:  "standard",
		Now:          time.Now(),
	}
	first := Plan(input)
	second := Plan(input)
	if first.NextLevel != second.NextLevel {
		t.Fatalf("nextLevel not idempotent: %d vs %d", first.NextLevel, second.NextLevel)
	}
	if first.NextLevel != 2 {
		t.Fatalf("nextLevel = %d, want promotion to 2 (avg R 0.925 >= 0.72)", first.NextLevel)
	}
}

func TestDetectLearnerProtocol_ColdStart(t *testing.T) {
	// S7
	result := DetectLearnerProtocol(ProtocolInput{SessionCount: 2, RecentAverageScore: 0.7, RecentItemsPerSession: 8})
	if result.Protocol != ProtocolColdStart || result.ColdStartItemBudget != 3 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestPlanRemediation_Thresholds(t *testing.T) {
	// S5
	rest := PlanRemediation(4, 0.15)
	if rest.Strategy != StrategyRest || rest.RestDays != 7 {
		t.Fatalf("expected rest/7days, got %+v", rest)
	}
	restructure := PlanRemediation(6, 0.15)
	if restructure.Strategy != StrategyRestructure {
		t.Fatalf("expected restructure, got %+v", restructure)
	}
	retire := PlanRemediation(8, 0.15)
	if retire.Strategy != StrategyRetire {
		t.Fatalf("expected retire, got %+v", retire)
	}
}

func TestIsZombie(t *testing.T) {
	if !IsZombie(3, 0.4) {
		t.Fatal("consecutiveAgain=3 R=0.4 should be a zombie")
	}
	if IsZombie(2, 0.1) {
		t.Fatal("consecutiveAgain=2 should not qualify regardless of R")
	}
	if !IsAtRisk(2, 0.5) {
		t.Fatal("consecutiveAgain=2, R above zombie threshold, should be atRisk")
	}
}

func TestComposeQueue_QuickSessionCapsEncounterAndReturn(t *testing.T) {
	plan := AdaptiveSessionPlan{SelectedItems: []SelectedItem{{ItemID: "a1"}, {ItemID: "a2"}}}
	queue := ComposeQueue([]string{"e1", "e2"}, plan, []string{"r1", "r2"}, "quick")
	if len(queue) != 4 {
		t.Fatalf("quick queue = %v, want 4 items (1 encounter + 2 analysis + 1 return)", queue)
	}
	if queue[0] != "e1" || queue[len(queue)-1] != "r1" {
		t.Fatalf("unexpected queue order: %v", queue)
	}
}

func TestComposeQueue_Deduplicates(t *testing.T) {
	plan := AdaptiveSessionPlan{SelectedItems: []SelectedItem{{ItemID: "shared"}}}
	queue := ComposeQueue([]string{"shared"}, plan, []string{"r1"}, "standard")
	count := 0
	for _, id := range queue {
		if id == "shared" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected 'shared' deduplicated to 1 occurrence, got %d", count)
	}
}
