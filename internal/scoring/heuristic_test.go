package scoring

import "testing"

func TestHeuristicScore_Empty(t *testing.T) {
	r := heuristicScore(Request{UserResponse: ""})
	if r.Score != 0 {
		t.Errorf("score = %f, want 0", r.Score)
	}
	if r.Method != "heuristic" {
		t.Errorf("method = %q, want heuristic", r.Method)
	}
}

func TestHeuristicScore_Short(t *testing.T) {
	r := heuristicScore(Request{UserResponse: "idk"})
	if r.Score <= 0 || r.Score >= 0.5 {
		t.Errorf("score = %f, want a low but nonzero score", r.Score)
	}
}

func TestHeuristicScore_Monotonic(t *testing.T) {
	short := heuristicScore(Request{UserResponse: "a short answer here"})
	long := heuristicScore(Request{UserResponse: "a much longer and more detailed answer that explains the reasoning behind the conclusion step by step"})
	if long.Score <= short.Score {
		t.Errorf("long.Score = %f should exceed short.Score = %f", long.Score, short.Score)
	}
}

func TestHeuristicScore_NeverErrors(t *testing.T) {
	for _, input := range []string{"", " ", "a", "a b c d e f g h i j k l m n o p q r s t u v w x y z"} {
		r := heuristicScore(Request{UserResponse: input})
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("score out of range for input %q: %f", input, r.Score)
		}
	}
}
