package scoring

import "strings"

// heuristic word-count bands. A response shorter than minWords is treated
// as a non-attempt; length grows the score up to fullWords, after which
// length stops mattering (a long answer isn't automatically a good one,
// but this package has no cheaper signal available without an LLM).
const (
	heuristicMinWords  = 3
	heuristicFullWords = 25
)

// heuristicScore produces a deterministic score from response length alone.
// It never fails: an empty response scores 0, not an error.
func heuristicScore(req Request) Result {
	words := strings.Fields(req.UserResponse)
	n := len(words)

	var score float64
	switch {
	case n == 0:
		score = 0
	case n < heuristicMinWords:
		score = 0.2
	case n >= heuristicFullWords:
		score = 0.75
	default:
		frac := float64(n-heuristicMinWords) / float64(heuristicFullWords-heuristicMinWords)
		score = 0.2 + frac*0.55
	}

	return Result{
		Score:     score,
		Feedback:  heuristicFeedback(n),
		Rationale: "scored by response length; no scoring model was available",
		Method:    "heuristic",
	}
}

func heuristicFeedback(wordCount int) string {
	switch {
	case wordCount == 0:
		return "No response was recorded."
	case wordCount < heuristicMinWords:
		return "Try explaining your reasoning in a full sentence or two."
	case wordCount < heuristicFullWords:
		return "Good attempt. Adding more detail about your reasoning would help confirm understanding."
	default:
		return "Thorough response recorded."
	}
}
