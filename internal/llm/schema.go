package llm

// scoreSchemaName identifies the fixed response shape below when compiling
// and caching it.
const scoreSchemaName = "response-score"

// scoreSchemaDefinition is the JSON Schema every Provider must shape its
// structured output to: {score, feedback, rationale}. It lives in this
// package, not internal/scoring, because it describes the wire contract
// with the LLM, not the domain Result type scoring.Collaborator returns.
var scoreSchemaDefinition = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"score": map[string]any{
			"type":        "number",
			"minimum":     0.0,
			"maximum":     1.0,
			"description": "How well the response demonstrates understanding of the concept, 0.0-1.0",
		},
		"feedback": map[string]any{
			"type":        "string",
			"description": "One or two sentences of feedback addressed to the learner",
		},
		"rationale": map[string]any{
			"type":        "string",
			"description": "Brief internal explanation of why this score was given",
		},
	},
	"required":             []any{"score", "feedback", "rationale"},
	"additionalProperties": false,
}
