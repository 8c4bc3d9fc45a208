package llm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var (
	scoreSchemaOnce     sync.Once
	scoreSchemaCompiled *jsonschema.Schema
	scoreSchemaErr      error
)

// compiledScoreSchema compiles scoreSchemaDefinition once and caches it;
// every provider validates against the same fixed shape, so there is no
// per-call compilation cost worth paying.
func compiledScoreSchema() (*jsonschema.Schema, error) {
	scoreSchemaOnce.Do(func() {
		// The jsonschema library expects a parsed JSON value (any), not a Go
		// map literal — round-trip through json to get a clean representation.
		defBytes, err := json.Marshal(scoreSchemaDefinition)
		if err != nil {
			scoreSchemaErr = fmt.Errorf("marshal score schema: %w", err)
			return
		}
		var defParsed any
		if err := json.Unmarshal(defBytes, &defParsed); err != nil {
			scoreSchemaErr = fmt.Errorf("parse score schema: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		url := fmt.Sprintf("schema://%s.json", scoreSchemaName)
		if err := c.AddResource(url, defParsed); err != nil {
			scoreSchemaErr = fmt.Errorf("add score schema resource: %w", err)
			return
		}
		scoreSchemaCompiled, scoreSchemaErr = c.Compile(url)
	})
	return scoreSchemaCompiled, scoreSchemaErr
}

// validateScoreJSON checks raw against the fixed score/feedback/rationale
// schema. Returns *ErrInvalidResponse on any failure.
func validateScoreJSON(raw json.RawMessage) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	compiled, err := compiledScoreSchema()
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("compile score schema: %w", err)}
	}

	if err := compiled.Validate(parsed); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("schema validation failed: %w", err)}
	}

	return nil
}
