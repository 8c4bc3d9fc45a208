package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateScoreJSON_Valid(t *testing.T) {
	raw := json.RawMessage(`{"score":0.8,"feedback":"Nice work.","rationale":"covers the mechanism"}`)
	if err := validateScoreJSON(raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateScoreJSON_BoundaryScores(t *testing.T) {
	for _, raw := range []string{
		`{"score":0.0,"feedback":"f","rationale":"r"}`,
		`{"score":1.0,"feedback":"f","rationale":"r"}`,
	} {
		if err := validateScoreJSON(json.RawMessage(raw)); err != nil {
			t.Errorf("validateScoreJSON(%s): unexpected error: %v", raw, err)
		}
	}
}

func TestValidateScoreJSON_MissingRequired(t *testing.T) {
	raw := json.RawMessage(`{"score":0.5,"feedback":"f"}`)
	err := validateScoreJSON(raw)
	if err == nil {
		t.Fatal("expected error for missing rationale")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateScoreJSON_WrongType(t *testing.T) {
	raw := json.RawMessage(`{"score":"high","feedback":"f","rationale":"r"}`)
	err := validateScoreJSON(raw)
	if err == nil {
		t.Fatal("expected error for wrong type")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateScoreJSON_OutOfRange(t *testing.T) {
	raw := json.RawMessage(`{"score":1.5,"feedback":"f","rationale":"r"}`)
	err := validateScoreJSON(raw)
	if err == nil {
		t.Fatal("expected error for out-of-range score")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateScoreJSON_AdditionalPropertiesRejected(t *testing.T) {
	raw := json.RawMessage(`{"score":0.5,"feedback":"f","rationale":"r","extra":"nope"}`)
	err := validateScoreJSON(raw)
	if err == nil {
		t.Fatal("expected error for additional property")
	}
}

func TestValidateScoreJSON_MalformedJSON(t *testing.T) {
	raw := json.RawMessage(`{not json}`)
	err := validateScoreJSON(raw)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateScoreJSON_EmptyResponse(t *testing.T) {
	raw := json.RawMessage(``)
	if err := validateScoreJSON(raw); err == nil {
		t.Fatal("expected error for empty response")
	}
}
