package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Step names one state of the dialog flow.
type Step string

const (
	StepClientAndName  Step = "client_and_name"
	StepChoice         Step = "choice"
	StepVariationCount Step = "variation_count"
	StepCreateSnippets Step = "create_snippets"
	StepUpdateSnippets Step = "update_snippets"
)

// stateVersion is bumped whenever the serialized State shape changes.
const stateVersion = 1

// ErrStateDecode marks a state token that could not be decoded or carries an
// unknown version. Distinguishable from validation and remote failures so a
// corrupted dialog never continues with zero values.
var ErrStateDecode = errors.New("wizard state decode failed")

// State is the step-state carrier threaded through dialog transitions. It is
// serialized into the modal's private metadata and must survive the round
// trip losslessly.
type State struct {
	Version    int    `json:"v"`
	Step       Step   `json:"step"`
	ClientID   string `json:"client_id"`
	TestName   string `json:"test_name"`
	Exists     bool   `json:"exists"`
	Variations int    `json:"variations,omitempty"`
}

// Encode serializes the state for transport in private metadata.
func (s State) Encode() string {
	s.Version = stateVersion
	b, err := json.Marshal(s)
	if err != nil {
		// State is a plain value type; marshaling cannot fail in practice.
		return ""
	}
	return string(b)
}

// DecodeState parses a state token produced by Encode.
func DecodeState(raw string) (State, error) {
	if raw == "" {
		return State{}, fmt.Errorf("%w: empty metadata", ErrStateDecode)
	}

	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrStateDecode, err)
	}
	if s.Version != stateVersion {
		return State{}, fmt.Errorf("%w: unsupported version %d", ErrStateDecode, s.Version)
	}

	return s, nil
}
