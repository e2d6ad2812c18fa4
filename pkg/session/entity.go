package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// EntityType tags an entity envelope variant.
type EntityType string

const (
	EntityClaim   EntityType = "claim"
	EntityTension EntityType = "tension"
	EntityPass    EntityType = "pass"
	EntityThesis  EntityType = "thesis"
)

// Envelope is the tagged wire form for appending an entity to a record.
// Unknown types and malformed payloads are rejected at decode time so they
// never reach storage.
type Envelope struct {
	Type EntityType      `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EnvelopeError describes a rejected entity envelope.
type EnvelopeError struct {
	Type   EntityType
	Reason string
}

func (e EnvelopeError) Error() string {
	if e.Type == "" {
		return "invalid entity envelope: " + e.Reason
	}
	return fmt.Sprintf("invalid %s entity: %s", e.Type, e.Reason)
}

// ClaimInput is the decoded payload for a claim envelope.
type ClaimInput struct {
	Content string  `json:"content"`
	Source  string  `json:"source,omitempty"`
	Marker  *string `json:"marker,omitempty"`
}

// TensionInput is the decoded payload for a tension envelope.
type TensionInput struct {
	ClaimAID    string `json:"claim_a_id"`
	ClaimBID    string `json:"claim_b_id"`
	Description string `json:"description"`
}

// PassInput is the decoded payload for a pass envelope.
type PassInput struct {
	PassType string `json:"pass_type"`
	Summary  string `json:"summary"`
}

// ThesisInput is the decoded payload for a thesis envelope.
type ThesisInput struct {
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// Decode validates the envelope and returns one of ClaimInput, TensionInput,
// PassInput or ThesisInput.
func (e Envelope) Decode() (any, error) {
	switch e.Type {
	case EntityClaim:
		var in ClaimInput
		if err := strictUnmarshal(e.Data, &in); err != nil {
			return nil, EnvelopeError{Type: e.Type, Reason: err.Error()}
		}
		if in.Content == "" {
			return nil, EnvelopeError{Type: e.Type, Reason: "missing content"}
		}
		return in, nil

	case EntityTension:
		var in TensionInput
		if err := strictUnmarshal(e.Data, &in); err != nil {
			return nil, EnvelopeError{Type: e.Type, Reason: err.Error()}
		}
		if in.ClaimAID == "" || in.ClaimBID == "" {
			return nil, EnvelopeError{Type: e.Type, Reason: "missing claim ids"}
		}
		return in, nil

	case EntityPass:
		var in PassInput
		if err := strictUnmarshal(e.Data, &in); err != nil {
			return nil, EnvelopeError{Type: e.Type, Reason: err.Error()}
		}
		if in.Summary == "" {
			return nil, EnvelopeError{Type: e.Type, Reason: "missing summary"}
		}
		return in, nil

	case EntityThesis:
		var in ThesisInput
		if err := strictUnmarshal(e.Data, &in); err != nil {
			return nil, EnvelopeError{Type: e.Type, Reason: err.Error()}
		}
		if in.Content == "" {
			return nil, EnvelopeError{Type: e.Type, Reason: "missing content"}
		}
		if in.Confidence < 0 || in.Confidence > 1 {
			return nil, EnvelopeError{Type: e.Type, Reason: "confidence out of range"}
		}
		return in, nil

	default:
		return nil, EnvelopeError{Type: e.Type, Reason: "unknown entity type"}
	}
}

// Apply decodes the envelope and appends the entity to the record.
func (e Envelope) Apply(r *Record, now time.Time) error {
	decoded, err := e.Decode()
	if err != nil {
		return err
	}

	switch in := decoded.(type) {
	case ClaimInput:
		r.AppendClaim(in.Content, in.Source, in.Marker, now)
	case TensionInput:
		r.AppendTension(in.ClaimAID, in.ClaimBID, in.Description, now)
	case PassInput:
		passType := in.PassType
		if passType == "" {
			passType = "note"
		}
		r.AppendPass(passType, in.Summary, now)
	case ThesisInput:
		r.SetThesis(in.Content, in.Confidence, now)
	}

	return nil
}

// strictUnmarshal decodes a payload rejecting unknown fields and trailing
// data, so misshapen envelopes never reach storage.
func strictUnmarshal(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("missing data")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after payload")
	}
	return nil
}
