// internal/models/score.go
package models

import (
	"encoding/json"
	"fmt"
)

type OutcomeKind int

const (
	OutcomeNumeric OutcomeKind = iota
	OutcomeReject
	OutcomeManual
)

// DeltaOutcome is either a numeric score adjustment or one of the two
// override markers. Only the numeric variant takes part in score arithmetic.
type DeltaOutcome struct {
	Kind  OutcomeKind
	Value int
}

func Delta(v int) DeltaOutcome { return DeltaOutcome{Kind: OutcomeNumeric, Value: v} }
func Reject() DeltaOutcome     { return DeltaOutcome{Kind: OutcomeReject} }
func Manual() DeltaOutcome     { return DeltaOutcome{Kind: OutcomeManual} }

func (o DeltaOutcome) IsNumeric() bool { return o.Kind == OutcomeNumeric }
func (o DeltaOutcome) IsReject() bool  { return o.Kind == OutcomeReject }
func (o DeltaOutcome) IsManual() bool  { return o.Kind == OutcomeManual }

func (o DeltaOutcome) String() string {
	switch o.Kind {
	case OutcomeReject:
		return "reject"
	case OutcomeManual:
		return "manual"
	default:
		return fmt.Sprintf("%+d", o.Value)
	}
}

func (o DeltaOutcome) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case OutcomeReject:
		return json.Marshal("reject")
	case OutcomeManual:
		return json.Marshal("manual")
	default:
		return json.Marshal(o.Value)
	}
}

func (o *DeltaOutcome) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*o = Delta(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("delta outcome must be a number or marker: %w", err)
	}
	switch s {
	case "reject":
		*o = Reject()
	case "manual":
		*o = Manual()
	default:
		return fmt.Errorf("unknown delta outcome marker: %q", s)
	}
	return nil
}

type DeltaSource string

const (
	DeltaSourcePostcode DeltaSource = "postcode"
	DeltaSourceNACE     DeltaSource = "nace"
	DeltaSourceAge      DeltaSource = "age"
)

type DeltaResult struct {
	Source      DeltaSource  `json:"source"`
	SourceValue string       `json:"sourceValue"`
	Outcome     DeltaOutcome `json:"outcome"`
	Description string       `json:"description"`
}

// ScoreCalculationResult is the output of the score delta calculator.
// AdjustedScore is always BaseScore+TotalNumericDelta clamped to [0,100].
type ScoreCalculationResult struct {
	BaseScore         int           `json:"baseScore"`
	AdjustedScore     int           `json:"adjustedScore"`
	Deltas            []DeltaResult `json:"deltas"`
	TotalNumericDelta int           `json:"totalNumericDelta"`
	DeterminedTier    Tier          `json:"determinedTier"`
	NACERestriction   *DeltaResult  `json:"naceRestriction,omitempty"`
	AgeRestriction    *DeltaResult  `json:"ageRestriction,omitempty"`
	FinalTier         Tier          `json:"finalTier"`
	HasReject         bool          `json:"hasReject"`
	HasManualReview   bool          `json:"hasManualReview"`
}
