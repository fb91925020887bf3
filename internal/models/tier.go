// internal/models/tier.go
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tier is an ordinal risk classification. Higher values are better.
type Tier int

const (
	TierRejected Tier = iota
	TierManualReview
	TierPoor
	TierFair
	TierGood
	TierExcellent
)

var tierNames = map[Tier]string{
	TierRejected:     "REJECTED",
	TierManualReview: "MANUAL_REVIEW",
	TierPoor:         "POOR",
	TierFair:         "FAIR",
	TierGood:         "GOOD",
	TierExcellent:    "EXCELLENT",
}

// ConcreteTiers lists the tiers that carry financial terms, best first.
var ConcreteTiers = []Tier{TierExcellent, TierGood, TierFair, TierPoor}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// IsConcrete reports whether t is one of EXCELLENT, GOOD, FAIR or POOR.
func (t Tier) IsConcrete() bool {
	return t >= TierPoor && t <= TierExcellent
}

func (t Tier) WorseThan(other Tier) bool {
	return t < other
}

// Worst returns the lowest-ordinal tier of a and b.
func Worst(a, b Tier) Tier {
	if a < b {
		return a
	}
	return b
}

func ParseTier(s string) (Tier, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	for tier, name := range tierNames {
		if name == normalized {
			return tier, nil
		}
	}
	return TierRejected, fmt.Errorf("unknown tier: %q", s)
}

func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tier must be a string: %w", err)
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
