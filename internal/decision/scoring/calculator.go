// Package scoring turns a raw bureau score into an adjusted score and tier
// using postcode, industry and company age adjustments.
package scoring

import (
	"fmt"
	"strings"

	"lease-risk-workers/internal/decision/thresholds"
	"lease-risk-workers/internal/models"
)

const (
	minScore = 0
	maxScore = 100
)

type Input struct {
	BaseScore       int
	PostalCode      *string
	ActivityCodes   []string
	// CompanyAgeMonths counts whole calendar months since incorporation.
	CompanyAgeMonths *int
}

type Calculator struct {
	tables     Tables
	thresholds *thresholds.Set
}

func NewCalculator(tables Tables, th *thresholds.Set) (*Calculator, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring tables: %w", err)
	}
	return &Calculator{tables: tables, thresholds: th}, nil
}

// Calculate runs the full adjustment pipeline. It never fails: missing
// inputs produce zero deltas with descriptive text.
func (c *Calculator) Calculate(in Input) *models.ScoreCalculationResult {
	postcode := c.PostcodeDelta(in.PostalCode)
	nace := c.NACEDelta(in.ActivityCodes)
	age := c.AgeDelta(in.CompanyAgeMonths)

	total := postcode.Outcome.Value + nace.Outcome.Value + age.Outcome.Value
	res := &models.ScoreCalculationResult{
		BaseScore:         in.BaseScore,
		AdjustedScore:     clamp(in.BaseScore+total, minScore, maxScore),
		Deltas:            []models.DeltaResult{postcode, nace, age},
		TotalNumericDelta: total,
	}

	determined, ok := c.thresholds.Funnel(func(r thresholds.TierThresholds) bool {
		return res.AdjustedScore >= r.MinCreditScore
	})
	if !ok {
		res.DeterminedTier = models.TierRejected
		res.FinalTier = models.TierRejected
		res.HasReject = true
		return res
	}
	res.DeterminedTier = determined

	res.NACERestriction = c.naceRestriction(in.ActivityCodes, determined)
	res.AgeRestriction = c.ageRestriction(in.CompanyAgeMonths, determined)

	switch {
	case isReject(res.NACERestriction) || isReject(res.AgeRestriction):
		res.FinalTier = models.TierRejected
		res.HasReject = true
	case res.NACERestriction != nil || res.AgeRestriction != nil:
		res.FinalTier = models.TierManualReview
		res.HasManualReview = true
	default:
		res.FinalTier = determined
	}
	return res
}

// PostcodeDelta resolves the longest table prefix of the cleaned postal code.
func (c *Calculator) PostcodeDelta(postal *string) models.DeltaResult {
	res := models.DeltaResult{Source: models.DeltaSourcePostcode, Outcome: models.Delta(0)}
	if postal == nil || strings.TrimSpace(*postal) == "" {
		res.Description = "no postal code provided, no regional adjustment"
		return res
	}
	res.SourceValue = *postal

	cleaned := cleanPostalCode(*postal)
	if !isDigits(cleaned) {
		res.Description = fmt.Sprintf("postal code %q is not numeric, no regional adjustment", *postal)
		return res
	}

	var best *PostcodeEntry
	for i := range c.tables.Postcodes {
		e := &c.tables.Postcodes[i]
		if strings.HasPrefix(cleaned, e.Prefix) && (best == nil || len(e.Prefix) > len(best.Prefix)) {
			best = e
		}
	}
	if best == nil {
		res.Description = fmt.Sprintf("postal code %s has no regional adjustment", cleaned)
		return res
	}

	res.Outcome = models.Delta(best.Delta)
	res.Description = fmt.Sprintf("postal code %s matched prefix %s (%s)", cleaned, best.Prefix, best.Region)
	return res
}

// NACEDelta keeps the most negative numeric outcome over every column of
// every entry matched by any of the codes.
func (c *Calculator) NACEDelta(codes []string) models.DeltaResult {
	res := models.DeltaResult{Source: models.DeltaSourceNACE, Outcome: models.Delta(0)}
	if len(codes) == 0 {
		res.Description = "no industry codes provided"
		return res
	}
	res.SourceValue = strings.Join(codes, ",")

	worst, found := 0, false
	var worstCode, worstSector string
	for _, raw := range codes {
		code := normalizeNACE(raw)
		for _, e := range c.tables.NACE {
			if !matchesAny(code, e.Codes) {
				continue
			}
			for _, o := range e.Outcomes {
				if !o.IsNumeric() {
					continue
				}
				if !found || o.Value < worst {
					worst, found = o.Value, true
					worstCode, worstSector = code, e.Sector
				}
			}
		}
	}
	if !found {
		res.Description = "no numeric industry adjustment"
		return res
	}

	res.Outcome = models.Delta(worst)
	res.Description = fmt.Sprintf("industry code %s (%s) worst adjustment %+d", worstCode, worstSector, worst)
	return res
}

// AgeDelta takes the most negative numeric column of the bracket that
// contains the company age.
func (c *Calculator) AgeDelta(ageMonths *int) models.DeltaResult {
	res := models.DeltaResult{Source: models.DeltaSourceAge, Outcome: models.Delta(0)}
	if ageMonths == nil {
		res.Description = "company age unknown, no age adjustment"
		return res
	}
	months := nonNegative(*ageMonths)
	res.SourceValue = fmt.Sprintf("%d months", months)

	bracket := c.bracketFor(months)
	if bracket == nil {
		res.Description = fmt.Sprintf("no age bracket for %d months", months)
		return res
	}

	worst, found := 0, false
	for _, o := range bracket.Outcomes {
		if o.IsNumeric() && (!found || o.Value < worst) {
			worst, found = o.Value, true
		}
	}
	res.Outcome = models.Delta(worst)
	res.Description = fmt.Sprintf("company age %d months in bracket [%d,%d) adjustment %+d",
		months, bracket.MinMonths, bracket.MaxMonths, worst)
	return res
}

// naceRestriction returns the strongest marker found at tier. A reject ends
// the scan; among equal markers the first code in applicant order, then
// table order, is reported.
func (c *Calculator) naceRestriction(codes []string, tier models.Tier) *models.DeltaResult {
	var found *models.DeltaResult
	for _, raw := range codes {
		code := normalizeNACE(raw)
		for _, e := range c.tables.NACE {
			if !matchesAny(code, e.Codes) {
				continue
			}
			o := e.Outcomes[tier]
			if o.IsNumeric() || (found != nil && !o.IsReject()) {
				continue
			}
			found = &models.DeltaResult{
				Source:      models.DeltaSourceNACE,
				SourceValue: code,
				Outcome:     o,
				Description: fmt.Sprintf("industry code %s (%s) requires %s at %s", code, e.Sector, o, tier),
			}
			if o.IsReject() {
				return found
			}
		}
	}
	return found
}

func (c *Calculator) ageRestriction(ageMonths *int, tier models.Tier) *models.DeltaResult {
	if ageMonths == nil {
		return &models.DeltaResult{
			Source:      models.DeltaSourceAge,
			Outcome:     models.Manual(),
			Description: "company age unknown, cannot confirm age restrictions",
		}
	}
	months := nonNegative(*ageMonths)
	bracket := c.bracketFor(months)
	if bracket == nil {
		return nil
	}
	o := bracket.Outcomes[tier]
	if o.IsNumeric() {
		return nil
	}
	return &models.DeltaResult{
		Source:      models.DeltaSourceAge,
		SourceValue: fmt.Sprintf("%d months", months),
		Outcome:     o,
		Description: fmt.Sprintf("company age %d months requires %s at %s", months, o, tier),
	}
}

func (c *Calculator) bracketFor(months int) *AgeBracket {
	for i := range c.tables.Age {
		b := &c.tables.Age[i]
		if months >= b.MinMonths && months < b.MaxMonths {
			return b
		}
	}
	return nil
}

// matchesPattern reports whether code matches pattern exactly, or, for a
// two-character division pattern, whether code is inside that division.
func matchesPattern(code, pattern string) bool {
	if code == pattern {
		return true
	}
	return len(pattern) == 2 && len(code) > 2 && strings.HasPrefix(code, pattern) && code[2] == '.'
}

func matchesAny(code string, patterns []string) bool {
	for _, p := range patterns {
		if matchesPattern(code, p) {
			return true
		}
	}
	return false
}

// normalizeNACE turns bare digit codes such as 6419 or 56101 into the
// dotted form 64.19 and 56.101.
func normalizeNACE(code string) string {
	code = strings.TrimSpace(code)
	if len(code) > 2 && isDigits(code) {
		return code[:2] + "." + code[2:]
	}
	return code
}

func cleanPostalCode(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	for _, prefix := range []string{"BE-", "B-", "BE"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
			break
		}
	}
	return strings.ReplaceAll(s, " ", "")
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isReject(r *models.DeltaResult) bool {
	return r != nil && r.Outcome.IsReject()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
