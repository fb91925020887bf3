// internal/decision/enrichment/screening.go
package enrichment

import (
	"strings"

	"lease-risk-workers/internal/models"
)

// SummarizeScreening reduces raw hits to the flags rules consume. Only
// confirmed matches on the exact searched name count.
func SummarizeScreening(searched string, hits []models.ScreeningHit) *models.ScreeningResult {
	out := &models.ScreeningResult{
		SearchedName: searched,
		TotalHits:    len(hits),
	}

	seen := map[string]bool{}
	for _, hit := range hits {
		if !isConfirmedMatch(hit.MatchDecision) {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(hit.Name), strings.TrimSpace(searched)) {
			continue
		}
		out.ConfirmedHits++

		for _, raw := range hit.Categories {
			cat := strings.ToLower(strings.TrimSpace(raw))
			switch {
			case strings.HasPrefix(cat, "sanction"):
				out.Sanctioned = true
			case cat == "warning", cat == "fitness-probity", strings.Contains(cat, "enforcement"):
				out.Enforcement = true
			case strings.HasPrefix(cat, "pep"):
				out.PEP = true
			case strings.HasPrefix(cat, "adverse-media"):
				out.AdverseMedia = true
			default:
				continue
			}
			if !seen[cat] {
				seen[cat] = true
				out.MatchedCategories = append(out.MatchedCategories, cat)
			}
		}
	}
	return out
}

func isConfirmedMatch(decision string) bool {
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case "true_positive", "true_match":
		return true
	}
	return false
}
