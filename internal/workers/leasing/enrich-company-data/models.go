// internal/workers/leasing/enrich-company-data/models.go
package enrichcompanydata

import "lease-risk-workers/internal/models"

type Input struct {
	Company models.CompanyInput `json:"company"`
}

type Output struct {
	VATNumber        string                  `json:"vatNumber"`
	CompanyName      string                  `json:"companyName"`
	Enrichment       models.EnrichmentResult `json:"enrichment"`
	SourcesAvailable int                     `json:"sourcesAvailable"`
	EnrichedAt       string                  `json:"enrichedAt"` // ISO 8601
}
