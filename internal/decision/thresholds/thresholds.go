// Package thresholds holds the static per-tier limits every rule consults.
package thresholds

import (
	"lease-risk-workers/internal/models"

	"github.com/shopspring/decimal"
)

// AssetConstraints widen from EXCELLENT to POOR so every asset funnel can
// land on each of the four tiers.
type AssetConstraints struct {
	AllowedVehicleTypes []string        `json:"allowedVehicleTypes"`
	MaxVehicleValue     decimal.Decimal `json:"maxVehicleValue"`
	MaxMileageKm        int             `json:"maxMileageKm"`
	MaxVehicleAgeMonths int             `json:"maxVehicleAgeMonths"`
}

// InsuranceCriteria only exists on the POOR tier.
type InsuranceCriteria struct {
	MinDriverAge    int `json:"minDriverAge"`
	MinLicenseYears int `json:"minLicenseYears"`
	MaxAccidents    int `json:"maxAccidents"`
	MaxHorsepower   int `json:"maxHorsepower"`
}

type TierThresholds struct {
	Tier                         models.Tier           `json:"tier"`
	MinCreditScore               int                   `json:"minCreditScore"`
	MinCompanyAgeMonths          int                   `json:"minCompanyAgeMonths"`
	MaxBankruptcies              int                   `json:"maxBankruptcies"`
	BankruptcyLookbackYears      int                   `json:"bankruptcyLookbackYears"`
	MinAdministratorTenureMonths int                   `json:"minAdministratorTenureMonths"`
	MaxFraudScore                int                   `json:"maxFraudScore"`
	AllowedLegalForms            []string              `json:"allowedLegalForms"`
	RequireFinancialDisclosure   bool                  `json:"requireFinancialDisclosure"`
	Asset                        AssetConstraints      `json:"asset"`
	Terms                        models.FinancialTerms `json:"terms"`
	Insurance                    *InsuranceCriteria    `json:"insurance,omitempty"`
}

// Set is the full threshold table, read-only after construction.
type Set struct {
	ordered []TierThresholds
	byTier  map[models.Tier]TierThresholds
}

// New builds a Set from records given in any order. Records for
// non-concrete tiers are ignored.
func New(records ...TierThresholds) *Set {
	s := &Set{byTier: make(map[models.Tier]TierThresholds, len(records))}
	for _, r := range records {
		if r.Tier.IsConcrete() {
			s.byTier[r.Tier] = r
		}
	}
	for _, tier := range models.ConcreteTiers {
		if r, ok := s.byTier[tier]; ok {
			s.ordered = append(s.ordered, r)
		}
	}
	return s
}

func (s *Set) For(tier models.Tier) (TierThresholds, bool) {
	r, ok := s.byTier[tier]
	return r, ok
}

// Ordered returns the records best tier first.
func (s *Set) Ordered() []TierThresholds {
	out := make([]TierThresholds, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Terms returns the financial terms of tier, or nil for REJECTED and
// MANUAL_REVIEW.
func (s *Set) Terms(tier models.Tier) *models.FinancialTerms {
	r, ok := s.byTier[tier]
	if !ok {
		return nil
	}
	terms := r.Terms
	return &terms
}

// Funnel walks tiers best to worst and returns the first one whose record
// satisfies pass. It reports false when no tier qualifies.
func (s *Set) Funnel(pass func(TierThresholds) bool) (models.Tier, bool) {
	for _, r := range s.ordered {
		if pass(r) {
			return r.Tier, true
		}
	}
	return models.TierRejected, false
}

func (s *Set) Insurance() *InsuranceCriteria {
	r, ok := s.byTier[models.TierPoor]
	if !ok {
		return nil
	}
	return r.Insurance
}

// Default is the production threshold table.
func Default() *Set {
	return New(
		TierThresholds{
			Tier:                         models.TierExcellent,
			MinCreditScore:               75,
			MinCompanyAgeMonths:          60,
			MaxBankruptcies:              0,
			BankruptcyLookbackYears:      10,
			MinAdministratorTenureMonths: 36,
			MaxFraudScore:                20,
			AllowedLegalForms:            []string{"NV", "BV"},
			RequireFinancialDisclosure:   true,
			Asset: AssetConstraints{
				AllowedVehicleTypes: []string{"passenger_car"},
				MaxVehicleValue:     decimal.NewFromInt(60000),
				MaxMileageKm:        50000,
				MaxVehicleAgeMonths: 36,
			},
			Terms: models.FinancialTerms{
				MaxFinancedAmount: decimal.NewFromInt(150000),
				MinDownPaymentPct: decimal.Zero,
				InterestMarkupPct: decimal.Zero,
				MaxTermMonths:     60,
			},
		},
		TierThresholds{
			Tier:                         models.TierGood,
			MinCreditScore:               55,
			MinCompanyAgeMonths:          36,
			MaxBankruptcies:              0,
			BankruptcyLookbackYears:      7,
			MinAdministratorTenureMonths: 24,
			MaxFraudScore:                40,
			AllowedLegalForms:            []string{"NV", "BV", "CV"},
			RequireFinancialDisclosure:   true,
			Asset: AssetConstraints{
				AllowedVehicleTypes: []string{"passenger_car", "light_commercial"},
				MaxVehicleValue:     decimal.NewFromInt(90000),
				MaxMileageKm:        80000,
				MaxVehicleAgeMonths: 48,
			},
			Terms: models.FinancialTerms{
				MaxFinancedAmount: decimal.NewFromInt(100000),
				MinDownPaymentPct: decimal.NewFromInt(10),
				InterestMarkupPct: decimal.RequireFromString("1.0"),
				MaxTermMonths:     60,
			},
		},
		TierThresholds{
			Tier:                         models.TierFair,
			MinCreditScore:               35,
			MinCompanyAgeMonths:          18,
			MaxBankruptcies:              0,
			BankruptcyLookbackYears:      5,
			MinAdministratorTenureMonths: 12,
			MaxFraudScore:                60,
			AllowedLegalForms:            []string{"NV", "BV", "CV", "VOF", "COMMV"},
			RequireFinancialDisclosure:   false,
			Asset: AssetConstraints{
				AllowedVehicleTypes: []string{"passenger_car", "light_commercial", "heavy_commercial"},
				MaxVehicleValue:     decimal.NewFromInt(120000),
				MaxMileageKm:        120000,
				MaxVehicleAgeMonths: 72,
			},
			Terms: models.FinancialTerms{
				MaxFinancedAmount: decimal.NewFromInt(60000),
				MinDownPaymentPct: decimal.NewFromInt(20),
				InterestMarkupPct: decimal.RequireFromString("2.5"),
				MaxTermMonths:     48,
			},
		},
		TierThresholds{
			Tier:                         models.TierPoor,
			MinCreditScore:               20,
			MinCompanyAgeMonths:          6,
			MaxBankruptcies:              1,
			BankruptcyLookbackYears:      3,
			MinAdministratorTenureMonths: 6,
			MaxFraudScore:                80,
			AllowedLegalForms:            []string{"NV", "BV", "CV", "VOF", "COMMV", "SOLE"},
			RequireFinancialDisclosure:   false,
			Asset: AssetConstraints{
				AllowedVehicleTypes: []string{"passenger_car", "light_commercial", "heavy_commercial", "motorcycle"},
				MaxVehicleValue:     decimal.NewFromInt(150000),
				MaxMileageKm:        150000,
				MaxVehicleAgeMonths: 84,
			},
			Terms: models.FinancialTerms{
				MaxFinancedAmount: decimal.NewFromInt(35000),
				MinDownPaymentPct: decimal.NewFromInt(30),
				InterestMarkupPct: decimal.RequireFromString("4.0"),
				MaxTermMonths:     36,
			},
			Insurance: &InsuranceCriteria{
				MinDriverAge:    25,
				MinLicenseYears: 3,
				MaxAccidents:    1,
				MaxHorsepower:   150,
			},
		},
	)
}
