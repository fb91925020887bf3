// internal/models/company.go
package models

import "time"

// CompanyInput identifies the leasing applicant's company.
type CompanyInput struct {
	VATNumber  string `json:"vatNumber"`
	Name       string `json:"name,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

// CompanyReport is the normalized credit bureau view of a company.
type CompanyReport struct {
	CompanyID           string       `json:"companyId"`
	Name                string       `json:"name"`
	VATNumber           string       `json:"vatNumber"`
	CreditScore         *int         `json:"creditScore,omitempty"`
	IncorporationDate   *time.Time   `json:"incorporationDate,omitempty"`
	LegalForm           string       `json:"legalForm"`
	Active              bool         `json:"active"`
	Status              string       `json:"status"`
	FraudScore          *int         `json:"fraudScore,omitempty"`
	Directors           []Director   `json:"directors"`
	Bankruptcies        []Bankruptcy `json:"bankruptcies"`
	FinancialDisclosure bool         `json:"financialDisclosure"`
	PostalCode          string       `json:"postalCode,omitempty"`
	ActivityCodes       []string     `json:"activityCodes"`
}

type Director struct {
	Name        string     `json:"name"`
	Position    string     `json:"position,omitempty"`
	AppointedAt *time.Time `json:"appointedAt,omitempty"`
}

type Bankruptcy struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description,omitempty"`
}

// VATValidation is the normalized VAT registry answer.
type VATValidation struct {
	Valid       bool   `json:"valid"`
	Name        string `json:"name,omitempty"`
	Address     string `json:"address,omitempty"`
	CountryCode string `json:"countryCode"`
	VATNumber   string `json:"vatNumber"`
}

// VATRegistryResponse is the raw answer of one registry call. ErrorCode
// carries whatever the registry put in its error field, including the
// registry's own "VALID" marker.
type VATRegistryResponse struct {
	Valid     bool   `json:"valid"`
	Name      string `json:"name,omitempty"`
	Address   string `json:"address,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// ScreeningHit is a single compliance database match as returned by the
// screening service.
type ScreeningHit struct {
	Name          string   `json:"name"`
	MatchDecision string   `json:"matchDecision"`
	Categories    []string `json:"categories"`
}

type ScreeningResult struct {
	SearchedName      string   `json:"searchedName"`
	TotalHits         int      `json:"totalHits"`
	ConfirmedHits     int      `json:"confirmedHits"`
	Sanctioned        bool     `json:"sanctioned"`
	Enforcement       bool     `json:"enforcement"`
	PEP               bool     `json:"pep"`
	AdverseMedia      bool     `json:"adverseMedia"`
	MatchedCategories []string `json:"matchedCategories,omitempty"`
}

// MonthsBetween counts whole calendar months from from to to. A month is
// complete once to reaches from's day of month. Negative spans are zero.
func MonthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
