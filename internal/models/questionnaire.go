// internal/models/questionnaire.go
package models

import "github.com/shopspring/decimal"

// Questionnaire holds the applicant's self-declared answers.
type Questionnaire struct {
	ApplicantFirstName        string  `json:"applicantFirstName"`
	ApplicantLastName         string  `json:"applicantLastName"`
	ApplicantAge              int     `json:"applicantAge"`
	BelgiumResident           bool    `json:"belgiumResident"`
	IsAdministrator           bool    `json:"isAdministrator"`
	LegalAuthorityContact     bool    `json:"legalAuthorityContact"`
	PaymentDifficulties       bool    `json:"paymentDifficulties"`
	BlacklistedCounterparties bool    `json:"blacklistedCounterparties"`
	Vehicle                   Vehicle `json:"vehicle"`
	Driver                    *Driver `json:"driver,omitempty"`
}

type Vehicle struct {
	Type       string          `json:"type"`
	Value      decimal.Decimal `json:"value"`
	MileageKm  int             `json:"mileageKm"`
	AgeMonths  int             `json:"ageMonths"`
	Horsepower *int            `json:"horsepower,omitempty"`
}

// Driver describes the main driver for insurance purposes.
type Driver struct {
	Age                 int `json:"age"`
	LicenseYears        int `json:"licenseYears"`
	AccidentsLast5Years int `json:"accidentsLast5Years"`
}

func (q Questionnaire) ApplicantName() string {
	switch {
	case q.ApplicantFirstName == "":
		return q.ApplicantLastName
	case q.ApplicantLastName == "":
		return q.ApplicantFirstName
	default:
		return q.ApplicantFirstName + " " + q.ApplicantLastName
	}
}
