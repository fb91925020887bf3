// internal/clients/creditsafe/client.go
package creditsafe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lease-risk-workers/internal/common/auth"
	commonerrors "lease-risk-workers/internal/common/errors"
	httpclient "lease-risk-workers/internal/common/http"
	"lease-risk-workers/internal/models"
)

const ServiceName = "creditsafe"

type Config struct {
	BaseURL  string
	Username string
	Password string
	Country  string
	TokenTTL time.Duration
}

// Client fetches company credit reports. Each instance owns its token cache.
type Client struct {
	cfg    Config
	http   *httpclient.Client
	tokens *auth.TokenSource
}

func NewClient(cfg Config, hc *httpclient.Client) *Client {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.Country == "" {
		cfg.Country = "BE"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 50 * time.Minute
	}
	c := &Client{cfg: cfg, http: hc}
	c.tokens = auth.NewTokenSource(c.authenticate, cfg.TokenTTL)
	return c
}

// Tokens exposes the token cache, mainly so tests can pin its clock.
func (c *Client) Tokens() *auth.TokenSource {
	return c.tokens
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	resp, err := c.http.Send(ctx, http.MethodPost, c.cfg.BaseURL+"/authenticate", nil,
		authRequest{Username: c.cfg.Username, Password: c.cfg.Password})
	if err != nil {
		return "", c.transportError(err)
	}
	if !resp.IsSuccess() {
		return "", &commonerrors.UpstreamError{Service: ServiceName, StatusCode: resp.StatusCode, Err: fmt.Errorf("authentication rejected")}
	}
	var out authResponse
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// FetchCompany looks the company up by VAT number and returns its full report.
func (c *Client) FetchCompany(ctx context.Context, vatNumber string) (*models.CompanyReport, error) {
	var search searchResponse
	q := url.Values{}
	q.Set("countries", c.cfg.Country)
	q.Set("vatNo", vatNumber)
	if err := c.get(ctx, "/companies?"+q.Encode(), &search); err != nil {
		return nil, err
	}
	if len(search.Companies) == 0 {
		return nil, &commonerrors.UpstreamError{
			Service:    ServiceName,
			StatusCode: http.StatusNotFound,
			Code:       "COMPANY_NOT_FOUND",
			Err:        fmt.Errorf("no company registered for %s", vatNumber),
		}
	}

	var report reportResponse
	if err := c.get(ctx, "/companies/"+url.PathEscape(search.Companies[0].ID), &report); err != nil {
		return nil, err
	}
	return report.Report.toModel(search.Companies[0].ID, vatNumber), nil
}

// get performs an authenticated GET. A 401 drops the cached token and the
// request is repeated once with a fresh one.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	for attempt := 0; ; attempt++ {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}

		resp, err := c.http.Send(ctx, http.MethodGet, c.cfg.BaseURL+path,
			map[string]string{"Authorization": "Bearer " + token}, nil)
		if err != nil {
			return c.transportError(err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			c.tokens.Invalidate()
			if attempt == 0 {
				continue
			}
		}
		if !resp.IsSuccess() {
			return &commonerrors.UpstreamError{Service: ServiceName, StatusCode: resp.StatusCode, Err: fmt.Errorf("GET %s", strings.SplitN(path, "?", 2)[0])}
		}
		return resp.Decode(out)
	}
}

func (c *Client) transportError(err error) error {
	var up *commonerrors.UpstreamError
	if errors.As(err, &up) {
		return err
	}
	return &commonerrors.UpstreamError{Service: ServiceName, Timeout: httpclient.IsTimeout(err), Err: err}
}

// ============================================================================
// Wire format
// ============================================================================

type searchResponse struct {
	Companies []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"companies"`
}

type reportResponse struct {
	Report report `json:"report"`
}

type report struct {
	CompanySummary struct {
		BusinessName  string `json:"businessName"`
		CompanyStatus struct {
			Status string `json:"status"`
		} `json:"companyStatus"`
		CreditRating struct {
			ProviderValue struct {
				Value string `json:"value"`
			} `json:"providerValue"`
		} `json:"creditRating"`
	} `json:"companySummary"`

	CompanyIdentification struct {
		BasicInformation struct {
			VATRegistrationNumber   string `json:"vatRegistrationNumber"`
			CompanyRegistrationDate string `json:"companyRegistrationDate"`
			LegalForm               struct {
				Description string `json:"description"`
			} `json:"legalForm"`
			ContactAddress struct {
				PostalCode string `json:"postalCode"`
			} `json:"contactAddress"`
		} `json:"basicInformation"`
		ActivityClassifications []struct {
			Activities []struct {
				Code string `json:"code"`
			} `json:"activities"`
		} `json:"activityClassifications"`
	} `json:"companyIdentification"`

	Directors struct {
		CurrentDirectors []struct {
			Name      string `json:"name"`
			Positions []struct {
				PositionName  string `json:"positionName"`
				DateAppointed string `json:"dateAppointed"`
			} `json:"positions"`
		} `json:"currentDirectors"`
	} `json:"directors"`

	NegativeInformation struct {
		Bankruptcies []struct {
			Date        string `json:"date"`
			Description string `json:"description"`
		} `json:"bankruptcies"`
	} `json:"negativeInformation"`

	AdditionalInformation struct {
		FraudScore *int `json:"fraudScore"`
	} `json:"additionalInformation"`

	FinancialStatements []struct {
		YearEndDate string `json:"yearEndDate"`
	} `json:"financialStatements"`
}

func (r report) toModel(companyID, vatNumber string) *models.CompanyReport {
	basic := r.CompanyIdentification.BasicInformation
	status := r.CompanySummary.CompanyStatus.Status

	out := &models.CompanyReport{
		CompanyID:           companyID,
		Name:                r.CompanySummary.BusinessName,
		VATNumber:           vatNumber,
		LegalForm:           basic.LegalForm.Description,
		Status:              status,
		Active:              strings.EqualFold(status, "active"),
		FraudScore:          r.AdditionalInformation.FraudScore,
		FinancialDisclosure: len(r.FinancialStatements) > 0,
		PostalCode:          basic.ContactAddress.PostalCode,
	}
	if basic.VATRegistrationNumber != "" {
		out.VATNumber = basic.VATRegistrationNumber
	}

	if v, err := strconv.Atoi(strings.TrimSpace(r.CompanySummary.CreditRating.ProviderValue.Value)); err == nil {
		out.CreditScore = &v
	}
	if t, ok := parseDate(basic.CompanyRegistrationDate); ok {
		out.IncorporationDate = &t
	}

	for _, class := range r.CompanyIdentification.ActivityClassifications {
		for _, a := range class.Activities {
			if a.Code != "" {
				out.ActivityCodes = append(out.ActivityCodes, a.Code)
			}
		}
	}

	for _, d := range r.Directors.CurrentDirectors {
		dir := models.Director{Name: d.Name}
		if len(d.Positions) > 0 {
			dir.Position = d.Positions[0].PositionName
			if t, ok := parseDate(d.Positions[0].DateAppointed); ok {
				dir.AppointedAt = &t
			}
		}
		out.Directors = append(out.Directors, dir)
	}

	for _, b := range r.NegativeInformation.Bankruptcies {
		if t, ok := parseDate(b.Date); ok {
			out.Bankruptcies = append(out.Bankruptcies, models.Bankruptcy{Date: t, Description: b.Description})
		}
	}
	return out
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
