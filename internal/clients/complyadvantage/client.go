// internal/clients/complyadvantage/client.go
package complyadvantage

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	commonerrors "lease-risk-workers/internal/common/errors"
	httpclient "lease-risk-workers/internal/common/http"
	"lease-risk-workers/internal/models"
)

const ServiceName = "complyadvantage"

var searchTypes = []string{"sanction", "warning", "fitness-probity", "pep", "adverse-media"}

type Config struct {
	BaseURL   string
	APIKey    string
	Fuzziness float64
}

type Client struct {
	cfg  Config
	http *httpclient.Client
}

func NewClient(cfg Config, hc *httpclient.Client) *Client {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: hc}
}

type searchRequest struct {
	SearchTerm string        `json:"search_term"`
	Fuzziness  float64       `json:"fuzziness"`
	Filters    searchFilters `json:"filters"`
	ShareURL   int           `json:"share_url"`
}

type searchFilters struct {
	Types       []string `json:"types"`
	CountryCode []string `json:"country_codes,omitempty"`
}

type searchResponse struct {
	Content struct {
		Data struct {
			Hits []struct {
				MatchStatus string `json:"match_status"`
				Doc         struct {
					Name  string   `json:"name"`
					Types []string `json:"types"`
				} `json:"doc"`
			} `json:"hits"`
		} `json:"data"`
	} `json:"content"`
}

// Search returns every raw hit for name. Filtering to confirmed matches is
// the caller's job.
func (c *Client) Search(ctx context.Context, name, country string) ([]models.ScreeningHit, error) {
	req := searchRequest{
		SearchTerm: name,
		Fuzziness:  c.cfg.Fuzziness,
		Filters:    searchFilters{Types: searchTypes},
	}
	if country != "" {
		req.Filters.CountryCode = []string{country}
	}

	resp, err := c.http.Send(ctx, http.MethodPost, c.cfg.BaseURL+"/searches",
		map[string]string{"Authorization": "Token " + c.cfg.APIKey}, req)
	if err != nil {
		return nil, &commonerrors.UpstreamError{Service: ServiceName, Timeout: httpclient.IsTimeout(err), Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &commonerrors.UpstreamError{Service: ServiceName, StatusCode: resp.StatusCode, Err: fmt.Errorf("search rejected")}
	}

	var out searchResponse
	if err := resp.Decode(&out); err != nil {
		return nil, &commonerrors.UpstreamError{Service: ServiceName, StatusCode: resp.StatusCode, Err: err}
	}

	hits := make([]models.ScreeningHit, 0, len(out.Content.Data.Hits))
	for _, h := range out.Content.Data.Hits {
		hits = append(hits, models.ScreeningHit{
			Name:          h.Doc.Name,
			MatchDecision: h.MatchStatus,
			Categories:    h.Doc.Types,
		})
	}
	return hits, nil
}
