// internal/clients/vies/client.go
package vies

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	commonerrors "lease-risk-workers/internal/common/errors"
	httpclient "lease-risk-workers/internal/common/http"
	"lease-risk-workers/internal/models"
)

const ServiceName = "vies"

// Client performs single VAT registry lookups. Retrying is left to the caller.
type Client struct {
	baseURL string
	http    *httpclient.Client
}

func NewClient(baseURL string, hc *httpclient.Client) *Client {
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: hc}
}

type checkResponse struct {
	IsValid   bool   `json:"isValid"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	UserError string `json:"userError"`
}

type errorResponse struct {
	ErrorWrappers []struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	} `json:"errorWrappers"`
}

// Validate checks one VAT number. A 2xx answer is returned as-is, even when
// its error field carries a code. Transport failures and non-2xx statuses
// come back as *errors.UpstreamError.
func (c *Client) Validate(ctx context.Context, countryCode, number string) (*models.VATRegistryResponse, error) {
	endpoint := fmt.Sprintf("%s/ms/%s/vat/%s", c.baseURL, url.PathEscape(countryCode), url.PathEscape(number))

	resp, err := c.http.Send(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return nil, &commonerrors.UpstreamError{Service: ServiceName, Timeout: httpclient.IsTimeout(err), Err: err}
	}

	if !resp.IsSuccess() {
		up := &commonerrors.UpstreamError{Service: ServiceName, StatusCode: resp.StatusCode}
		var body errorResponse
		if json.Unmarshal(resp.Body, &body) == nil && len(body.ErrorWrappers) > 0 {
			up.Code = body.ErrorWrappers[0].Error
			if msg := body.ErrorWrappers[0].Message; msg != "" {
				up.Err = fmt.Errorf("%s", msg)
			}
		}
		return nil, up
	}

	var out checkResponse
	if err := resp.Decode(&out); err != nil {
		return nil, &commonerrors.UpstreamError{Service: ServiceName, StatusCode: resp.StatusCode, Err: err}
	}

	return &models.VATRegistryResponse{
		Valid:     out.IsValid,
		Name:      cleanField(out.Name),
		Address:   cleanField(out.Address),
		ErrorCode: strings.TrimSpace(out.UserError),
	}, nil
}

// cleanField drops the registry's "---" placeholder for withheld data.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if s == "---" {
		return ""
	}
	return s
}
