package django

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	authmodels "dmt-presale-backend/internal/features/auth/models"
	paymentmodels "dmt-presale-backend/internal/features/payment/models"
	presalemodels "dmt-presale-backend/internal/features/presale/models"
	sessionmodels "dmt-presale-backend/internal/features/session/models"
)

// APIError is a non-2xx response from the Django API. Description carries
// the backend's own error text when the body could be parsed.
type APIError struct {
	StatusCode  int
	Operation   string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("django %s: status %d: %s", e.Operation, e.StatusCode, e.Description)
	}
	return fmt.Sprintf("django %s: status %d", e.Operation, e.StatusCode)
}

// Client wraps every Django platform API endpoint this service consumes.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// OIDCCallback exchanges an authorization code for a platform JWT.
func (c *Client) OIDCCallback(ctx context.Context, req *authmodels.OIDCCallbackRequest) (*authmodels.OIDCCallbackResponse, error) {
	var resp authmodels.OIDCCallbackResponse
	if err := c.do(ctx, http.MethodPost, "/auth/oidc-callback/", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RefreshToken exchanges a still-valid token for a fresh one.
func (c *Client) RefreshToken(ctx context.Context, token string) (*sessionmodels.TokenResponse, error) {
	var resp sessionmodels.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh/", token, map[string]string{"token": token}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, &APIError{StatusCode: http.StatusOK, Operation: "refresh", Description: resp.Error}
	}
	return &resp, nil
}

// GetPaymentIntent fetches a purchase intent by gateway tracking ID. The
// lookup is unauthenticated; the intent record carries its own auth token.
func (c *Client) GetPaymentIntent(ctx context.Context, trackID string) (*paymentmodels.PurchaseIntent, error) {
	var intent paymentmodels.PurchaseIntent
	path := fmt.Sprintf("/presale/payment-intent-by-track/%s/", trackID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// UpdatePaymentIntent PATCHes intent status flags. Callers treating this as
// best-effort are expected to log and swallow the error themselves.
func (c *Client) UpdatePaymentIntent(ctx context.Context, trackID, authToken string, update *paymentmodels.IntentUpdate) error {
	path := fmt.Sprintf("/presale/update-payment-intent/%s/", trackID)
	return c.do(ctx, http.MethodPatch, path, authToken, update, nil)
}

// PurchaseToken executes a purchase against the user's fiat wallet balance.
func (c *Client) PurchaseToken(ctx context.Context, authToken string, req *paymentmodels.PurchaseRequest) (*paymentmodels.PurchaseResult, error) {
	var result paymentmodels.PurchaseResult
	if err := c.do(ctx, http.MethodPost, "/presale/purchase-token/", authToken, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreatePaymentIntent registers a new intent and returns the gateway
// redirect data.
func (c *Client) CreatePaymentIntent(ctx context.Context, authToken string, req *paymentmodels.InitiateRequest) (*paymentmodels.InitiateResponse, error) {
	var resp paymentmodels.InitiateResponse
	if err := c.do(ctx, http.MethodPost, "/presale/create-payment-intent/", authToken, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChargeWallet tops up the user's fiat wallet.
func (c *Client) ChargeWallet(ctx context.Context, authToken string, body json.RawMessage) (json.RawMessage, error) {
	return c.proxy(ctx, http.MethodPost, "/presale/charge-wallet/", authToken, body)
}

// CalculateTax quotes the tax for a prospective purchase.
func (c *Client) CalculateTax(ctx context.Context, authToken string, body json.RawMessage) (json.RawMessage, error) {
	return c.proxy(ctx, http.MethodPost, "/presale/calculate-tax/", authToken, body)
}

// CalculateTokens converts a fiat amount into a token amount quote.
func (c *Client) CalculateTokens(ctx context.Context, authToken string, body json.RawMessage) (json.RawMessage, error) {
	return c.proxy(ctx, http.MethodPost, "/presale/calculate-tokens/", authToken, body)
}

// AssetPrices returns current asset prices.
func (c *Client) AssetPrices(ctx context.Context) (json.RawMessage, error) {
	return c.proxy(ctx, http.MethodGet, "/presale/asset-prices/", "", nil)
}

// UserBalance returns the caller's fiat wallet balance.
func (c *Client) UserBalance(ctx context.Context, authToken string) (json.RawMessage, error) {
	return c.proxy(ctx, http.MethodGet, "/presale/user-balance/", authToken, nil)
}

// ListPresales returns all presales known to the platform.
func (c *Client) ListPresales(ctx context.Context) ([]presalemodels.Presale, error) {
	var presales []presalemodels.Presale
	if err := c.do(ctx, http.MethodGet, "/presale/presales/", "", nil, &presales); err != nil {
		return nil, err
	}
	return presales, nil
}

// GetPresale returns a single presale by ID.
func (c *Client) GetPresale(ctx context.Context, id int64) (*presalemodels.Presale, error) {
	var presale presalemodels.Presale
	path := fmt.Sprintf("/presale/presales/%d/", id)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &presale); err != nil {
		return nil, err
	}
	return &presale, nil
}

// DashboardStatistics returns aggregate platform statistics.
func (c *Client) DashboardStatistics(ctx context.Context) (json.RawMessage, error) {
	return c.proxy(ctx, http.MethodGet, "/presale/dashboard-statistics/", "", nil)
}

// do performs a JSON request and decodes the response into out when non-nil.
// Non-2xx statuses become *APIError with the backend's error text when the
// body carries one.
func (c *Client) do(ctx context.Context, method, path, authToken string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("Django API request failed")
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Operation: method + " " + path}
		var errBody struct {
			Error       string `json:"error"`
			Detail      string `json:"detail"`
			Description string `json:"description"`
		}
		if json.Unmarshal(data, &errBody) == nil {
			switch {
			case errBody.Error != "":
				apiErr.Description = errBody.Error
			case errBody.Detail != "":
				apiErr.Description = errBody.Detail
			case errBody.Description != "":
				apiErr.Description = errBody.Description
			}
		}
		c.logger.Warn().Int("status", resp.StatusCode).Str("method", method).Str("path", path).
			Str("description", apiErr.Description).Msg("Django API returned error status")
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// proxy forwards a raw JSON body and returns the raw JSON response.
func (c *Client) proxy(ctx context.Context, method, path, authToken string, body json.RawMessage) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Operation: method + " " + path, Description: string(data)}
	}

	return json.RawMessage(data), nil
}
