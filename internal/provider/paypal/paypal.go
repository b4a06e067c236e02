package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"settlement-service/internal/config"
	"settlement-service/internal/domain"
	"settlement-service/internal/provider"
)

const GatewayName = "PAYPAL"

// PayPalProvider talks to the PayPal Orders v2 API.
type PayPalProvider struct {
	config     config.PayPalConfig
	baseURL    string
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

var _ provider.Gateway = (*PayPalProvider)(nil)

func NewPayPalProvider(cfg config.PayPalConfig) *PayPalProvider {
	baseURL := "https://api-m.sandbox.paypal.com"
	if cfg.Environment == "production" {
		baseURL = "https://api-m.paypal.com"
	}

	return &PayPalProvider{
		config:     cfg,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *PayPalProvider) Name() string {
	return GatewayName
}

// ============================================
// OAUTH
// ============================================

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (p *PayPalProvider) getAccessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && time.Now().Before(p.tokenExpiry) {
		return p.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(p.config.ClientID, p.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned %d: %s", resp.StatusCode, string(body))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	p.accessToken = token.AccessToken
	// refresh one minute early
	p.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn-60) * time.Second)

	return p.accessToken, nil
}

// ============================================
// ORDERS v2
// ============================================

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Payer  *struct {
		PayerID      string `json:"payer_id"`
		EmailAddress string `json:"email_address"`
		Name         *struct {
			GivenName string `json:"given_name"`
			Surname   string `json:"surname"`
		} `json:"name"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Amount struct {
			Value        string `json:"value"`
			CurrencyCode string `json:"currency_code"`
		} `json:"amount"`
	} `json:"purchase_units"`
}

// CaptureOrder captures an approved order. The raw response body is returned
// verbatim for the ledger's audit blob.
func (p *PayPalProvider) CaptureOrder(ctx context.Context, orderID string) (*provider.CaptureResult, error) {
	body, err := p.makeRequest(ctx, http.MethodPost,
		fmt.Sprintf("%s/v2/checkout/orders/%s/capture", p.baseURL, orderID), nil)
	if err != nil {
		return nil, err
	}

	var order orderResponse
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to parse capture response: %w", err)
	}

	result := &provider.CaptureResult{
		OrderID:     orderID,
		Status:      order.Status,
		RawResponse: body,
	}

	if order.Payer != nil {
		if order.Payer.PayerID != "" {
			result.PayerID = &order.Payer.PayerID
		}
		if order.Payer.EmailAddress != "" {
			result.PayerEmail = &order.Payer.EmailAddress
		}
		if order.Payer.Name != nil {
			name := strings.TrimSpace(order.Payer.Name.GivenName + " " + order.Payer.Name.Surname)
			if name != "" {
				result.PayerName = &name
			}
		}
	}

	return result, nil
}

// GetOrderDetails fetches the captured amount and currency of an order.
func (p *PayPalProvider) GetOrderDetails(ctx context.Context, orderID string) (*provider.OrderDetails, error) {
	body, err := p.makeRequest(ctx, http.MethodGet,
		fmt.Sprintf("%s/v2/checkout/orders/%s", p.baseURL, orderID), nil)
	if err != nil {
		return nil, err
	}

	var order orderResponse
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to parse order response: %w", err)
	}

	if len(order.PurchaseUnits) == 0 {
		return nil, fmt.Errorf("order %s has no purchase units", orderID)
	}

	amount, err := decimal.NewFromString(order.PurchaseUnits[0].Amount.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid order amount %q: %w", order.PurchaseUnits[0].Amount.Value, err)
	}

	return &provider.OrderDetails{
		Amount:   amount,
		Currency: domain.Currency(order.PurchaseUnits[0].Amount.CurrencyCode),
	}, nil
}

func (p *PayPalProvider) makeRequest(ctx context.Context, method, requestURL string, payload interface{}) ([]byte, error) {
	token, err := p.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
