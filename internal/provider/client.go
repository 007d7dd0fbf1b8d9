// Package provider is the client for the engagement provider API
// (catalog, order placement, status, balance, refill, cancel).
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/korg1OOO/baratosociais/internal/config"
	"github.com/korg1OOO/baratosociais/internal/model"
	"github.com/korg1OOO/baratosociais/internal/outbound"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

const maxResponseBytes = 8 << 20

// Client defines the provider operations used by the storefront.
type Client interface {
	Services(ctx context.Context) ([]model.ProviderService, error)
	AddOrder(ctx context.Context, serviceID int64, link string, units int64) (int64, error)
	Status(ctx context.Context, orderID int64) (model.ProviderOrderStatus, error)
	Balance(ctx context.Context) (model.Balance, error)
	Refill(ctx context.Context, orderID int64) (model.RefillResult, error)
	Cancel(ctx context.Context, orderIDs []int64) ([]model.CancelResult, error)
}

type httpClient struct {
	url     string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  zerolog.Logger
}

// NewClient creates a provider client. Every call runs under cfg.Timeout and
// behind a circuit breaker.
func NewClient(cfg config.ProviderConfig, logger zerolog.Logger) Client {
	logger = logger.With().Str("component", "provider-client").Logger()
	return &httpClient{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		http:    outbound.NewHTTPClient(cfg.Timeout),
		breaker: outbound.NewBreaker[[]byte]("provider", logger),
		logger:  logger,
	}
}

// Services fetches the raw catalog. Records without a numeric service ID are skipped.
func (c *httpClient) Services(ctx context.Context) ([]model.ProviderService, error) {
	body, err := c.call(ctx, "services", nil)
	if err != nil {
		return nil, err
	}

	var records []serviceRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, c.fail("services", fmt.Errorf("failed to decode services: %w", err))
	}

	services := make([]model.ProviderService, 0, len(records))
	for _, r := range records {
		if s, ok := r.toModel(); ok {
			services = append(services, s)
		}
	}

	c.logger.Debug().Int("count", len(services)).Msg("provider services fetched")
	return services, nil
}

// AddOrder places one order and returns the provider order ID.
func (c *httpClient) AddOrder(ctx context.Context, serviceID int64, link string, units int64) (int64, error) {
	body, err := c.call(ctx, "add", url.Values{
		"service":  {strconv.FormatInt(serviceID, 10)},
		"link":     {link},
		"quantity": {strconv.FormatInt(units, 10)},
	})
	if err != nil {
		return 0, err
	}

	var resp addResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, c.fail("add", fmt.Errorf("failed to decode order response: %w", err))
	}
	id, ok := resp.Order.int64()
	if !ok {
		return 0, c.fail("add", fmt.Errorf("response has no order id"))
	}
	return id, nil
}

// Status returns the provider's view of an order.
func (c *httpClient) Status(ctx context.Context, orderID int64) (model.ProviderOrderStatus, error) {
	body, err := c.call(ctx, "status", url.Values{"order": {strconv.FormatInt(orderID, 10)}})
	if err != nil {
		return model.ProviderOrderStatus{}, err
	}

	var resp statusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.ProviderOrderStatus{}, c.fail("status", fmt.Errorf("failed to decode status: %w", err))
	}

	return model.ProviderOrderStatus{
		ExternalOrderID: orderID,
		Charge:          string(resp.Charge),
		StartCount:      string(resp.StartCount),
		Status:          resp.Status,
		Remains:         string(resp.Remains),
		Currency:        resp.Currency,
	}, nil
}

// Balance returns the account balance.
func (c *httpClient) Balance(ctx context.Context) (model.Balance, error) {
	body, err := c.call(ctx, "balance", nil)
	if err != nil {
		return model.Balance{}, err
	}

	var resp balanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Balance{}, c.fail("balance", fmt.Errorf("failed to decode balance: %w", err))
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(string(resp.Balance)))
	if err != nil {
		return model.Balance{}, c.fail("balance", fmt.Errorf("balance %q is not numeric", resp.Balance))
	}

	return model.Balance{Balance: amount, Currency: resp.Currency}, nil
}

// Refill requests a refill of a placed order.
func (c *httpClient) Refill(ctx context.Context, orderID int64) (model.RefillResult, error) {
	body, err := c.call(ctx, "refill", url.Values{"order": {strconv.FormatInt(orderID, 10)}})
	if err != nil {
		return model.RefillResult{}, err
	}

	var resp refillResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.RefillResult{}, c.fail("refill", fmt.Errorf("failed to decode refill: %w", err))
	}
	return model.RefillResult{ExternalOrderID: orderID, RefillID: string(resp.Refill)}, nil
}

// Cancel requests cancellation of several orders. Per-order rejections are
// reported in the results, not as an error.
func (c *httpClient) Cancel(ctx context.Context, orderIDs []int64) ([]model.CancelResult, error) {
	ids := make([]string, len(orderIDs))
	for i, id := range orderIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}

	body, err := c.call(ctx, "cancel", url.Values{"orders": {strings.Join(ids, ",")}})
	if err != nil {
		return nil, err
	}

	var entries []cancelEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, c.fail("cancel", fmt.Errorf("failed to decode cancel: %w", err))
	}

	results := make([]model.CancelResult, 0, len(entries))
	for _, e := range entries {
		id, _ := e.Order.int64()
		result := model.CancelResult{ExternalOrderID: id}

		var rejected errorEnvelope
		if json.Unmarshal(e.Cancel, &rejected) == nil && rejected.Error != "" {
			result.Error = string(rejected.Error)
		} else {
			var cancelID flexString
			if err := json.Unmarshal(e.Cancel, &cancelID); err == nil {
				result.CancelID = string(cancelID)
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// call posts a form request for action and returns the response body.
// Transport failures and non-2xx responses count against the breaker; an
// error envelope in a 2xx body does not.
func (c *httpClient) call(ctx context.Context, action string, params url.Values) ([]byte, error) {
	form := url.Values{}
	for k, v := range params {
		form[k] = v
	}
	form.Set("key", c.apiKey)
	form.Set("action", action)

	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &outbound.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		}
		return data, nil
	})
	if err != nil {
		return nil, c.fail(action, err)
	}

	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		var env errorEnvelope
		if json.Unmarshal(trimmed, &env) == nil && env.Error != "" {
			return nil, c.fail(action, fmt.Errorf("provider rejected request: %s", env.Error))
		}
	}

	return body, nil
}

func (c *httpClient) fail(action string, err error) error {
	c.logger.Error().Err(err).Str("action", action).Msg("provider request failed")
	return model.ErrProviderError.WithMessage("Provider %s request failed", action).Wrap(err)
}
