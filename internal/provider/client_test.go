package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/korg1OOO/baratosociais/internal/config"
	"github.com/korg1OOO/baratosociais/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient starts a provider stub that records the last form it received.
func newTestClient(t *testing.T, handler func(form url.Values, w http.ResponseWriter)) Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret-key", r.PostForm.Get("key"))
		w.Header().Set("Content-Type", "application/json")
		handler(r.PostForm, w)
	}))
	t.Cleanup(srv.Close)

	return NewClient(config.ProviderConfig{
		URL:     srv.URL,
		APIKey:  "secret-key",
		Timeout: 2 * time.Second,
	}, zerolog.Nop())
}

func TestClient_Services(t *testing.T) {
	client := newTestClient(t, func(form url.Values, w http.ResponseWriter) {
		assert.Equal(t, "services", form.Get("action"))
		w.Write([]byte(`[
			{"service": 1, "name": "Curtidas Instagram", "type": "Default", "category": "Instagram", "rate": "0.90", "min": "100", "max": "10000", "refill": true, "cancel": false},
			{"service": "2", "name": "Seguidores TikTok", "rate": 1.2, "min": 50, "max": 5000, "refill": "1", "cancel": 0},
			{"service": "abc", "name": "broken", "rate": "1"}
		]`))
	})

	services, err := client.Services(context.Background())

	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, model.ProviderService{
		ServiceID: 1,
		Name:      "Curtidas Instagram",
		Type:      "Default",
		Category:  "Instagram",
		Rate:      "0.90",
		Min:       "100",
		Max:       "10000",
		Refill:    true,
	}, services[0])
	assert.Equal(t, int64(2), services[1].ServiceID)
	assert.Equal(t, "1.2", services[1].Rate)
	assert.Equal(t, "50", services[1].Min)
	assert.True(t, services[1].Refill)
	assert.False(t, services[1].Cancel)
}

func TestClient_AddOrder(t *testing.T) {
	client := newTestClient(t, func(form url.Values, w http.ResponseWriter) {
		assert.Equal(t, "add", form.Get("action"))
		assert.Equal(t, "42", form.Get("service"))
		assert.Equal(t, "https://instagram.com/p/abc", form.Get("link"))
		assert.Equal(t, "1500", form.Get("quantity"))
		w.Write([]byte(`{"order": 98765}`))
	})

	id, err := client.AddOrder(context.Background(), 42, "https://instagram.com/p/abc", 1500)

	require.NoError(t, err)
	assert.Equal(t, int64(98765), id)
}

func TestClient_AddOrder_ErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(form url.Values, w http.ResponseWriter) {
		w.Write([]byte(`{"error": "Incorrect link"}`))
	})

	_, err := client.AddOrder(context.Background(), 42, "bad", 1000)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrProviderError)
	assert.Contains(t, err.Error(), "Incorrect link")
}

func TestClient_HTTPError(t *testing.T) {
	client := newTestClient(t, func(form url.Values, w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	})

	_, err := client.Balance(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrProviderError)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"order": 1}`))
	}))
	defer srv.Close()

	client := NewClient(config.ProviderConfig{URL: srv.URL, APIKey: "k", Timeout: 20 * time.Millisecond}, zerolog.Nop())

	_, err := client.AddOrder(context.Background(), 1, "link", 1000)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrProviderError)
}

func TestClient_Status(t *testing.T) {
	client := newTestClient(t, func(form url.Values, w http.ResponseWriter) {
		assert.Equal(t, "status", form.Get("action"))
		assert.Equal(t, "77", form.Get("order"))
		w.Write([]byte(`{"charge": "0.27819", "start_count": 3572, "status": "Partial", "remains": "157", "currency": "BRL"}`))
	})

	status, err := client.Status(context.Background(), 77)

	require.NoError(t, err)
	assert.Equal(t, model.ProviderOrderStatus{
		ExternalOrderID: 77,
		Charge:          "0.27819",
		StartCount:      "3572",
		Status:          "Partial",
		Remains:         "157",
		Currency:        "BRL",
	}, status)
}

func TestClient_Balance(t *testing.T) {
	client := newTestClient(t, func(form url.Values, w http.ResponseWriter) {
		assert.Equal(t, "balance", form.Get("action"))
		w.Write([]byte(`{"balance": "100.84292", "currency": "BRL"}`))
	})

	balance, err := client.Balance(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "100.84292", balance.Balance.String())
	assert.Equal(t, "BRL", balance.Currency)
}

func TestClient_Refill(t *testing.T) {
	client := newTestClient(t, func(form url.Values, w http.ResponseWriter) {
		assert.Equal(t, "refill", form.Get("action"))
		assert.Equal(t, "5", form.Get("order"))
		w.Write([]byte(`{"refill": 1}`))
	})

	result, err := client.Refill(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, model.RefillResult{ExternalOrderID: 5, RefillID: "1"}, result)
}

func TestClient_Cancel(t *testing.T) {
	client := newTestClient(t, func(form url.Values, w http.ResponseWriter) {
		assert.Equal(t, "cancel", form.Get("action"))
		assert.Equal(t, "9,10", form.Get("orders"))
		w.Write([]byte(`[{"order": 9, "cancel": {"error": "Incorrect order ID"}}, {"order": 10, "cancel": 1}]`))
	})

	results, err := client.Cancel(context.Background(), []int64{9, 10})

	require.NoError(t, err)
	assert.Equal(t, []model.CancelResult{
		{ExternalOrderID: 9, Error: "Incorrect order ID"},
		{ExternalOrderID: 10, CancelID: "1"},
	}, results)
}
