// Package payment is the client for the Pix payment gateway and the decoder
// for its webhook callbacks.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/korg1OOO/baratosociais/internal/config"
	"github.com/korg1OOO/baratosociais/internal/model"
	"github.com/korg1OOO/baratosociais/internal/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
)

// Gateway creates Pix charges.
type Gateway interface {
	// CreateCharges creates one charge per order line.
	CreateCharges(ctx context.Context, req ChargeRequest) ([]model.PixCharge, error)
}

// ChargeRequest describes the order being paid.
type ChargeRequest struct {
	OrderID  uuid.UUID
	Customer model.Customer
	Lines    []model.OrderLine
}

type chargeCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	TaxID string `json:"taxId"`
}

type chargeItem struct {
	Position    int             `json:"position"`
	ServiceID   string          `json:"serviceId"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
}

type chargePayload struct {
	Reference string         `json:"reference"`
	Customer  chargeCustomer `json:"customer"`
	Items     []chargeItem   `json:"items"`
}

type chargeResponse struct {
	TransactionID string `json:"transactionId"`
	QRCodeImage   string `json:"qrCodeImage"`
	PixPayload    string `json:"pixPayload"`
	Pix           *struct {
		Base64  string `json:"base64"`
		Payload string `json:"payload"`
	} `json:"pix"`
}

type httpGateway struct {
	url     string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  zerolog.Logger
}

// NewGateway creates a Pix gateway client bounded by cfg.Timeout.
func NewGateway(cfg config.PaymentConfig, logger zerolog.Logger) Gateway {
	logger = logger.With().Str("component", "pix-gateway").Logger()
	return &httpGateway{
		url:     strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		http:    outbound.NewHTTPClient(cfg.Timeout),
		breaker: outbound.NewBreaker[[]byte]("pix-gateway", logger),
		logger:  logger,
	}
}

// CreateCharges posts the order to the gateway. The gateway must answer with
// exactly one charge per line, in line order.
func (g *httpGateway) CreateCharges(ctx context.Context, req ChargeRequest) ([]model.PixCharge, error) {
	payload := chargePayload{
		Reference: req.OrderID.String(),
		Customer: chargeCustomer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
			TaxID: req.Customer.TaxID,
		},
		Items: make([]chargeItem, 0, len(req.Lines)),
	}
	for _, l := range req.Lines {
		payload.Items = append(payload.Items, chargeItem{
			Position:    l.Position,
			ServiceID:   l.ServiceID,
			Description: l.ServiceName,
			Quantity:    l.Quantity,
			Amount:      l.Price.Mul(l.Quantity).Round(2),
		})
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode charge request: %w", err)
	}

	body, err := g.breaker.Execute(func() ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url+"/charges", bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")
		if g.token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+g.token)
		}

		resp, err := g.http.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &outbound.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
		}
		return respBody, nil
	})
	if err != nil {
		return nil, g.fail(req.OrderID, err)
	}

	var charges []chargeResponse
	if err := json.Unmarshal(body, &charges); err != nil {
		return nil, g.fail(req.OrderID, fmt.Errorf("failed to decode charges: %w", err))
	}
	if len(charges) != len(req.Lines) {
		return nil, g.fail(req.OrderID, fmt.Errorf("gateway returned %d charges for %d lines", len(charges), len(req.Lines)))
	}

	out := make([]model.PixCharge, len(charges))
	for i, ch := range charges {
		if ch.TransactionID == "" {
			return nil, g.fail(req.OrderID, fmt.Errorf("charge %d has no transaction id", i))
		}
		pc := model.PixCharge{
			TransactionID: ch.TransactionID,
			QRCodeImage:   ch.QRCodeImage,
			PixPayload:    ch.PixPayload,
			LinePositions: []int{req.Lines[i].Position},
		}
		if ch.Pix != nil {
			if pc.QRCodeImage == "" {
				pc.QRCodeImage = ch.Pix.Base64
			}
			if pc.PixPayload == "" {
				pc.PixPayload = ch.Pix.Payload
			}
		}
		out[i] = pc
	}

	g.logger.Info().
		Str("order_id", req.OrderID.String()).
		Int("charges", len(out)).
		Msg("pix charges created")

	return out, nil
}

func (g *httpGateway) fail(orderID uuid.UUID, err error) error {
	g.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("pix charge creation failed")
	return model.ErrPaymentFailed.Wrap(err)
}
