package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"skynet-vpn-store/internal/config"
	"skynet-vpn-store/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*IntaSendGateway)(nil)

// IntaSendGateway creates hosted-checkout sessions with the IntaSend
// mobile-money API using direct HTTP calls. Confirmation arrives via the
// asynchronous callback, never through this client.
type IntaSendGateway struct {
	publicKey   string
	secretKey   string
	baseURL     string
	callbackURL string
	redirectURL string
	comment     string
	client      *http.Client
}

func NewIntaSendGateway(cfg config.PaymentConfig) *IntaSendGateway {
	return &IntaSendGateway{
		publicKey:   cfg.PublicKey,
		secretKey:   cfg.SecretKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		callbackURL: cfg.CallbackURL,
		redirectURL: cfg.RedirectURL,
		comment:     cfg.Comment,
		client:      &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *IntaSendGateway) Name() string { return "intasend" }

type checkoutPayload struct {
	PublicKey   string                   `json:"public_key"`
	Amount      int                      `json:"amount"`
	Currency    string                   `json:"currency"`
	Email       string                   `json:"email"`
	PhoneNumber string                   `json:"phone_number"`
	Comment     string                   `json:"comment"`
	CallbackURL string                   `json:"callback_url"`
	RedirectURL string                   `json:"redirect_url"`
	Metadata    adapter.CheckoutMetadata `json:"metadata"`
}

type checkoutResponse struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
	Message     string `json:"message"`
}

// CreateCheckout posts a checkout request and returns the session id plus the
// URL the payer must be redirected to. Any gateway failure is returned before
// the caller records a ledger row.
func (g *IntaSendGateway) CreateCheckout(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	payload := checkoutPayload{
		PublicKey:   g.publicKey,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Comment:     req.Comment,
		CallbackURL: g.callbackURL,
		RedirectURL: g.redirectURL,
		Metadata:    req.Metadata,
	}
	if payload.Comment == "" {
		payload.Comment = g.comment
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal checkout request: %w", err)
	}

	url := g.baseURL + "/api/v1/checkout/"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send checkout request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read checkout response: %w", err)
	}

	var decoded checkoutResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("unmarshal checkout response: %w, body: %s", err, string(respBody))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := decoded.Message
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return nil, fmt.Errorf("intasend error: status %d, message: %s", resp.StatusCode, msg)
	}
	if decoded.CheckoutURL == "" {
		return nil, fmt.Errorf("intasend response missing checkout_url, body: %s", string(respBody))
	}

	return &adapter.CheckoutSession{
		PaymentID:   decoded.ID,
		CheckoutURL: decoded.CheckoutURL,
	}, nil
}

// WithHTTPClient overrides the HTTP client; used by tests.
func (g *IntaSendGateway) WithHTTPClient(c *http.Client) *IntaSendGateway {
	if c != nil {
		g.client = c
	}
	return g
}

// WithBaseURL overrides the API origin; used by tests.
func (g *IntaSendGateway) WithBaseURL(u string) *IntaSendGateway {
	g.baseURL = strings.TrimRight(u, "/")
	return g
}
