// Package gateway talks to the external payment processor. Only the two
// intent flows the reservation engine uses are modeled: a hosted redirect
// link and a scannable QR payload.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"parking-reservation/internal/data/entity"
	"parking-reservation/pkg/utils"

	"go.uber.org/zap"
)

// IntentMetadata is echoed back verbatim in webhook notifications, so a
// gateway-initiated confirmation carries the same reservation snapshot a
// client-initiated one does.
type IntentMetadata struct {
	LotID         string `json:"lot_id"`
	SlotID        string `json:"slot_id"`
	VehiclePlate  string `json:"vehicle_plate"`
	RequesterRef  string `json:"requester_ref"`
	StartUnix     int64  `json:"start_unix"`
	DurationHours int    `json:"duration_hours"`
	Method        string `json:"method"`
}

type IntentRequest struct {
	ExternalRef string
	Amount      float64
	Method      entity.PaymentMethod
	Metadata    IntentMetadata
}

// Intent is the tagged result of a createIntent call. Exactly one concrete
// variant exists per payment method.
type Intent interface {
	ExternalID() string
	Info() entity.PaymentInfo
}

type RedirectLinkIntent struct {
	ID          string
	RedirectURL string
}

func (i RedirectLinkIntent) ExternalID() string { return i.ID }

func (i RedirectLinkIntent) Info() entity.PaymentInfo {
	return entity.PaymentInfo{ExternalID: i.ID, RedirectURL: i.RedirectURL}
}

type ScanCodeIntent struct {
	ID          string
	ScanPayload string
}

func (i ScanCodeIntent) ExternalID() string { return i.ID }

func (i ScanCodeIntent) Info() entity.PaymentInfo {
	return entity.PaymentInfo{ExternalID: i.ID, ScanPayload: i.ScanPayload}
}

// Client is the HTTP adapter for the processor API. Credentials are scoped
// to one resource owner and injected here, not read from globals.
type Client struct {
	cfg        utils.GatewayConfig
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(cfg utils.GatewayConfig, log *zap.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With(zap.String("gateway", "pasarela")),
	}
}

type intentPayload struct {
	ExternalReference string         `json:"external_reference"`
	MerchantID        string         `json:"merchant_id"`
	Amount            float64        `json:"amount"`
	Currency          string         `json:"currency"`
	Method            string         `json:"method"`
	Metadata          IntentMetadata `json:"metadata"`
}

type intentResult struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url,omitempty"`
	QRPayload   string `json:"qr_payload,omitempty"`
}

// CreateIntent registers a payment intent tagged with the reservation code
// as external correlation id.
func (c *Client) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	payload := intentPayload{
		ExternalReference: req.ExternalRef,
		MerchantID:        c.cfg.MerchantID,
		Amount:            req.Amount,
		Currency:          c.cfg.Currency,
		Method:            string(req.Method),
		Metadata:          req.Metadata,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal intent payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/intents", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build intent request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Error("Payment gateway unreachable",
			zap.Error(err),
			zap.String("external_ref", req.ExternalRef),
		)
		return nil, fmt.Errorf("create intent for %s: %w", req.ExternalRef, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Error("Payment gateway rejected intent",
			zap.Int("status", resp.StatusCode),
			zap.String("external_ref", req.ExternalRef),
			zap.ByteString("body", raw),
		)
		return nil, fmt.Errorf("create intent for %s: gateway returned %d", req.ExternalRef, resp.StatusCode)
	}

	var result intentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode intent response for %s: %w", req.ExternalRef, err)
	}

	c.log.Info("Payment intent created",
		zap.String("external_ref", req.ExternalRef),
		zap.String("intent_id", result.ID),
		zap.String("method", string(req.Method)),
	)

	switch req.Method {
	case entity.PaymentMethodScanCode:
		return ScanCodeIntent{ID: result.ID, ScanPayload: result.QRPayload}, nil
	default:
		return RedirectLinkIntent{ID: result.ID, RedirectURL: result.RedirectURL}, nil
	}
}

// Notification is the webhook body the processor posts when a payment for
// one of our intents settles.
type Notification struct {
	ExternalReference string         `json:"external_reference"`
	Event             string         `json:"event"`
	IntentID          string         `json:"intent_id"`
	Metadata          IntentMetadata `json:"metadata"`
}

// EventPaymentSucceeded is the only event the engine acts on; everything
// else is acknowledged and ignored.
const EventPaymentSucceeded = "payment.succeeded"

func ParseNotification(r io.Reader) (*Notification, error) {
	var n Notification
	if err := json.NewDecoder(r).Decode(&n); err != nil {
		return nil, fmt.Errorf("decode gateway notification: %w", err)
	}
	if n.ExternalReference == "" {
		return nil, fmt.Errorf("gateway notification missing external_reference")
	}
	return &n, nil
}
