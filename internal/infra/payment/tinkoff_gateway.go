package payment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"

	"lms-access-billing/internal/config"
	"lms-access-billing/internal/domain/ports/adapter"
)

// TinkoffGateway implements the two-phase recurring charge protocol against
// the Tinkoff acquiring API: Init registers the payment, Charge executes it
// against a stored rebill token.
type TinkoffGateway struct {
	cfg    config.TinkoffConfig
	client *http.Client
}

var _ adapter.RecurringGateway = (*TinkoffGateway)(nil)

func NewTinkoffGateway(cfg config.TinkoffConfig) *TinkoffGateway {
	return &TinkoffGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *TinkoffGateway) Name() string { return "tinkoff" }

// SignToken computes the request signature: take every scalar top-level
// field, add Password, sort by key, concatenate the values and hash with
// sha256. Nested objects (Receipt, DATA) are excluded by the protocol.
func SignToken(params map[string]any, password string) string {
	scalars := map[string]string{"Password": password}
	for k, v := range params {
		switch t := v.(type) {
		case string:
			scalars[k] = t
		case bool:
			scalars[k] = strconv.FormatBool(t)
		case int:
			scalars[k] = strconv.Itoa(t)
		case int64:
			scalars[k] = strconv.FormatInt(t, 10)
		case float64:
			scalars[k] = strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	keys := make([]string, 0, len(scalars))
	for k := range scalars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	for _, k := range keys {
		buf.WriteString(scalars[k])
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

type tinkoffResponse struct {
	Success    bool   `json:"Success"`
	Status     string `json:"Status"`
	PaymentID  string `json:"PaymentId"`
	OrderID    string `json:"OrderId"`
	ErrorCode  string `json:"ErrorCode"`
	Message    string `json:"Message"`
	Details    string `json:"Details"`
	RebillID   string `json:"RebillId"`
	CardID     string `json:"CardId"`
	Pan        string `json:"Pan"`
	ExpDate    string `json:"ExpDate"`
	TerminalID string `json:"TerminalKey"`
}

func (g *TinkoffGateway) Init(ctx context.Context, p adapter.InitParams) (string, error) {
	payload := map[string]any{
		"TerminalKey": g.cfg.TerminalKey,
		"Amount":      p.Amount,
		"OrderId":     p.OrderID,
		"Description": p.Description,
	}
	payload["Token"] = SignToken(payload, g.cfg.TerminalPassword)
	payload["Receipt"] = g.receipt(p)

	resp, _, err := g.post(ctx, "/Init", payload)
	if err != nil {
		return "", err
	}
	if !resp.Success || resp.PaymentID == "" {
		return "", fmt.Errorf("tinkoff init failed: code %s, %s %s", resp.ErrorCode, resp.Message, resp.Details)
	}
	return resp.PaymentID, nil
}

func (g *TinkoffGateway) Charge(ctx context.Context, paymentID, rebillID, email string) (*adapter.ChargeResult, error) {
	payload := map[string]any{
		"TerminalKey": g.cfg.TerminalKey,
		"PaymentId":   paymentID,
		"RebillId":    rebillID,
		"SendEmail":   email != "",
		"InfoEmail":   email,
	}
	payload["Token"] = SignToken(payload, g.cfg.TerminalPassword)

	resp, raw, err := g.post(ctx, "/Charge", payload)
	if err != nil {
		return nil, err
	}

	// A committed charge is Success with status CONFIRMED; anything else,
	// including AUTHORIZED or REJECTED, counts as a decline.
	return &adapter.ChargeResult{
		Success:           resp.Success && resp.Status == "CONFIRMED",
		Status:            resp.Status,
		ExternalPaymentID: resp.PaymentID,
		ErrorCode:         resp.ErrorCode,
		ErrorMessage:      joinNonEmpty(resp.Message, resp.Details),
		RebillID:          resp.RebillID,
		CardMask:          resp.Pan,
		ExpDate:           resp.ExpDate,
		Raw:               raw,
	}, nil
}

func (g *TinkoffGateway) receipt(p adapter.InitParams) map[string]any {
	item := map[string]any{
		"Name":     p.Description,
		"Price":    p.Amount,
		"Quantity": 1,
		"Amount":   p.Amount,
	}
	if g.cfg.Tax != "" {
		item["Tax"] = g.cfg.Tax
	}
	if g.cfg.PaymentObject != "" {
		item["PaymentObject"] = g.cfg.PaymentObject
	}
	receipt := map[string]any{
		"Items": []map[string]any{item},
	}
	if g.cfg.Taxation != "" {
		receipt["Taxation"] = g.cfg.Taxation
	}
	if p.Email != "" {
		receipt["Email"] = p.Email
	}
	if p.Phone != "" {
		receipt["Phone"] = p.Phone
	}
	return receipt
}

func (g *TinkoffGateway) post(ctx context.Context, path string, payload map[string]any) (*tinkoffResponse, map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.APIURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	httpResp, err := g.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("send request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	var resp tinkoffResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, nil, fmt.Errorf("unmarshal response: %w, body: %s", err, string(respBody))
	}
	var raw map[string]any
	_ = json.Unmarshal(respBody, &raw)
	return &resp, raw, nil
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + ": " + b
	}
}
