package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"lms-access-billing/internal/domain"
	"lms-access-billing/internal/domain/model"
	"lms-access-billing/internal/usecase"
)

// Inbound payload shapes as the shop sends them. Timestamps are RFC 3339
// event times from the shop, not receipt times.
type buyerPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type checkoutPayload struct {
	OrderID   string       `json:"order_id"`
	EventTime time.Time    `json:"event_time"`
	Buyer     buyerPayload `json:"buyer"`
	Product   struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"product"`
	Amount    decimal.Decimal `json:"amount"`
	PaymentID string          `json:"payment_id"`
	Provider  string          `json:"provider"`
	Method    string          `json:"method"`
	StartAt   *time.Time      `json:"start_at,omitempty"`
	EndAt     *time.Time      `json:"end_at,omitempty"`
	Recurrent *struct {
		RebillID string          `json:"rebill_id"`
		CardMask string          `json:"card_mask"`
		ExpDate  string          `json:"exp_date"`
		Amount   decimal.Decimal `json:"amount"`
	} `json:"recurrent,omitempty"`
}

type refundPayload struct {
	OrderID   string    `json:"order_id"`
	EventTime time.Time `json:"event_time"`
	PaymentID string    `json:"payment_id"`
}

type promoPayload struct {
	EventID   string       `json:"event_id"`
	EventTime time.Time    `json:"event_time"`
	Buyer     buyerPayload `json:"buyer"`
}

func (s *Server) handleOrderCheckout(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}
	var p checkoutPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.OrderID == "" || p.Buyer.Email == "" || p.Product.ID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if p.EventTime.IsZero() {
		p.EventTime = time.Now()
	}

	in := usecase.CheckoutInput{
		OrderID:   p.OrderID,
		EventTime: p.EventTime,
		Buyer: usecase.Buyer{
			Username:  p.Buyer.Email,
			FirstName: p.Buyer.FirstName,
			LastName:  p.Buyer.LastName,
			Phone:     p.Buyer.Phone,
		},
		ProductShopID:     p.Product.ID,
		ProductName:       p.Product.Title,
		Amount:            p.Amount,
		ExternalPaymentID: p.PaymentID,
		Provider:          p.Provider,
		Method:            model.PaymentMethod(p.Method),
		StartAt:           p.StartAt,
		EndAt:             p.EndAt,
	}
	if p.Recurrent != nil {
		in.Recurring = &usecase.RecurringData{
			Provider: p.Provider,
			Method:   model.PaymentMethodCardRecurrent,
			RebillID: p.Recurrent.RebillID,
			CardMask: p.Recurrent.CardMask,
			ExpDate:  p.Recurrent.ExpDate,
			Amount:   p.Recurrent.Amount,
		}
	}

	ctx := usecase.WithRawPayload(r.Context(), raw)
	if err := s.checkout.ProcessCheckout(ctx, in); err != nil {
		s.writeError(w, err)
		return
	}
	resp := map[string]string{"status": "ok"}
	if s.cfg.Shop.PostCheckoutURL != "" {
		resp["redirect_url"] = s.cfg.Shop.PostCheckoutURL
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOrderRefund(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}
	var p refundPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.OrderID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if p.EventTime.IsZero() {
		p.EventTime = time.Now()
	}

	ctx := usecase.WithRawPayload(r.Context(), raw)
	if err := s.checkout.ProcessRefund(ctx, usecase.RefundInput{
		OrderID:           p.OrderID,
		EventTime:         p.EventTime,
		ExternalPaymentID: p.PaymentID,
	}); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePromoAccess(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}
	var p promoPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.EventID == "" || p.Buyer.Email == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if p.EventTime.IsZero() {
		p.EventTime = time.Now()
	}

	ctx := usecase.WithRawPayload(r.Context(), raw)
	if err := s.checkout.ProcessPromo(ctx, usecase.PromoInput{
		EventID:   p.EventID,
		EventTime: p.EventTime,
		Buyer: usecase.Buyer{
			Username:  p.Buyer.Email,
			FirstName: p.Buyer.FirstName,
			LastName:  p.Buyer.LastName,
			Phone:     p.Buyer.Phone,
		},
	}); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrActiveSubscriptionExists):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNoRecurringSubscription):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
