package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type subscriptionResponse struct {
	Active     bool    `json:"active"`
	StartAt    *string `json:"start_at,omitempty"`
	EndAt      *string `json:"end_at,omitempty"`
	Recurring  bool    `json:"recurring"`
	EverActive bool    `json:"ever_active"`
}

// handleSubscription answers the site's "does this user have access" query.
// The owner comes from the token; the query parameter is a fallback for
// service-to-service calls carrying a shop-scope token.
func (s *Server) handleSubscription(w http.ResponseWriter, r *http.Request) {
	ownerID := claimOwnerID(r.Context())
	if ownerID == "" {
		ownerID = r.URL.Query().Get("owner_id")
	}
	if ownerID == "" {
		http.Error(w, "owner_id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	window, err := s.window.Boundaries(ctx, ownerID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	recurring, err := s.window.HasActiveRecurring(ctx, ownerID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := subscriptionResponse{
		Active:    window.Found,
		Recurring: recurring,
	}
	if window.Found {
		resp.EverActive = true
		if window.StartAt != nil {
			v := window.StartAt.Format("2006-01-02T15:04:05Z07:00")
			resp.StartAt = &v
		}
		if window.EndAt != nil {
			v := window.EndAt.Format("2006-01-02T15:04:05Z07:00")
			resp.EndAt = &v
		}
	} else {
		// The expired-window fallback backs "your subscription ended on X".
		past, err := s.window.AnyBoundaries(ctx, ownerID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if past.Found {
			resp.EverActive = true
			if past.StartAt != nil {
				v := past.StartAt.Format("2006-01-02T15:04:05Z07:00")
				resp.StartAt = &v
			}
			if past.EndAt != nil {
				v := past.EndAt.Format("2006-01-02T15:04:05Z07:00")
				resp.EndAt = &v
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelRecurring(w http.ResponseWriter, r *http.Request) {
	ownerID := claimOwnerID(r.Context())
	if ownerID == "" {
		ownerID = r.URL.Query().Get("owner_id")
	}
	if ownerID == "" {
		http.Error(w, "owner_id required", http.StatusBadRequest)
		return
	}
	if err := s.recurUC.Cancel(r.Context(), ownerID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// handleDeleteAccess removes an access record outright. It exists for
// operator recovery from bad shop data, not for normal revocation.
func (s *Server) handleDeleteAccess(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		http.Error(w, "order id required", http.StatusBadRequest)
		return
	}
	if err := s.access.DeleteOrder(r.Context(), orderID); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
