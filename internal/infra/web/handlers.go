package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"skynet-vpn-store/internal/domain"
	"skynet-vpn-store/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ===== Auth =====

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	HWID     string `json:"hwid"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := s.accounts.Register(r.Context(), req.Email, req.Password, req.Username, req.HWID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			http.Error(w, "Email already registered", http.StatusConflict)
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "Invalid email or password too short", http.StatusBadRequest)
		default:
			http.Error(w, "Failed to register", http.StatusInternalServerError)
		}
		return
	}

	if _, err := s.auth.Mint(w, p.ID); err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := s.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Failed to log in", http.StatusInternalServerError)
		return
	}

	token, err := s.auth.Mint(w, p.ID)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		IsAdmin bool   `json:"is_admin"`
		Token   string `json:"token"`
	}{p.ID, p.Email, p.IsAdmin, token})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// ===== Catalog =====

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.catalog.Products(r.Context())
	if err != nil {
		http.Error(w, "Failed to list products", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data any `json:"data"`
	}{products})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "Failed to get product", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.catalog.PlansFor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Failed to list plans", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data any `json:"data"`
	}{plans})
}

// ===== Account =====

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	p, err := s.accounts.Get(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateHWID(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	var req struct {
		HWID string `json:"hwid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.accounts.UpdateHWID(r.Context(), userID, req.HWID); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "HWID is required", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to update HWID", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// purchaseView is a ledger row as shown on the account dashboard. The
// download URL is only exposed while the purchase grants access.
type purchaseView struct {
	ID            string     `json:"id"`
	ProductID     string     `json:"vpn_id"`
	PlanID        string     `json:"plan_id"`
	Status        string     `json:"status"`
	Entitled      bool       `json:"entitled"`
	ConfigFileURL *string    `json:"config_file_url,omitempty"`
	PurchasedAt   time.Time  `json:"purchased_at"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

func (s *Server) handleMyPurchases(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	list, err := s.purchases.ListForUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to list purchases", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	views := make([]purchaseView, 0, len(list))
	for _, p := range list {
		v := purchaseView{
			ID:          p.ID,
			ProductID:   p.ProductID,
			PlanID:      p.PlanID,
			Status:      string(p.Status),
			Entitled:    p.Entitled(now),
			PurchasedAt: p.PurchasedAt,
			ExpiresAt:   p.ExpiresAt,
		}
		if v.Entitled {
			v.ConfigFileURL = p.ConfigFileURL
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, struct {
		Data []purchaseView `json:"data"`
	}{views})
}

// ===== Purchases =====

type createPurchaseRequest struct {
	ProductID string `json:"vpn_id"`
	PlanID    string `json:"plan_id"`
}

func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	var req createPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, err := s.purchases.Create(r.Context(), userID, req.ProductID, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "Invalid product or plan", http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Plan not found", http.StatusNotFound)
		default:
			http.Error(w, "Failed to create purchase", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type checkoutRequest struct {
	ProductID   string `json:"vpn_id"`
	PlanID      string `json:"plan_id"`
	Amount      int    `json:"amount"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	Currency    string `json:"currency"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	p, checkoutURL, err := s.purchases.Checkout(r.Context(), usecase.CheckoutInput{
		UserID:      userID,
		ProductID:   req.ProductID,
		PlanID:      req.PlanID,
		Amount:      req.Amount,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Currency:    req.Currency,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "Invalid checkout request", http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Plan not found", http.StatusNotFound)
		default:
			s.log.Error().Err(err).Msg("checkout failed")
			http.Error(w, "Checkout failed", http.StatusBadGateway)
		}
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		PurchaseID  string `json:"purchase_id"`
		CheckoutURL string `json:"checkout_url"`
	}{p.ID, checkoutURL})
}

// ===== Payment callback =====

type callbackRequest struct {
	Status    string `json:"status"`
	PaymentID string `json:"id"`
	Metadata  struct {
		UserID    string `json:"user_id"`
		ProductID string `json:"vpn_id"`
		PlanID    string `json:"plan_id"`
	} `json:"metadata"`
}

func (s *Server) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	if !s.verifySignature(r) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var req callbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cb := usecase.PaymentCallback{Status: req.Status, PaymentID: req.PaymentID}
	cb.Metadata.UserID = req.Metadata.UserID
	cb.Metadata.ProductID = req.Metadata.ProductID
	cb.Metadata.PlanID = req.Metadata.PlanID

	if err := s.purchases.HandleCallback(r.Context(), cb); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "Incomplete callback metadata", http.StatusBadRequest)
			return
		}
		s.log.Error().Err(err).Msg("callback processing failed")
		http.Error(w, "Failed to process callback", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{"notification received"})
}
