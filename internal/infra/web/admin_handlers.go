package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skynet-vpn-store/internal/domain"
	"skynet-vpn-store/internal/domain/model"
)

// Uploaded config files are small text artifacts; 5 MiB is generous.
const maxConfigUploadBytes = 5 << 20

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ov, err := s.stats.Overview(r.Context())
	if err != nil {
		http.Error(w, "Failed to compute stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handlePurchaseLedger(w http.ResponseWriter, r *http.Request) {
	details, err := s.stats.Ledger(r.Context())
	if err != nil {
		http.Error(w, "Failed to list purchases", http.StatusInternalServerError)
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filtered := details[:0]
		for _, d := range details {
			if string(d.Status) == status {
				filtered = append(filtered, d)
			}
		}
		details = filtered
	}

	writeJSON(w, http.StatusOK, struct {
		Data any `json:"data"`
	}{details})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.accounts.List(r.Context())
	if err != nil {
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data any `json:"data"`
	}{profiles})
}

// readConfigUpload pulls the "config" file out of a multipart form.
func readConfigUpload(r *http.Request) (filename string, data []byte, err error) {
	if err := r.ParseMultipartForm(maxConfigUploadBytes); err != nil {
		return "", nil, err
	}
	file, header, err := r.FormFile("config")
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	data, err = io.ReadAll(io.LimitReader(file, maxConfigUploadBytes))
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}

func (s *Server) handleAttachConfig(w http.ResponseWriter, r *http.Request) {
	purchaseID := chi.URLParam(r, "id")
	filename, data, err := readConfigUpload(r)
	if err != nil {
		http.Error(w, "Config file is required", http.StatusBadRequest)
		return
	}

	p, err := s.fulfillment.AttachConfig(r.Context(), purchaseID, filename, data)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyArtifact), errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "Config file is required", http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "No pending purchase with that id", http.StatusNotFound)
		default:
			s.log.Error().Err(err).Str("purchase_id", purchaseID).Msg("config attach failed")
			http.Error(w, "Failed to attach config", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleReplaceConfig(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	filename, data, err := readConfigUpload(r)
	if err != nil {
		http.Error(w, "Config file is required", http.StatusBadRequest)
		return
	}

	p, err := s.fulfillment.ReplaceConfig(r.Context(), accountID, filename, data)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyArtifact), errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "Config file is required", http.StatusBadRequest)
		case errors.Is(err, domain.ErrNoEntitledPurchase):
			http.Error(w, "Account has no entitled purchase", http.StatusNotFound)
		default:
			s.log.Error().Err(err).Str("account_id", accountID).Msg("config replace failed")
			http.Error(w, "Failed to replace config", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type productCreateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Features    []string `json:"features"`
	ImageURL    string   `json:"image_url"`
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	p, err := s.catalog.AddProduct(r.Context(), req.Name, req.Description, req.Features, req.ImageURL)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "Product name is required", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create product", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

type planCreateRequest struct {
	Duration model.Duration `json:"duration"`
	PriceKES int            `json:"price_kes"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	var req planCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	p, err := s.catalog.AddPlan(r.Context(), productID, req.Duration, req.PriceKES)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "Invalid duration", http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "Product not found", http.StatusNotFound)
		default:
			http.Error(w, "Failed to create plan", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, p)
}
