package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/blackoutassasin/NF-BOT/internal/core/domain"
	"github.com/blackoutassasin/NF-BOT/internal/core/service"
)

// HTTPHandler is the boundary the external messaging transport talks to. It
// renders structured outcomes; the chat layer decides presentation.
type HTTPHandler struct {
	dispenser *service.DispenseService
	adminID   string
}

func NewHTTPHandler(dispenser *service.DispenseService, adminID string) *HTTPHandler {
	return &HTTPHandler{dispenser: dispenser, adminID: adminID}
}

// Routes mounts all endpoints on a chi router.
func (h *HTTPHandler) Routes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Post("/api/purchase", h.StartPurchase)
	r.Post("/api/proof", h.SubmitProof)
	r.Post("/api/cancel", h.Cancel)
	r.Post("/api/admin/items", h.AddItems)
	r.Get("/api/admin/stats", h.Stats)
}

type purchaseRequest struct {
	BuyerID string `json:"buyer_id"`
}

type purchaseResponse struct {
	Price       int64  `json:"price"`
	BkashNumber string `json:"bkash_number"`
	NagadNumber string `json:"nagad_number"`
}

type proofRequest struct {
	BuyerID     string `json:"buyer_id"`
	ImageBase64 string `json:"image_base64"`
}

type credentialPayload struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	PIN         string `json:"pin"`
	ProfileName string `json:"profile_name"`
}

type outcomeResponse struct {
	Status     string             `json:"status"`
	Reason     string             `json:"reason,omitempty"`
	Retryable  bool               `json:"retryable"`
	Message    string             `json:"message"`
	Credential *credentialPayload `json:"credential,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) StartPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BuyerID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "buyer_id is required"})
		return
	}

	instructions, err := h.dispenser.StartPurchase(r.Context(), req.BuyerID)
	if err != nil {
		if errors.Is(err, domain.ErrOutOfStock) {
			writeJSON(w, http.StatusGone, errorResponse{Error: "sold out"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, purchaseResponse{
		Price:       instructions.Price,
		BkashNumber: instructions.BkashNumber,
		NagadNumber: instructions.NagadNumber,
	})
}

func (h *HTTPHandler) SubmitProof(w http.ResponseWriter, r *http.Request) {
	var req proofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BuyerID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "buyer_id is required"})
		return
	}
	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "image_base64 is not valid base64"})
		return
	}

	outcome, err := h.dispenser.SubmitProof(r.Context(), req.BuyerID, image)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSession):
			writeJSON(w, http.StatusConflict, errorResponse{Error: "no active purchase, start one first"})
		case errors.Is(err, service.ErrProofInFlight):
			writeJSON(w, http.StatusConflict, errorResponse{Error: "previous proof still being verified"})
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	resp := outcomeResponse{
		Status:    string(outcome.Status),
		Reason:    string(outcome.Reason),
		Retryable: outcome.Retryable,
		Message:   outcome.Message,
	}
	if outcome.Credential != nil {
		resp.Credential = &credentialPayload{
			Email:       outcome.Credential.Email,
			Password:    outcome.Credential.Password,
			PIN:         outcome.Credential.PIN,
			ProfileName: outcome.Credential.ProfileName,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BuyerID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "buyer_id is required"})
		return
	}
	if err := h.dispenser.Cancel(r.Context(), req.BuyerID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type rejectedLine struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type addItemsResponse struct {
	Added    int            `json:"added"`
	Rejected []rejectedLine `json:"rejected,omitempty"`
}

// AddItems ingests operator bulk text, one "email:pass:pin:name" per line
// (name optional). All valid lines commit together; each bad line is reported
// with its line number.
func (h *HTTPHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	if !h.isAdmin(r) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin only"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable body"})
		return
	}

	batch, lineOf, rejected := parseBulkLines(string(body))
	if len(batch) == 0 && len(rejected) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no items in body"})
		return
	}

	report, err := h.dispenser.AddItems(r.Context(), batch)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	for _, item := range report.Rejected {
		rejected = append(rejected, rejectedLine{Line: lineOf[item.Index], Reason: item.Reason})
	}

	writeJSON(w, http.StatusOK, addItemsResponse{Added: report.Added, Rejected: rejected})
}

// parseBulkLines splits operator text into credentials. lineOf maps batch
// index back to the 1-based source line for error reporting.
func parseBulkLines(text string) (batch []domain.Credential, lineOf map[int]int, rejected []rejectedLine) {
	lineOf = make(map[int]int)
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) < 3 || len(parts) > 4 {
			rejected = append(rejected, rejectedLine{Line: i + 1, Reason: "expected email:pass:pin or email:pass:pin:name"})
			continue
		}
		cred := domain.Credential{
			Email:    strings.TrimSpace(parts[0]),
			Password: strings.TrimSpace(parts[1]),
			PIN:      strings.TrimSpace(parts[2]),
		}
		if len(parts) == 4 {
			cred.ProfileName = strings.TrimSpace(parts[3])
		}
		lineOf[len(batch)] = i + 1
		batch = append(batch, cred)
	}
	return batch, lineOf, rejected
}

type statsResponse struct {
	Available    int   `json:"available"`
	Sold         int   `json:"sold"`
	TotalRevenue int64 `json:"total_revenue"`
}

func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if !h.isAdmin(r) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "admin only"})
		return
	}

	stats, err := h.dispenser.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Available:    stats.Available,
		Sold:         stats.Sold,
		TotalRevenue: stats.TotalRevenue,
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Access control is binary: the configured admin identity or nothing.
func (h *HTTPHandler) isAdmin(r *http.Request) bool {
	return h.adminID != "" && r.Header.Get("X-Buyer-ID") == h.adminID
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
