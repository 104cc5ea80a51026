package quote

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/promo-engine/internal/common"
)

// Handler exposes the quote endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Mount registers the routes on r.
func (h *Handler) Mount(r chi.Router) {
	r.Post("/quotes", h.Create)
	r.Post("/quotes/compare", h.Compare)
	r.Get("/rules", h.Rules)
}

// Create handles POST /api/v1/quotes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	quote, err := h.service.Quote(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Quote-ID", quote.ID)
	common.Data(w, http.StatusOK, quote)
}

// Compare handles POST /api/v1/quotes/compare.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	cmp, err := h.service.Compare(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Quote-ID", cmp.ID)
	common.Data(w, http.StatusOK, cmp.Summaries)
}

// Rules handles GET /api/v1/rules.
func (h *Handler) Rules(w http.ResponseWriter, _ *http.Request) {
	common.Data(w, http.StatusOK, h.service.Definitions())
}

func decodeRequest(r *http.Request) (Request, error) {
	var req Request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return req, common.NewAppError(common.CodeTooLarge, "request entity too large", http.StatusRequestEntityTooLarge, err)
		case errors.Is(err, io.EOF):
			return req, common.NewAppError(common.CodeBadRequest, "request body is required", http.StatusBadRequest, err)
		default:
			return req, common.NewAppError(common.CodeBadRequest, "invalid payload", http.StatusBadRequest, err)
		}
	}
	return req, nil
}
