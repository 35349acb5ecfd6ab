// Package handlers provides HTTP handlers for hedging analytics.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/hedger/internal/clientdata"
	"github.com/aristath/hedger/internal/domain"
	"github.com/aristath/hedger/internal/modules/hedging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"

	maxBodyBytes = 4 << 20
)

// QuoteStore is the quote cache as seen by the handlers
type QuoteStore interface {
	domain.PriceLookup
	Put(symbol string, price float64, source string) (clientdata.Quote, error)
	Get(symbol string) (clientdata.Quote, bool, error)
	All() ([]clientdata.Quote, error)
}

// Handler handles hedging HTTP requests
type Handler struct {
	service *hedging.Service
	quotes  QuoteStore
	log     zerolog.Logger
	now     func() time.Time
}

// NewHandler creates a new hedging handler. quotes may be nil, in which case
// only request-supplied prices and reference fallbacks are used.
func NewHandler(service *hedging.Service, quotes QuoteStore, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		quotes:  quotes,
		log:     log.With().Str("handler", "hedging").Logger(),
		now:     time.Now,
	}
}

// priceLookup consults request prices before the quote cache
func (h *Handler) priceLookup(requested domain.StaticPrices) domain.PriceLookup {
	chain := domain.ChainLookup{}
	if requested != nil {
		chain = append(chain, requested)
	}
	if h.quotes != nil {
		chain = append(chain, h.quotes)
	}
	return chain
}

// HandleAnalyze handles POST /api/hedging/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAnalyze(w, r)
	if !ok {
		return
	}

	report, err := h.service.Analyze(req.snapshot(), req.inputs(), h.priceLookup(req.prices()))
	h.writeResult(w, r, report, err)
}

// HandleHedge handles POST /api/hedging/hedge
func (h *Handler) HandleHedge(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAnalyze(w, r)
	if !ok {
		return
	}

	report, err := h.service.Analyze(req.snapshot(), req.inputs(), h.priceLookup(req.prices()))
	h.writeResult(w, r, report.Futures, err)
}

// HandleOptions handles POST /api/hedging/options
func (h *Handler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAnalyze(w, r)
	if !ok {
		return
	}

	report, err := h.service.Analyze(req.snapshot(), req.inputs(), h.priceLookup(req.prices()))
	h.writeResult(w, r, report.Options, err)
}

// HandleGetReference handles GET /api/hedging/reference
func (h *Handler) HandleGetReference(w http.ResponseWriter, r *http.Request) {
	h.writeResponse(w, r, http.StatusOK, h.service.Engine().Tables(), nil)
}

// HandlePutQuotes handles PUT /api/hedging/quotes
func (h *Handler) HandlePutQuotes(w http.ResponseWriter, r *http.Request) {
	if h.quotes == nil {
		h.writeError(w, r, http.StatusServiceUnavailable, "Quote cache not configured")
		return
	}

	var req PutQuotesRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Quotes) == 0 {
		h.writeError(w, r, http.StatusBadRequest, "No quotes provided")
		return
	}

	stored := make([]clientdata.Quote, 0, len(req.Quotes))
	for _, q := range req.Quotes {
		saved, err := h.quotes.Put(string(q.Symbol), float64(q.Price), req.Source)
		if errors.Is(err, clientdata.ErrInvalidQuote) {
			h.writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			h.log.Error().Err(err).Str("symbol", string(q.Symbol)).Msg("Failed to store quote")
			h.writeError(w, r, http.StatusInternalServerError, "Failed to store quote")
			return
		}
		stored = append(stored, saved)
	}

	h.log.Debug().Int("count", len(stored)).Str("source", req.Source).Msg("Quotes stored")
	h.writeResponse(w, r, http.StatusOK, stored, nil)
}

// HandleGetQuotes handles GET /api/hedging/quotes
func (h *Handler) HandleGetQuotes(w http.ResponseWriter, r *http.Request) {
	if h.quotes == nil {
		h.writeResponse(w, r, http.StatusOK, []clientdata.Quote{}, nil)
		return
	}

	quotes, err := h.quotes.All()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list quotes")
		h.writeError(w, r, http.StatusInternalServerError, "Failed to list quotes")
		return
	}
	h.writeResponse(w, r, http.StatusOK, quotes, nil)
}

// HandleGetQuote handles GET /api/hedging/quotes/{symbol}
func (h *Handler) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := clientdata.NormalizeSymbol(chi.URLParam(r, "symbol"))
	if symbol == "" {
		h.writeError(w, r, http.StatusBadRequest, "symbol is required")
		return
	}
	if h.quotes == nil {
		h.writeError(w, r, http.StatusNotFound, "No quote for "+symbol)
		return
	}

	q, ok, err := h.quotes.Get(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to read quote")
		h.writeError(w, r, http.StatusInternalServerError, "Failed to read quote")
		return
	}
	if !ok {
		h.writeError(w, r, http.StatusNotFound, "No quote for "+symbol)
		return
	}
	h.writeResponse(w, r, http.StatusOK, q, nil)
}

// Helper methods

func (h *Handler) decodeAnalyze(w http.ResponseWriter, r *http.Request) (AnalyzeRequest, bool) {
	var req AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return req, false
	}
	return req, true
}

// writeResult writes an engine result. ErrNoPositions still carries a valid
// zero-valued result and is surfaced as a warning.
func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, data interface{}, err error) {
	if errors.Is(err, hedging.ErrNoPositions) {
		h.writeResponse(w, r, http.StatusOK, data, map[string]interface{}{"warning": err.Error()})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Analysis failed")
		h.writeError(w, r, http.StatusInternalServerError, "Analysis failed")
		return
	}
	h.writeResponse(w, r, http.StatusOK, data, nil)
}

// writeResponse wraps data in the standard envelope and encodes it as JSON,
// or msgpack when the client asks for it.
func (h *Handler) writeResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}, extra map[string]interface{}) {
	metadata := map[string]interface{}{
		"timestamp":  h.now().UTC().Format(time.RFC3339),
		"request_id": requestID(r),
	}
	for k, v := range extra {
		metadata[k] = v
	}
	h.encode(w, r, status, map[string]interface{}{
		"data":     data,
		"metadata": metadata,
	})
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.encode(w, r, status, map[string]string{
		"error": message,
	})
}

// encode marshals body fully before writing the status, so a body that cannot
// be encoded becomes a 500 rather than a truncated 200.
func (h *Handler) encode(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	var (
		buf         bytes.Buffer
		contentType = contentTypeJSON
		err         error
	)
	if wantsMsgpack(r) {
		contentType = contentTypeMsgpack
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		err = enc.Encode(body)
	} else {
		err = json.NewEncoder(&buf).Encode(body)
	}

	if err != nil {
		h.log.Error().Err(err).Str("content_type", contentType).Msg("Failed to encode response")
		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to encode response"}` + "\n"))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Debug().Err(err).Msg("Failed to write response")
	}
}

func wantsMsgpack(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if mt == contentTypeMsgpack || mt == "application/x-msgpack" {
			return true
		}
	}
	return false
}

// requestID prefers the caller's X-Request-ID, then the id assigned by the
// router's RequestID middleware, and only then mints a new one.
func requestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Request-ID")); id != "" {
		return id
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}
