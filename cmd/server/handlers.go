package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"marketdata/internal/provider"
)

const maxSymbols = 1000

// quoteService is the slice of service.Service the handlers use.
type quoteService interface {
	GetPriceWithCache(ctx context.Context, symbol string, class provider.AssetClass) (*provider.Quote, error)
	BatchFetchPrices(ctx context.Context, stocks, crypto []string) map[string]*provider.Quote
	GetAPIStats() []provider.ClassStats
	GetPublicAPIStatus() map[string]provider.PublicStatus
}

type handlers struct {
	svc    quoteService
	logger zerolog.Logger
}

type quotesResponse struct {
	Quotes map[string]*provider.Quote `json:"quotes"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newRouter(svc quoteService, gatherer prometheus.Gatherer, logger zerolog.Logger) *mux.Router {
	h := &handlers{svc: svc, logger: logger}
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/price/{class}/{symbol}", h.getPrice).Methods(http.MethodGet)
	r.HandleFunc("/api/prices", h.getPrices).Methods(http.MethodGet)
	r.HandleFunc("/api/status", h.getStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", h.getStats).Methods(http.MethodGet)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}

func (h *handlers) getPrice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	class, err := provider.ParseAssetClass(vars["class"])
	if err != nil || (class != provider.Stocks && class != provider.Crypto) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "class must be stocks or crypto"})
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(vars["symbol"]))
	q, err := h.svc.GetPriceWithCache(r.Context(), symbol, class)
	switch {
	case errors.Is(err, provider.ErrExhausted) || (err == nil && q == nil):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no price available for " + symbol})
		return
	case err != nil && r.Context().Err() != nil:
		h.logger.Debug().Err(err).Str("symbol", symbol).Msg("client went away")
		return
	case err != nil:
		h.logger.Error().Err(err).Str("symbol", symbol).Msg("price lookup failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "price lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *handlers) getPrices(w http.ResponseWriter, r *http.Request) {
	stocks := splitCSV(strings.ToUpper(r.URL.Query().Get("stocks")))
	crypto := splitCSV(strings.ToUpper(r.URL.Query().Get("crypto")))
	if len(stocks)+len(crypto) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing stocks or crypto query param"})
		return
	}
	if len(stocks)+len(crypto) > maxSymbols {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "too many symbols (max 1000)"})
		return
	}
	writeJSON(w, http.StatusOK, quotesResponse{Quotes: h.svc.BatchFetchPrices(r.Context(), stocks, crypto)})
}

func (h *handlers) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetPublicAPIStatus())
}

func (h *handlers) getStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetAPIStats())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
