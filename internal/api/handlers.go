package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"paper-trading-go/internal/ledger"
	"paper-trading-go/internal/marketdata"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler holds dependencies for the API endpoints.
type Handler struct {
	log      *zap.Logger
	engine   *ledger.Engine
	accounts *ledger.AccountService
	oracle   *marketdata.Oracle
}

// NewHandler creates a new Handler.
func NewHandler(log *zap.Logger, engine *ledger.Engine, accounts *ledger.AccountService, oracle *marketdata.Oracle) *Handler {
	return &Handler{log: log, engine: engine, accounts: accounts, oracle: oracle}
}

type errorResponse struct {
	Error string      `json:"error"`
	Kind  ledger.Kind `json:"kind"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps a ledger error kind to a transport status. Business
// rejections are client errors; conflicts and oracle outages are 503 so the
// client knows a retry may succeed.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := ledger.KindOf(err)

	var status int
	switch kind {
	case ledger.KindNotFound:
		status = http.StatusNotFound
	case ledger.KindDuplicateUsername:
		status = http.StatusConflict
	case ledger.KindInvalidOrder, ledger.KindInsufficientFunds, ledger.KindInsufficientPosition:
		status = http.StatusBadRequest
	case ledger.KindPriceUnavailable, ledger.KindStorageConflict:
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusInternalServerError
	}

	h.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

// HealthHandler reports service status and provider health.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	providers := make(map[string]string)
	for name, err := range h.oracle.Health(r.Context()) {
		if err != nil {
			providers[name] = err.Error()
		} else {
			providers[name] = "ok"
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "paper-trading-service",
		"timestamp": time.Now().Format(time.RFC3339),
		"providers": providers,
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// RegisterHandler creates a new user with a funded virtual account.
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: ledger.KindInvalidOrder})
		return
	}

	reg, err := h.accounts.Register(r.Context(), req.Username, req.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, reg)
}

type tradeRequest struct {
	AccountID string `json:"account_id"`
	StockCode string `json:"stock_code"`
	TradeType string `json:"trade_type"`
	Quantity  int64  `json:"quantity"`
}

// TradeHandler executes a buy or sell order.
func (h *Handler) TradeHandler(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: ledger.KindInvalidOrder})
		return
	}

	result, err := h.engine.ExecuteTrade(r.Context(), req.AccountID, req.StockCode, req.TradeType, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// AccountHandler returns the account snapshot with derived total assets.
func (h *Handler) AccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	snapshot, err := h.accounts.GetAccountSnapshot(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, snapshot)
}

// TradesHandler returns recent trade history, newest first.
func (h *Handler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	trades, err := h.accounts.GetTradeHistory(r.Context(), accountID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"trades": trades,
		"total":  len(trades),
	})
}

// MarketHandler returns the current quote for a symbol, degraded or not.
func (h *Handler) MarketHandler(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	quote, err := h.oracle.GetQuote(r.Context(), symbol)
	if err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Kind: ledger.KindPriceUnavailable})
		return
	}

	h.writeJSON(w, http.StatusOK, quote)
}
