// Package server exposes the calculator over a JSON HTTP API: a stateless
// conversion endpoint and per-session endpoints driving the reducer.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/currency-calculator/internal/calculator"
	"github.com/iwvelando/currency-calculator/internal/session"
	"github.com/iwvelando/currency-calculator/pkg/constants"
	"github.com/iwvelando/currency-calculator/pkg/currency"
	"go.uber.org/zap"
)

type handler struct {
	logger   *zap.Logger
	sessions *session.Store
	defaults calculator.RateTable
	version  string
}

// Options configures NewHandler.
type Options struct {
	MaxBodySize int64
	Version     string
	Defaults    calculator.RateTable
}

// NewHandler constructs the HTTP handler that serves the calculator API.
func NewHandler(logger *zap.Logger, sessions *session.Store, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = constants.DefaultMaxBodySizeBytes
	}
	if opts.Defaults.IsZero() {
		opts.Defaults = calculator.DefaultRates()
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:   logger,
		sessions: sessions,
		defaults: opts.Defaults,
		version:  trimmedVersion,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(requestLoggingMiddleware(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(bodyLimitMiddleware(opts.MaxBodySize))

	r.Get("/healthz", h.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.handleVersion)
		r.Get("/currencies", h.handleCurrencies)
		r.Post("/convert", h.handleConvert)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.handleCreateSession)
			r.Get("/{id}", h.handleGetSession)
			r.Delete("/{id}", h.handleDeleteSession)
			r.Post("/{id}/actions", h.handleSessionAction)
		})
	})

	return r
}

// amountField accepts either a JSON string or a JSON number.
type amountField string

func (a *amountField) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*a = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("amount must be a string or a number: %w", err)
	}
	*a = amountField(n.String())
	return nil
}

type convertRequest struct {
	Amount   amountField        `json:"amount"`
	Currency string             `json:"currency"`
	Rates    map[string]float64 `json:"rates,omitempty"`
}

type convertResponse struct {
	Amount   float64              `json:"amount"`
	Currency currency.Code        `json:"currency"`
	Result   calculator.Result    `json:"result"`
	Rows     []calculator.Row     `json:"rows"`
	Rates    calculator.RateTable `json:"rates"`
	BaseLine string               `json:"baseLine"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type sessionResponse struct {
	ID   string          `json:"id"`
	View calculator.View `json:"view"`
}

type actionRequest struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

func (h *handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"base":       currency.THB,
		"currencies": currency.All(),
		"min":        constants.MinInputValue,
		"max":        constants.MaxInputValue,
	})
}

func (h *handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConvert"

	var req convertRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	code := currency.THB
	if strings.TrimSpace(req.Currency) != "" {
		parsed, err := currency.ParseCode(req.Currency)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		code = parsed
	}

	rates := h.defaults
	if len(req.Rates) > 0 {
		table, err := parseRates(req.Rates)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		rates = table
	}

	amount, err := calculator.ValidateInput(string(req.Amount))
	if err != nil {
		h.respondValidationError(w, err, op)
		return
	}

	result := calculator.Convert(amount, rates, code)
	h.logger.Debug("conversion computed",
		zap.String("op", op),
		zap.Float64("amount", amount),
		zap.Stringer("currency", code),
	)

	h.writeJSON(w, http.StatusOK, convertResponse{
		Amount:   amount,
		Currency: code,
		Result:   result,
		Rows:     calculator.BuildRows(result, code, amount, rates, true),
		Rates:    rates,
		BaseLine: rates.String(),
	})
}

func parseRates(raw map[string]float64) (calculator.RateTable, error) {
	rates := make(map[currency.Code]float64, len(raw))
	for key, value := range raw {
		code, err := currency.ParseCode(key)
		if err != nil {
			return calculator.RateTable{}, err
		}
		rates[code] = value
	}
	return calculator.NewRateTable(rates)
}

func (h *handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreateSession"

	id, state, err := h.sessions.Create()
	if err != nil {
		h.respondError(w, http.StatusServiceUnavailable, err.Error(), op)
		return
	}
	h.logger.Info("session created",
		zap.String("op", op),
		zap.String("session", id),
		zap.String("request_id", RequestIDFromContext(r.Context())),
	)
	h.writeJSON(w, http.StatusCreated, sessionResponse{ID: id, View: state.View()})
}

func (h *handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetSession"

	id := chi.URLParam(r, "id")
	state, err := h.sessions.Get(id)
	if err != nil {
		h.respondSessionError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, sessionResponse{ID: id, View: state.View()})
}

func (h *handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteSession"

	if err := h.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		h.respondSessionError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleSessionAction(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSessionAction"

	var req actionRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	action, err := h.buildAction(req)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	id := chi.URLParam(r, "id")
	state, err := h.sessions.Apply(id, action)
	if errors.Is(err, session.ErrNotFound) {
		h.respondSessionError(w, err, op)
		return
	}
	if err != nil {
		// ignored rate overrides are not reported to the client
		h.logger.Debug("session action ignored",
			zap.String("op", op),
			zap.String("session", id),
			zap.String("action", req.Type),
			zap.Error(err),
		)
	}

	h.writeJSON(w, http.StatusOK, sessionResponse{ID: id, View: state.View()})
}

func (h *handler) buildAction(req actionRequest) (session.Action, error) {
	pure := func(f func(calculator.State) calculator.State) session.Action {
		return func(s calculator.State) (calculator.State, error) {
			return f(s), nil
		}
	}

	switch req.Type {
	case "setAmount":
		return pure(func(s calculator.State) calculator.State { return s.SetAmount(req.Value) }), nil
	case "selectCurrency":
		code, err := currency.ParseCode(firstNonEmpty(req.Currency, req.Value))
		if err != nil {
			return nil, err
		}
		return pure(func(s calculator.State) calculator.State { return s.SelectCurrency(code) }), nil
	case "calculate":
		return pure(calculator.State.Calculate), nil
	case "setPendingRate":
		code, err := currency.ParseCode(req.Currency)
		if err != nil {
			return nil, err
		}
		if code.IsBase() {
			return nil, fmt.Errorf("%s is the base currency and has no rate override", code)
		}
		return pure(func(s calculator.State) calculator.State { return s.SetPendingRate(code, req.Value) }), nil
	case "applyRates":
		return calculator.State.ApplyRates, nil
	case "reset":
		return pure(calculator.State.Reset), nil
	case "toggleSettings":
		return pure(calculator.State.ToggleSettings), nil
	case "":
		return nil, errors.New("missing action type")
	}
	return nil, fmt.Errorf("unknown action type %s", strconv.Quote(req.Type))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", maxBytesErr.Limit), op)
			return false
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) respondValidationError(w http.ResponseWriter, err error, op string) {
	var verr *calculator.ValidationError
	if !errors.As(err, &verr) {
		h.respondError(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	h.logger.Debug("amount rejected",
		zap.String("op", op),
		zap.Stringer("kind", verr.Kind),
	)
	h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Kind: verr.Kind.String()})
}

func (h *handler) respondSessionError(w http.ResponseWriter, err error, op string) {
	if errors.Is(err, session.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, "session not found", op)
		return
	}
	h.respondError(w, http.StatusInternalServerError, err.Error(), op)
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Warn("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
