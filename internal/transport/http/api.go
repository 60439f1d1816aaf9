package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"quiz-progress-service/internal/app"
	"quiz-progress-service/internal/domain"
	"quiz-progress-service/internal/economy"
)

// APIHandler serves the read-mostly REST surface next to the websocket.
type APIHandler struct {
	service *app.GameService
	prices  economy.Table
	log     *logrus.Entry
}

func NewAPIHandler(service *app.GameService, prices economy.Table, log *logrus.Entry) *APIHandler {
	if prices == nil {
		prices = economy.DefaultTable
	}
	return &APIHandler{service: service, prices: prices, log: log}
}

type settingBody struct {
	Key   string `json:"key"`
	Value bool   `json:"value"`
}

type coinsBody struct {
	PlayerID string `json:"playerId"`
	Coins    int    `json:"coins"`
}

// ResetPrice handles GET /reset-price?seconds=N.
func (h *APIHandler) ResetPrice(w http.ResponseWriter, r *http.Request) {
	seconds, err := strconv.Atoi(r.URL.Query().Get("seconds"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "seconds must be an integer")
		return
	}
	h.writeJSON(w, http.StatusOK, h.prices.Quote(seconds))
}

// Progress handles GET /players/{playerID}/progress, optionally narrowed with ?mode=.
func (h *APIHandler) Progress(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	if mode := r.URL.Query().Get("mode"); mode != "" {
		mp, err := h.service.Progress(r.Context(), playerID, domain.GameMode(mode))
		if err != nil {
			h.fail(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, mp)
		return
	}
	dash, err := h.service.Dashboard(r.Context(), playerID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dash)
}

func (h *APIHandler) Coins(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")
	coins, err := h.service.Balance(r.Context(), playerID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, coinsBody{PlayerID: playerID, Coins: coins})
}

func (h *APIHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	playerID, key := chi.URLParam(r, "playerID"), chi.URLParam(r, "key")
	v, err := h.service.Setting(r.Context(), playerID, key)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, settingBody{Key: key, Value: v})
}

func (h *APIHandler) PutSetting(w http.ResponseWriter, r *http.Request) {
	playerID, key := chi.URLParam(r, "playerID"), chi.URLParam(r, "key")
	var body settingBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid setting body")
		return
	}
	if err := h.service.SetSetting(r.Context(), playerID, key, body.Value); err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, settingBody{Key: key, Value: body.Value})
}

func (h *APIHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownSetting),
		errors.Is(err, domain.ErrModeNotFound),
		errors.Is(err, domain.ErrLevelNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidPlayer), errors.Is(err, domain.ErrInvalidAmount):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		h.writeError(w, http.StatusPaymentRequired, err.Error())
	default:
		h.log.WithError(err).Error("request failed")
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorPayload{Message: msg})
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.WithError(err).Warn("write response")
	}
}
