package handler

import (
	"log/slog"
	"net/http"

	"fsanano/shop-api/internal/service"

	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	svc    *service.OrderService
	logger *slog.Logger
}

func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{svc: svc, logger: logger}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrderInput
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.svc.Place(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateOrderInput
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) LastSevenDays(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.LastSevenDays(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ByUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) BuyersOf(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.BuyersOf(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
