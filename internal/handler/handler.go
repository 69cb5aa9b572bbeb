package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Logger         *slog.Logger
	Store          Pinger
	RequestTimeout time.Duration
}

type Handler struct {
	router *chi.Mux
	logger *slog.Logger
	store  Pinger

	users    *UserHandler
	products *ProductHandler
	orders   *OrderHandler
}

func NewHandler(opts Options, users *UserHandler, products *ProductHandler, orders *OrderHandler) *Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		router.Use(middleware.Timeout(opts.RequestTimeout))
	}
	router.Use(newCompressor().Handler)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		router:   router,
		logger:   logger,
		store:    opts.Store,
		users:    users,
		products: products,
		orders:   orders,
	}

	h.registerRoutes()
	return h
}

// newCompressor compresses JSON responses, preferring brotli when the client
// accepts it.
func newCompressor() *middleware.Compressor {
	c := middleware.NewCompressor(5, "application/json")
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c
}

func (h *Handler) registerRoutes() {
	h.router.Get("/health", h.HealthCheck)

	h.router.Route("/users", func(r chi.Router) {
		r.Post("/", h.users.Create)
		r.Get("/", h.users.List)
		r.Put("/{id}", h.users.Update)
	})

	h.router.Route("/products", func(r chi.Router) {
		r.Post("/", h.products.Create)
		r.Get("/", h.products.List)
		r.Get("/total-stock", h.products.TotalStock)
		r.Put("/{id}", h.products.Update)
	})

	h.router.Route("/orders", func(r chi.Router) {
		r.Post("/", h.orders.Create)
		r.Get("/", h.orders.List)
		r.Get("/last-7-days", h.orders.LastSevenDays)
		r.Get("/user/{userId}", h.orders.ByUser)
		r.Get("/users/bought/{productId}", h.orders.BuyersOf)
		r.Put("/{id}", h.orders.Update)
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			h.logger.Error("health check failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("UNAVAILABLE"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
