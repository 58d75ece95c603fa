package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"course-payment-engine/internal/domain"
	"course-payment-engine/internal/domain/command"
	"course-payment-engine/internal/domain/model"
	"course-payment-engine/internal/domain/query"
	"course-payment-engine/internal/usecase"
)

// Server exposes the dispatcher over a thin JSON surface. All business rules
// live behind the dispatcher; handlers only translate requests and errors.
type Server struct {
	dispatcher *usecase.Dispatcher
	enroll     usecase.EnrollmentProcessor
	log        *zerolog.Logger

	limiter    RequestAllower
	rateLimit  int
	rateWindow time.Duration
}

func NewServer(dispatcher *usecase.Dispatcher, enroll usecase.EnrollmentProcessor, logger *zerolog.Logger) *Server {
	return &Server{dispatcher: dispatcher, enroll: enroll, log: logger}
}

// UseRateLimiter caps /v1 traffic per client IP. A zero limit disables it.
func (s *Server) UseRateLimiter(limiter RequestAllower, limit int, window time.Duration) {
	s.limiter = limiter
	s.rateLimit = limit
	s.rateWindow = window
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		if s.limiter != nil && s.rateLimit > 0 {
			r.Use(RateLimit(s.limiter, s.rateLimit, s.rateWindow, s.log))
		}
		r.Post("/payments/intent", s.handleCreateIntent)
		r.Post("/payments/process", s.handleProcess)
		r.Post("/payments/{id}/refund", s.handleRefund)
		r.Post("/payments/{id}/cancel", s.handleCancel)
		r.Patch("/payments/{id}/status", s.handleUpdateStatus)
		r.Post("/payments/{id}/enrollment/reconcile", s.handleReconcile)

		r.Get("/payments", s.handleList)
		r.Get("/payments/{id}", s.handleGet)
		r.Get("/transactions/{transactionId}/payment", s.handleGetByTransaction)
		r.Get("/users/{id}/payments", s.handleUserPayments)
		r.Get("/stats", s.handleStats)
	})
	return r
}

type paymentRequest struct {
	UserID        string  `json:"user_id"`
	ProductID     string  `json:"product_id"`
	Amount        string  `json:"amount"`
	Currency      string  `json:"currency"`
	Method        string  `json:"method"`
	Gateway       string  `json:"gateway"`
	TransactionID *string `json:"transaction_id,omitempty"`
}

func (s *Server) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}
	p, err := s.dispatcher.Send(r.Context(), command.CreatePaymentIntentCommand{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Amount:    amount,
		Currency:  req.Currency,
		Method:    model.PaymentMethod(req.Method),
	})
	s.writePayment(w, r, p, err, http.StatusCreated)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}
	p, err := s.dispatcher.Send(r.Context(), command.ProcessPaymentCommand{
		UserID:        req.UserID,
		ProductID:     req.ProductID,
		Amount:        amount,
		Currency:      req.Currency,
		Method:        model.PaymentMethod(req.Method),
		Gateway:       req.Gateway,
		TransactionID: req.TransactionID,
	})
	s.writePayment(w, r, p, err, http.StatusCreated)
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefundAmount string `json:"refund_amount"`
		Reason       string `json:"reason"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := decimal.NewFromString(req.RefundAmount)
	if err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}
	p, err := s.dispatcher.Send(r.Context(), command.RefundPaymentCommand{
		PaymentID:    chi.URLParam(r, "id"),
		RefundAmount: amount,
		Reason:       req.Reason,
	})
	s.writePayment(w, r, p, err, http.StatusOK)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.dispatcher.Send(r.Context(), command.CancelPaymentCommand{
		PaymentID: chi.URLParam(r, "id"),
		Reason:    req.Reason,
	})
	s.writePayment(w, r, p, err, http.StatusOK)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status        string  `json:"status"`
		TransactionID *string `json:"transaction_id,omitempty"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.dispatcher.Send(r.Context(), command.UpdatePaymentStatusCommand{
		PaymentID:     chi.URLParam(r, "id"),
		Status:        model.PaymentStatus(req.Status),
		TransactionID: req.TransactionID,
	})
	s.writePayment(w, r, p, err, http.StatusOK)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	grants, err := s.enroll.Reconcile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"created_grants": grants})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	res, err := s.dispatcher.Ask(r.Context(), query.GetPaymentByIDQuery{PaymentID: chi.URLParam(r, "id")})
	s.writeQueryResult(w, r, res, err)
}

func (s *Server) handleGetByTransaction(w http.ResponseWriter, r *http.Request) {
	res, err := s.dispatcher.Ask(r.Context(), query.GetPaymentsByTransactionIDQuery{
		TransactionID: chi.URLParam(r, "transactionId"),
	})
	s.writeQueryResult(w, r, res, err)
}

func (s *Server) handleUserPayments(w http.ResponseWriter, r *http.Request) {
	res, err := s.dispatcher.Ask(r.Context(), query.GetUserPaymentsQuery{UserID: chi.URLParam(r, "id")})
	s.writeQueryResult(w, r, res, err)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := query.GetPaymentsQuery{
		SortBy:        r.URL.Query().Get("sort_by"),
		SortDirection: query.SortDirection(r.URL.Query().Get("sort_dir")),
		Skip:          intParam(r, "skip"),
		Take:          intParam(r, "take"),
	}
	if v := r.URL.Query().Get("status"); v != "" {
		st := model.PaymentStatus(v)
		q.Status = &st
	}
	if v := r.URL.Query().Get("user_id"); v != "" {
		q.UserID = &v
	}
	if v := r.URL.Query().Get("product_id"); v != "" {
		q.ProductID = &v
	}
	if v := r.URL.Query().Get("gateway"); v != "" {
		q.Gateway = &v
	}
	if t, ok := timeParam(r, "start_date"); ok {
		q.StartDate = &t
	}
	if t, ok := timeParam(r, "end_date"); ok {
		q.EndDate = &t
	}
	res, err := s.dispatcher.Ask(r.Context(), q)
	s.writeQueryResult(w, r, res, err)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	start, okStart := timeParam(r, "start_date")
	end, okEnd := timeParam(r, "end_date")
	if !okStart || !okEnd {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}
	res, err := s.dispatcher.Ask(r.Context(), query.GetPaymentStatsQuery{StartDate: start, EndDate: end})
	s.writeQueryResult(w, r, res, err)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return false
	}
	return true
}

func (s *Server) writePayment(w http.ResponseWriter, r *http.Request, p *model.Payment, err error, okStatus int) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, okStatus, p)
}

func (s *Server) writeQueryResult(w http.ResponseWriter, r *http.Request, res any, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if p, ok := res.(*model.Payment); ok && p == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// writeError maps the domain taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateTransaction), errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrGatewayUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func intParam(r *http.Request, name string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(name))
	return v
}

func timeParam(r *http.Request, name string) (time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
