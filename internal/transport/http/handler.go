package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/app"
	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/domain"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the contest REST API using the {ok, ...} envelope the
// clients expect.
type Handler struct {
	progress *app.ProgressService
	catalog  *app.CatalogService
	payments *app.PaymentService
}

func NewHandler(progress *app.ProgressService, catalog *app.CatalogService, payments *app.PaymentService) *Handler {
	return &Handler{progress: progress, catalog: catalog, payments: payments}
}

// Routes builds the API router. The websocket endpoint is mounted separately
// by the caller so demo setups can run without a broadcaster.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", h.health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/progress/start", h.startProgress)
		r.Post("/progress/finish", h.finishProgress)
		r.Get("/progress/solved", h.solvedProblems)
		r.Get("/leaderboard", h.leaderboard)
		r.Get("/problems", h.listProblems)
		r.Post("/admin/problems", h.addProblem)
		r.Get("/profile", h.profile)
		if h.payments != nil {
			r.Post("/payment/order", h.createOrder)
			r.Post("/payment/verify", h.verifyPayment)
		}
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "now": time.Now().UTC().Format(time.RFC3339)})
}

type progressRequest struct {
	UserID    string `json:"user_id"`
	ProblemID string `json:"problem_id"`
	Solved    *bool  `json:"solved"`
}

func (h *Handler) startProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.progress.Start(r.Context(), req.UserID, req.ProblemID)
	if err != nil {
		writeError(w, err, "Failed to create progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"start_ts": result.StartTS,
		"mode":     result.Mode,
	})
}

func (h *Handler) finishProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	solved := true
	if req.Solved != nil {
		solved = *req.Solved
	}
	result, err := h.progress.Finish(r.Context(), req.UserID, req.ProblemID, solved)
	if err != nil {
		writeError(w, err, "Failed to update progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":               true,
		"progress":         result.Record,
		"mode":             result.Mode,
		"flagged":          result.Flagged,
		"duration_seconds": result.DurationSeconds,
	})
}

func (h *Handler) solvedProblems(w http.ResponseWriter, r *http.Request) {
	ids, err := h.progress.SolvedProblemIDs(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, err, "Failed to fetch solved problems")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "solvedProblemIds": ids})
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.progress.Leaderboard(r.Context())
	if err != nil {
		writeError(w, err, "Failed to fetch leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":          true,
		"leaderboard": lb.Rows,
		"updatedAt":   lb.UpdatedAt,
	})
}

func (h *Handler) listProblems(w http.ResponseWriter, r *http.Request) {
	var week *int
	if raw := r.URL.Query().Get("week"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errBody("week must be a number"))
			return
		}
		week = &parsed
	}
	problems, err := h.catalog.ListProblems(r.Context(), week)
	if err != nil {
		writeError(w, err, "Failed to fetch problems")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "problems": problems})
}

func (h *Handler) addProblem(w http.ResponseWriter, r *http.Request) {
	var p domain.Problem
	if !decodeBody(w, r, &p) {
		return
	}
	inserted, err := h.catalog.AddProblem(r.Context(), p)
	if err != nil {
		writeError(w, err, "Failed to insert problem")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "problem": inserted})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.catalog.Profile(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, err, "Failed to fetch profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "profile": profile})
}

type orderRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	order, err := h.payments.CreateOrder(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err, "Failed to create payment order")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"order_id": order.OrderID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"key_id":   h.payments.KeyID(),
	})
}

type verifyRequest struct {
	UserID            string `json:"user_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" || req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		writeJSON(w, http.StatusBadRequest, errBody("user_id, razorpay_order_id, razorpay_payment_id, razorpay_signature are required"))
		return
	}
	if err := h.payments.Verify(r.Context(), req.UserID, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature); err != nil {
		writeError(w, err, "Failed to verify payment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("invalid JSON body"))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error, serverMsg string) {
	switch {
	case errors.Is(err, domain.ErrParticipantRequired),
		errors.Is(err, domain.ErrProblemRequired),
		errors.Is(err, domain.ErrProblemInvalid),
		errors.Is(err, domain.ErrInvalidSignature):
		writeJSON(w, http.StatusBadRequest, errBody(err.Error()))
	case errors.Is(err, domain.ErrProfileNotFound):
		writeJSON(w, http.StatusNotFound, errBody(err.Error()))
	default:
		log.Printf("%s: %v", serverMsg, err)
		writeJSON(w, http.StatusInternalServerError, errBody(serverMsg))
	}
}

func errBody(msg string) map[string]interface{} {
	return map[string]interface{}{"ok": false, "error": msg}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
