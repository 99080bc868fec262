package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"ratesync-service/internal/application"
	"ratesync-service/internal/domain"
	"ratesync-service/internal/infrastructure/logx"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sessionHeader     = "X-Session-ID"
	idempotencyHeader = "X-Idempotency-Key"

	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

type Server struct {
	def     *application.RateSynchronizer
	host    *application.SessionHost
	idem    application.IdempotencyStore
	history application.HistoryRepo
	ping    func(ctx context.Context) error
	metrics http.Handler
}

// NewServer serves def to callers without a session and host's synchronizers to the rest.
func NewServer(def *application.RateSynchronizer, host *application.SessionHost) *Server {
	return &Server{def: def, host: host, idem: application.NoopIdempotency{}}
}

func (s *Server) SetReadyCheck(fn func(ctx context.Context) error) { s.ping = fn }
func (s *Server) SetIdempotency(st application.IdempotencyStore)   { s.idem = st }
func (s *Server) SetHistory(repo application.HistoryRepo)          { s.history = repo }
func (s *Server) SetMetrics(h http.Handler)                        { s.metrics = h }

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

type convertResponse struct {
	Amount    float64 `json:"amount"`
	Converted float64 `json:"converted"`
	Rate      float64 `json:"rate"`
	Formatted string  `json:"formatted"`
}

type formatResponse struct {
	Amount    float64 `json:"amount"`
	Formatted string  `json:"formatted"`
}

type historyItem struct {
	Pair     string  `json:"pair"`
	Price    float64 `json:"price"`
	QuotedAt string  `json:"quoted_at"`
	Source   string  `json:"source"`
}

func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	if _, err := s.host.Open(id); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{SessionID: id})
}

func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.host.Close(chi.URLParam(r, "id")); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) GetRate(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.resolve(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rs.CurrentRate())
}

func (s *Server) RefreshRate(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.resolve(w, r)
	if !ok {
		return
	}
	if key := r.Header.Get(idempotencyHeader); key != "" {
		fresh, err := s.idem.TryReserve(r.Context(), application.RefreshKey(r.Header.Get(sessionHeader), key))
		if err != nil {
			logx.WithFields(r.Context()).Warn("idempotency.reserve_failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "idempotency store unavailable")
			return
		}
		if !fresh {
			writeAppError(w, application.ErrConflict)
			return
		}
	}
	rs.RefreshAsync(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusAccepted, rs.CurrentRate())
}

func (s *Server) ConvertAmount(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.resolve(w, r)
	if !ok {
		return
	}
	amount, ok := amountParam(w, r)
	if !ok {
		return
	}
	rate := rs.CurrentRate().Rate
	converted := amount * rate
	if math.IsInf(converted, 0) {
		writeError(w, http.StatusBadRequest, "amount out of range")
		return
	}
	writeJSON(w, http.StatusOK, convertResponse{
		Amount:    amount,
		Converted: converted,
		Rate:      rate,
		Formatted: rs.Format(converted),
	})
}

func (s *Server) FormatAmount(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.resolve(w, r)
	if !ok {
		return
	}
	amount, ok := amountParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, formatResponse{Amount: amount, Formatted: rs.Format(amount)})
}

func (s *Server) ListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeAppError(w, application.ErrHistoryDisabled)
		return
	}
	rs, ok := s.resolve(w, r)
	if !ok {
		return
	}
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	rows, err := s.history.ListHistory(r.Context(), string(rs.Pair()), limit)
	if err != nil {
		logx.WithFields(r.Context()).Error("history.list_failed", zap.Error(err))
		writeAppError(w, err)
		return
	}
	out := make([]historyItem, 0, len(rows))
	for _, h := range rows {
		out = append(out, historyItem{
			Pair:     string(h.Pair),
			Price:    h.Price,
			QuotedAt: h.QuotedAt.UTC().Format(time.RFC3339),
			Source:   h.Source,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// resolve picks the caller's synchronizer. It writes the error response itself when it returns false.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request) (*application.RateSynchronizer, bool) {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		return s.def, true
	}
	rs, err := s.host.Get(id)
	if err != nil {
		writeAppError(w, err)
		return nil, false
	}
	return rs, true
}

func amountParam(w http.ResponseWriter, r *http.Request) (float64, bool) {
	raw := r.URL.Query().Get("amount")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "amount is required")
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a number")
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		writeError(w, http.StatusBadRequest, "amount must be finite")
		return 0, false
	}
	return v, true
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes before writing the status so an unencodable value becomes a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logx.L().Error("http.encode_failed", zap.Error(err))
		status = http.StatusInternalServerError
		body = []byte(`{"code":500,"message":"Internal Server Error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}

func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrNotFound), errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, application.ErrConflict):
		writeError(w, http.StatusConflict, "duplicate request")
	case errors.Is(err, application.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad request")
	case errors.Is(err, application.ErrTooManySessions):
		writeError(w, http.StatusServiceUnavailable, "too many sessions")
	case errors.Is(err, application.ErrHistoryDisabled):
		writeError(w, http.StatusNotImplemented, "history is disabled")
	default:
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
