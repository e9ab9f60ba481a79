// Package api serves the dashboard: a small JSON REST surface for
// point-in-time reads and a websocket stream for frames and events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/quantclass/chartsim/internal/app"
	"github.com/quantclass/chartsim/internal/bias"
	"github.com/quantclass/chartsim/internal/indicator"
	"github.com/quantclass/chartsim/internal/market"
	"github.com/quantclass/chartsim/internal/trading"
)

// AppState exposes the session's state and commands to the API layer.
type AppState interface {
	Status() app.Status
	Candles() []market.Candle
	Account() trading.Snapshot
	Trades() []trading.Trade
	Indicators() []indicator.Explanation
	OpenPosition(direction string, quantity, confidence float64) (trading.Position, error)
	ClosePosition() (trading.Trade, []bias.Flag, error)
	PointerMove(x, y float64)
	PointerLeave()
	Resize(width, height float64)
}

// Server is the HTTP front of one simulator session.
type Server struct {
	httpServer *http.Server
	state      AppState
	hub        *Hub
	startedAt  time.Time
}

// NewServer wires the REST routes and the websocket endpoint. The hub
// may be nil when streaming is disabled.
func NewServer(addr string, state AppState, hub *Hub) *Server {
	s := &Server{
		state:     state,
		hub:       hub,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/candles", s.handleCandles)
	mux.HandleFunc("/api/position", s.handlePosition)
	mux.HandleFunc("/api/trades", s.handleTrades)
	mux.HandleFunc("/api/indicators", s.handleIndicators)
	mux.HandleFunc("/api/open", s.handleOpen)
	mux.HandleFunc("/api/close", s.handleClose)
	if hub != nil {
		mux.HandleFunc("/ws", hub.handleWS)
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins serving HTTP requests.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("api server listening", "addr", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("api server", "err", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.CloseAll()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// GET /api/health — liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]any{
		"ok":       true,
		"uptime_s": time.Since(s.startedAt).Seconds(),
	})
}

// GET /api/status — session summary.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.state.Status())
}

// GET /api/candles?limit=120 — the trailing candle series.
func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	candles := s.state.Candles()
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < len(candles) {
			candles = candles[len(candles)-n:]
		}
	}
	s.writeJSON(w, map[string]any{"candles": candles, "count": len(candles)})
}

// GET /api/position — account state and the open position, if any.
func (s *Server) handlePosition(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.state.Account())
}

// GET /api/trades?limit=50 — closed trades, oldest first.
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	trades := s.state.Trades()
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < len(trades) {
			trades = trades[len(trades)-n:]
		}
	}
	s.writeJSON(w, map[string]any{"trades": trades, "count": len(trades)})
}

// GET /api/indicators — explained indicator values over the series.
func (s *Server) handleIndicators(w http.ResponseWriter, _ *http.Request) {
	explained := s.state.Indicators()
	s.writeJSON(w, map[string]any{"indicators": explained, "count": len(explained)})
}

type openRequest struct {
	Direction  string  `json:"direction"`
	Quantity   float64 `json:"quantity"`
	Confidence float64 `json:"confidence"`
}

// POST /api/open — open a position at the current market price.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	pos, err := s.state.OpenPosition(req.Direction, req.Quantity, req.Confidence)
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, trading.ErrInvalidState) {
			code = http.StatusConflict
		}
		s.writeError(w, code, err)
		return
	}
	s.writeJSON(w, pos)
}

// POST /api/close — close the open position.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	trade, flags, err := s.state.ClosePosition()
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, trading.ErrInvalidState) {
			code = http.StatusConflict
		}
		s.writeError(w, code, err)
		return
	}
	s.writeJSON(w, map[string]any{"trade": trade, "bias_flags": flags})
}
