package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"choliday/internal/config"
	"choliday/internal/judge"
	appLog "choliday/internal/log"
	"choliday/internal/workday"
)

// Server exposes the day verdict over HTTP.
type Server struct {
	cfg      *config.Config
	analyzer *judge.Analyzer
	workdays map[time.Weekday]bool
	mux      *http.ServeMux

	// now is replaceable in tests.
	now func() time.Time
}

// NewServer constructs a new Server around a shared Analyzer.
func NewServer(cfg *config.Config, analyzer *judge.Analyzer) *Server {
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		workdays: cfg.Workdays(),
		mux:      http.NewServeMux(),
		now:      time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Serve.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.Serve.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.Serve.BasicAuth.Username
	password := s.cfg.Serve.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="choliday", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Serve.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Serve.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/day", s.handleDay)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// dayResponse is the JSON response shape for /api/day.
type dayResponse struct {
	Date    time.Time `json:"date"`
	DayType string    `json:"day_type"`
	WorkDay bool      `json:"work_day"`
}

// handleDay answers whether a date is a work day.
//
// GET /api/day?date=20250101
//   - date: "today" (default), YYYYMMDD, YYYYMMDDHHMMSS or UNIX milliseconds
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	at, err := workday.ParseDate(r.URL.Query().Get("date"), s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dt := s.analyzer.Judge(r.Context(), &at)
	resp := dayResponse{
		Date:    at,
		DayType: dt.String(),
		WorkDay: workday.Decide(dt, at, s.workdays),
	}

	appLog.Debug("api day request", "date", at.Format(time.RFC3339), "day_type", resp.DayType, "work_day", resp.WorkDay)
	writeJSON(w, http.StatusOK, resp)
}

// refreshResponse is the JSON response shape for /api/refresh.
type refreshResponse struct {
	Events int `json:"events"`
}

// handleRefresh re-fetches every source right away.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	n := s.analyzer.Refresh(r.Context())
	appLog.Info("api refresh", "events", n)
	writeJSON(w, http.StatusOK, refreshResponse{Events: n})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
