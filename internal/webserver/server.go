// Package webserver serves the delegation dashboard to browsers: a static
// page, a JSON API, live updates over WebSocket and Prometheus metrics.
package webserver

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/stakingagency/delegation-dashboard/internal/apr"
	"github.com/stakingagency/delegation-dashboard/internal/delegation"
	"github.com/stakingagency/delegation-dashboard/internal/metrics"
)

//go:embed static
var staticFiles embed.FS

// SnapshotService is the part of delegation.Service the server needs
type SnapshotService interface {
	Snapshot(ctx context.Context) (delegation.Snapshot, error)
	Refresh(ctx context.Context) (delegation.Snapshot, error)
	Cached() (delegation.Snapshot, bool)
	Contract() string
}

// Options configures a Server
type Options struct {
	Listen         string
	RefreshCron    string
	AllowedOrigins []string
	Network        string
	Version        string
	RefreshTimeout time.Duration
	Logger         *logrus.Logger
	Metrics        *metrics.Recorder
}

// Server is the HTTP side of the dashboard
type Server struct {
	svc     SnapshotService
	opts    Options
	log     *logrus.Logger
	metrics *metrics.Recorder
	hub     *hub
	cron    *cron.Cron
	started time.Time
}

// New validates opts and builds a server. Nothing listens until Serve.
func New(svc SnapshotService, opts Options) (*Server, error) {
	if svc == nil {
		return nil, errors.New("webserver: nil snapshot service")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
		opts.Logger.SetOutput(io.Discard)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRecorder()
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 20 * time.Second
	}
	if opts.RefreshCron == "" {
		opts.RefreshCron = "@every 30s"
	}
	if _, err := cron.ParseStandard(opts.RefreshCron); err != nil {
		return nil, fmt.Errorf("refresh_cron %q: %w", opts.RefreshCron, err)
	}

	cronLog := cron.PrintfLogger(opts.Logger)
	s := &Server{
		svc:     svc,
		opts:    opts,
		log:     opts.Logger,
		metrics: opts.Metrics,
		cron:    cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.SkipIfStillRunning(cronLog))),
		started: time.Now(),
	}
	s.hub = newHub(opts.Logger, s.checkOrigin)
	if _, err := s.cron.AddFunc(opts.RefreshCron, func() { s.RefreshNow(context.Background()) }); err != nil {
		return nil, fmt.Errorf("register refresh job: %w", err)
	}
	return s, nil
}

// Handler returns the routed and wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/apr", s.handleAPR).Methods(http.MethodGet)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	router.HandleFunc("/ws", s.handleWS)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	static, _ := fs.Sub(staticFiles, "static")
	router.PathPrefix("/").Handler(http.FileServer(http.FS(static))).Methods(http.MethodGet)

	var h http.Handler = router
	if len(s.opts.AllowedOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.opts.AllowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		)(h)
	}
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(s.log),
		handlers.PrintRecoveryStack(s.log.IsLevelEnabled(logrus.DebugLevel)),
	)(h)
	return h
}

// RefreshNow fetches a new snapshot and pushes it to metrics and browsers.
// Failures are logged; the last good snapshot stays in place.
func (s *Server) RefreshNow(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.RefreshTimeout)
	defer cancel()

	snap, err := s.svc.Refresh(ctx)
	if err != nil {
		s.log.WithError(err).Warn("Scheduled refresh failed")
		return
	}
	s.metrics.ObserveSnapshot(snap)
	s.hub.broadcast(snap)
}

// Run listens on the configured address and serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	accessLog := s.log.WriterLevel(logrus.DebugLevel)
	defer accessLog.Close()

	httpSvr := &http.Server{
		Handler:           handlers.CombinedLoggingHandler(accessLog, s.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.cron.Start()
	go s.RefreshNow(ctx)

	s.log.WithFields(logrus.Fields{
		"addr":     ln.Addr().String(),
		"contract": s.svc.Contract(),
		"refresh":  s.opts.RefreshCron,
	}).Info("Dashboard web server listening")

	errCh := make(chan error, 1)
	go func() {
		if err := httpSvr.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	<-s.cron.Stop().Done()
	s.hub.shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSvr.Shutdown(shutdownCtx); err != nil {
		s.log.WithError(err).Error("Web server shutdown failed")
	}
	s.log.Info("Dashboard web server stopped")
	return serveErr
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.opts.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	// Same host is always fine
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type aprResponse struct {
	Contract  string         `json:"contract"`
	Epoch     int64          `json:"epoch"`
	APR       apr.Estimate   `json:"apr"`
	Breakdown *apr.Breakdown `json:"breakdown,omitempty"`
	FetchedAt time.Time      `json:"fetched_at"`
}

func (s *Server) handleAPR(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	resp := aprResponse{
		Contract:  snap.Contract,
		Epoch:     snap.Epoch,
		APR:       snap.APR,
		FetchedAt: snap.FetchedAt,
	}
	if r.URL.Query().Get("explain") != "" {
		resp.Breakdown = &snap.Breakdown
	}
	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	OK           bool       `json:"ok"`
	Network      string     `json:"network,omitempty"`
	Contract     string     `json:"contract"`
	Version      string     `json:"version,omitempty"`
	Uptime       string     `json:"uptime"`
	Clients      int        `json:"clients"`
	LastSnapshot *time.Time `json:"last_snapshot,omitempty"`
}

// handleHealth reports 503 until the first snapshot has been fetched
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Network:  s.opts.Network,
		Contract: s.svc.Contract(),
		Version:  s.opts.Version,
		Uptime:   time.Since(s.started).Round(time.Second).String(),
		Clients:  s.hub.count(),
	}
	status := http.StatusServiceUnavailable
	if snap, ok := s.svc.Cached(); ok {
		resp.OK = true
		resp.LastSnapshot = &snap.FetchedAt
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	var initial []byte
	if snap, ok := s.svc.Cached(); ok {
		if b, err := json.Marshal(snapshotEvent(snap)); err == nil {
			initial = b
		}
	}
	s.hub.serve(w, r, initial)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
