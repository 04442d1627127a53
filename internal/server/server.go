package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/versemark/versemark/internal/auth"
	"github.com/versemark/versemark/pkg/dataset"
	"github.com/versemark/versemark/pkg/storage"
)

//go:embed web
var WebFS embed.FS

const (
	sessionCookie = "versemark_session"
	stateCookie   = "versemark_oauth_state"

	limiterIdle = 10 * time.Minute
	sweepPeriod = time.Minute
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Config holds the HTTP-facing settings.
type Config struct {
	PublicURL   string        // e.g. https://versemark.example.org; used for cookies
	SessionTTL  time.Duration // defaults to 30 days
	ToggleRPS   float64       // per-user toggle rate; defaults to 5
	ToggleBurst int           // defaults to 10
}

// Server serves the checklist, its JSON API and the sign-in flow.
type Server struct {
	cfg      Config
	catalog  *dataset.Catalog
	db       *storage.DB
	progress storage.ProgressStore
	auth     *auth.Registry
	log      Logger

	hub          *Hub
	limiter      *limiterPool
	metrics      *metrics
	cookieDomain string
	secure       bool
	mux          *http.ServeMux

	locksMu   sync.Mutex
	userLocks map[string]*userLock
}

// userLock is shared by the requests of one user; refs counts holders and
// waiters so the entry can go once nobody needs it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

// New wires a server. progress may be nil, in which case read markers are
// kept in db.
func New(cfg Config, catalog *dataset.Catalog, db *storage.DB, progress storage.ProgressStore, registry *auth.Registry, log Logger) (*Server, error) {
	if catalog == nil || db == nil || registry == nil {
		return nil, errors.New("server needs a catalog, a database and auth providers")
	}
	if log == nil {
		log = nopLogger{}
	}
	if progress == nil {
		progress = db
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * 24 * time.Hour
	}
	domain, secure, err := cookieSettings(cfg.PublicURL)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:          cfg,
		catalog:      catalog,
		db:           db,
		progress:     progress,
		auth:         registry,
		log:          log,
		limiter:      &limiterPool{rps: cfg.ToggleRPS, burst: cfg.ToggleBurst},
		cookieDomain: domain,
		secure:       secure,
		userLocks:    make(map[string]*userLock),
	}
	s.metrics = newMetrics(catalog)
	s.hub = NewHub(log, s.metrics.wsClients)
	go s.hub.Run()
	go s.sweepLimiters(sweepPeriod)

	catalog.OnReload(func(snap *dataset.Snapshot) {
		s.hub.Send("", event{Type: "reload", Fingerprint: snap.Fingerprint})
	})

	if err := s.routes(); err != nil {
		s.hub.Stop()
		return nil, err
	}
	return s, nil
}

func (s *Server) routes() error {
	mux := http.NewServeMux()

	// Sign-in
	mux.HandleFunc("GET /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("GET /auth/{provider}", s.handleAuthStart)
	mux.HandleFunc("GET /auth/{provider}/redirect", s.handleAuthRedirect)
	mux.HandleFunc("POST /auth/anonymous", s.handleAnonymous)

	// Pages
	mux.HandleFunc("GET /{$}", s.requirePage(s.handleChecklist))

	// API Group
	mux.HandleFunc("GET /api/index", s.handleIndex)
	mux.HandleFunc("GET /api/progress", s.requireAPI(s.handleProgress))
	mux.HandleFunc("POST /api/progress/toggle", s.requireAPI(s.handleToggle))
	mux.HandleFunc("GET /ws", s.requireAPI(s.handleWebSocket))

	// Static Files
	webRoot, err := fs.Sub(WebFS, "web")
	if err != nil {
		return err
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webRoot))))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/", s.handleNotFound)

	s.mux = mux
	return nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Starting server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Infof("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.hub.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the websocket hub.
func (s *Server) Close() {
	s.hub.Stop()
}

// lockUser serializes read-modify-write cycles on one user's progress. The
// returned func releases the lock.
func (s *Server) lockUser(userID string) (unlock func()) {
	s.locksMu.Lock()
	l, ok := s.userLocks[userID]
	if !ok {
		l = &userLock{}
		s.userLocks[userID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.userLocks, userID)
		}
		s.locksMu.Unlock()
	}
}

// sweepLimiters drops idle rate limit buckets until the hub stops.
func (s *Server) sweepLimiters(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-s.hub.done:
			return
		case <-ticker.C:
			if n := s.limiter.sweep(limiterIdle); n > 0 {
				s.log.Debugf("dropped %d idle rate limiters", n)
			}
		}
	}
}
