package mockbackend

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/amobagan/nutristream/component"
	"github.com/amobagan/nutristream/logger"
	"github.com/amobagan/nutristream/observability"
	"github.com/amobagan/nutristream/version"
)

// StreamPath is where the analysis WebSocket is served.
const StreamPath = "/ws/nutrition/stream"

const serviceName = "nutrition-mock"

// HealthChecker reports the health of components beside the server.
type HealthChecker func(ctx context.Context) []component.Health

// Server serves the mock analysis API. Gin handles the routes; the engine
// sits under an http.ServeMux wrapped for HTTP/2 cleartext.
type Server struct {
	cfg      Config
	log      *logger.Logger
	analyzer Analyzer
	verifier *TokenVerifier
	engine   *gin.Engine
	handler  http.Handler
	upgrader websocket.Upgrader
	limiter  *requestLimiter
	started  time.Time

	baseCtx    context.Context
	cancelBase context.CancelFunc
	streams    sync.WaitGroup

	mu         sync.Mutex
	health     HealthChecker
	httpServer *http.Server
	listener   net.Listener
	conns      map[*websocket.Conn]struct{}
	stopped    bool
}

// NewServer builds the server and registers its routes. log may be nil.
func NewServer(cfg Config, analyzer Analyzer, verifier *TokenVerifier, log *logger.Logger) *Server {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	mux := http.NewServeMux()
	mux.Handle("/", engine)
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:        cfg,
		log:        log.WithComponent("mockbackend"),
		analyzer:   analyzer,
		verifier:   verifier,
		engine:     engine,
		handler:    h2c.NewHandler(mux, h2s),
		limiter:    newRequestLimiter(cfg.RequestsPerMinute, cfg.RequestBurst),
		started:    time.Now(),
		baseCtx:    baseCtx,
		cancelBase: cancel,
		conns:      make(map[*websocket.Conn]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		HandshakeTimeout: cfg.ReadTimeout,
		CheckOrigin:      func(*http.Request) bool { return true },
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.Use(recovery(s.log), requestID(), requestLogger(s.log))

	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/info", s.handleInfo)
	s.engine.GET(StreamPath, s.handleStream)

	products := s.engine.Group("/products", bearerAuth(s.verifier))
	products.GET("/:barcode/nutrition", s.handleNutrition)
}

// Handler is the root handler, usable with httptest.
func (s *Server) Handler() http.Handler { return s.handler }

// SetHealthChecker adds component results to /health.
func (s *Server) SetHealthChecker(h HealthChecker) {
	s.mu.Lock()
	s.health = h
	s.mu.Unlock()
}

// ActiveStreams is the number of open WebSocket connections.
func (s *Server) ActiveStreams() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Start binds the port and serves in a goroutine. It returns once the
// listener is bound.
func (s *Server) Start(_ context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	s.mu.Lock()
	s.httpServer = srv
	s.listener = ln
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	s.log.Info("mock backend listening", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Addr is the bound address after Start, else the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
}

// Stop closes every stream with a going-away frame and shuts the HTTP
// server down with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	srv := s.httpServer
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	s.cancelBase()
	deadline := time.Now().Add(time.Second)
	for _, c := range conns {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), deadline)
		_ = c.Close()
	}

	var err error
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err = srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("shutdown error", logger.Fields(logger.FieldError, err.Error()))
			err = fmt.Errorf("server shutdown: %w", err)
		}
	}
	s.streams.Wait()
	s.log.Info("mock backend stopped")
	return err
}

func (s *Server) track(c *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.conns[c] = struct{}{}
	s.streams.Add(1)
	return true
}

func (s *Server) untrack(c *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.streams.Done()
}

func (s *Server) handleHealth(c *gin.Context) {
	sh := observability.NewServiceHealth(serviceName, version.Get().Version)
	sh.AddComponent(observability.Health{
		Name:    "streams",
		Status:  observability.HealthStatusUp,
		Message: fmt.Sprintf("%d active", s.ActiveStreams()),
	})

	s.mu.Lock()
	checker := s.health
	s.mu.Unlock()
	if checker != nil {
		for _, h := range checker(c.Request.Context()) {
			sh.AddComponent(observability.Health{Name: h.Name, Status: toServiceStatus(h.Status), Message: h.Message})
		}
	}

	status := http.StatusOK
	if sh.Status == observability.HealthStatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, sh)
}

func toServiceStatus(st component.HealthStatus) observability.HealthStatus {
	switch st {
	case component.StatusHealthy:
		return observability.HealthStatusUp
	case component.StatusDegraded:
		return observability.HealthStatusDegraded
	default:
		return observability.HealthStatusDown
	}
}

func (s *Server) handleInfo(c *gin.Context) {
	v := version.Get()
	c.JSON(http.StatusOK, gin.H{
		"service":    serviceName,
		"version":    v.Version,
		"git_commit": v.GitCommit,
		"build_time": v.BuildTime,
		"go_version": v.GoVersion,
		"dirty":      v.Dirty,
		"uptime":     time.Since(s.started).String(),
	})
}

// nutritionResponse is the JSON form of a full analysis.
type nutritionResponse struct {
	Analysis
	Report string `json:"report"`
}

func (s *Server) handleNutrition(c *gin.Context) {
	a, err := s.analyzer.Analyze(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, DataResponse{Data: nutritionResponse{Analysis: a, Report: a.Report()}})
}
