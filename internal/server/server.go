package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/xorcism-go/internal/auth"
	"github.com/xorcism-go/internal/cache"
	"github.com/xorcism-go/internal/config"
	"github.com/xorcism-go/internal/handler"
	"github.com/xorcism-go/internal/keyring"
	"github.com/xorcism-go/internal/storage"
)

// Server represents the HTTP service
type Server struct {
	cfg         *config.Config
	store       *storage.Store
	engine      *gin.Engine
	httpServer  *http.Server
	httpsServer *http.Server
	jwtAuth     *auth.JWTAuth
	userDAO     *keyring.UserDAO
	keyDAO      *keyring.KeyDAO
	keyCache    *cache.KeyCache
}

// New creates a new server instance
func New(cfg *config.Config) (*Server, error) {
	store, err := storage.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		store:   store,
		jwtAuth: auth.NewJWTAuth(cfg.JWTSecret, cfg.JWTExpiration()),
		userDAO: keyring.NewUserDAO(store),
		keyDAO:  keyring.NewKeyDAO(store),
	}
	if cfg.Cache.Enable {
		s.keyCache = cache.NewKeyCache(cfg.CacheTTL(), cfg.Cache.MaxEntries)
	}

	// Ensure default admin user exists
	if err := s.userDAO.EnsureDefaultUser(); err != nil {
		log.Warn().Err(err).Msg("Failed to ensure default user")
	}

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := s.engine

	r.Use(TraceMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware())

	r.GET("/healthz", HealthHandler)
	r.GET("/readyz", ReadyHandler)

	apiHandler := handler.NewAPIHandler(s.cfg, s.jwtAuth, s.userDAO, s.keyDAO)
	streamHandler := handler.NewStreamHandler(s.keyDAO, s.keyCache)

	// /enc-api/* - authentication and keyring management; JSON bodies, so
	// gzip applies here but never on the stream route.
	api := r.Group("/enc-api", gzip.Gzip(gzip.DefaultCompression))
	{
		api.POST("/login", apiHandler.Login)

		protected := api.Group("", AuthMiddleware(s.jwtAuth))
		{
			protected.GET("/userInfo", apiHandler.GetUserInfo)
			protected.POST("/updatePassword", apiHandler.UpdatePassword)
			protected.GET("/keys", apiHandler.ListKeys)
			protected.POST("/keys", apiHandler.CreateKey)
			protected.DELETE("/keys/:name", apiHandler.DeleteKey)
		}
	}

	// /api/v1/stream - the transform itself; bodies are opaque bytes.
	r.POST("/api/v1/stream", streamHandler.Handle)
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start starts the server(s)
func (s *Server) Start() error {
	errChan := make(chan error, 2)

	go func() {
		if err := s.startHTTP(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if s.cfg.IsHTTPSEnabled() {
		go func() {
			if err := s.startHTTPS(); err != nil && err != http.ErrServerClosed {
				errChan <- fmt.Errorf("HTTPS server error: %w", err)
			}
		}()
	}

	return <-errChan
}

func (s *Server) startHTTP() error {
	addr := s.cfg.GetHTTPAddr()

	var httpHandler http.Handler = s.engine

	// Enable h2c (HTTP/2 cleartext) if configured
	if s.cfg.IsH2CEnabled() {
		h2s := &http2.Server{
			MaxConcurrentStreams: 1000,
			IdleTimeout:          120 * time.Second,
		}
		httpHandler = h2c.NewHandler(s.engine, h2s)
		log.Info().Msg("HTTP/2 cleartext (h2c) enabled")
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      httpHandler,
		ReadTimeout:  0, // No timeout for streaming
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("Starting HTTP server")

	return s.httpServer.ListenAndServe()
}

func (s *Server) startHTTPS() error {
	addr := s.cfg.GetHTTPSAddr()

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		NextProtos: []string{"h2", "http/1.1"},
	}

	s.httpsServer = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		TLSConfig:    tlsConfig,
		ReadTimeout:  0,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	http2.ConfigureServer(s.httpsServer, &http2.Server{
		MaxConcurrentStreams: 1000,
		IdleTimeout:          120 * time.Second,
	})

	log.Info().Str("addr", addr).Msg("Starting HTTPS server with HTTP/2")

	return s.httpsServer.ListenAndServeTLS(s.cfg.Scheme.CertFile, s.cfg.Scheme.KeyFile)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down server...")

	var lastErr error

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			lastErr = err
		}
	}

	if s.httpsServer != nil {
		if err := s.httpsServer.Shutdown(ctx); err != nil {
			lastErr = err
		}
	}

	if err := s.store.Close(); err != nil {
		lastErr = err
	}

	return lastErr
}
