// Package server exposes the game over HTTP: the lobby API that creates rooms
// and players, and the websocket endpoint players connect to.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/wolfpath/internal/config"
	"github.com/palemoky/wolfpath/internal/game/board"
	"github.com/palemoky/wolfpath/internal/game/turn"
	"github.com/palemoky/wolfpath/internal/logger"
	"github.com/palemoky/wolfpath/internal/server/handler"
	"github.com/palemoky/wolfpath/internal/server/hub"
	"github.com/palemoky/wolfpath/internal/server/storage"
)

// Server owns the router, the connection registry and the security components.
type Server struct {
	config   *config.Config
	store    storage.Store
	registry *hub.Registry
	handler  *handler.Handler
	defaults turn.Rules
	upgrader websocket.Upgrader
	router   chi.Router

	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter
	chatLimiter    *ChatRateLimiter
	ipFilter       *IPFilter

	maxConnections int
	semaphore      chan struct{}

	clients   map[string]*Client
	clientsMu sync.RWMutex

	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	// base context for connection goroutines, cancelled by Shutdown
	ctx    context.Context
	cancel context.CancelFunc

	httpServer *http.Server
}

// RulesFromConfig builds the rules used by rooms that do not set their own.
func RulesFromConfig(cfg *config.Config) turn.Rules {
	return turn.Rules{
		BoardSize:       cfg.Game.BoardSize,
		Salary:          cfg.Game.SalaryDecimal(),
		WinningScore:    cfg.Game.WinningScoreDecimal(),
		InterestRate:    cfg.Game.InterestRateDecimal(),
		AssetMultiplier: cfg.Game.AssetMultiplierDecimal(),
	}
}

// New wires a server around an open store. tiles and dice may be nil, in
// which case the built-in board and a fair die are used. It fails only on an
// invalid IP whitelist or blacklist.
func New(cfg *config.Config, store storage.Store, tiles board.Resolver, dice turn.Dice) (*Server, error) {
	ipFilter, err := NewIPFilter(cfg.Security.Whitelist, cfg.Security.Blacklist)
	if err != nil {
		return nil, fmt.Errorf("ip filter: %w", err)
	}
	if tiles == nil {
		tiles = board.Default()
	}
	if dice == nil {
		dice = turn.RandomDice{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:   cfg,
		store:    store,
		registry: hub.NewRegistry(),
		defaults: RulesFromConfig(cfg),
		clients:  make(map[string]*Client),
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		chatLimiter: NewChatRateLimiter(
			cfg.Security.ChatLimit.MaxPerSecond,
			cfg.Security.ChatLimit.MaxPerMinute,
			cfg.Security.ChatLimit.CooldownDuration(),
		),
		ipFilter:       ipFilter,
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
		ctx:            ctx,
		cancel:         cancel,
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}

	s.handler = handler.NewHandler(handler.Deps{
		Store:            store,
		Registry:         s.registry,
		Processor:        turn.NewProcessor(tiles, dice),
		Defaults:         s.defaults,
		ChatLimiter:      s.chatLimiter,
		LeaderboardLimit: cfg.Game.LeaderboardLimit,
	})

	s.router = s.routes()

	logger.Info("🔒 security",
		"connect_per_sec", cfg.Security.RateLimit.MaxPerSecond,
		"message_per_sec", cfg.Security.MessageLimit.MaxPerSecond,
		"chat_per_sec", cfg.Security.ChatLimit.MaxPerSecond,
		"max_connections", cfg.Server.MaxConnections,
		"whitelist", len(cfg.Security.Whitelist),
		"blacklist", len(cfg.Security.Blacklist))

	return s, nil
}

// Open connects the configured store, loads the board and builds the server.
func Open(ctx context.Context, cfg *config.Config) (*Server, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tiles := board.Default()
	if cfg.Game.BoardFile != "" {
		tiles, err = board.Load(cfg.Game.BoardFile)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("load board: %w", err)
		}
		logger.Info("🗺️ board loaded", "file", cfg.Game.BoardFile, "fixed_tiles", tiles.Len())
	}

	srv, err := New(cfg, store, tiles, nil)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return srv, nil
}

// OpenStore connects to the backend named by storage.backend and checks it
// is reachable.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		logger.Info("🗄️ storage ready", "backend", "redis", "addr", cfg.Redis.Addr)
		return storage.NewRedisStore(rdb), nil

	case config.BackendMongo:
		ms, err := storage.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.ConnectTimeoutDuration())
		if err != nil {
			return nil, fmt.Errorf("mongo connection failed: %w", err)
		}
		logger.Info("🗄️ storage ready", "backend", "mongo", "database", cfg.Mongo.Database)
		return ms, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(s.limitByIP)
		r.Post("/sessions", s.handleCreateRoom)
		r.Delete("/sessions/{code}", s.handleResetRoom)
		r.Post("/players", s.handleCreatePlayer)
		r.Get("/ws/{playerID}", s.handleWebSocket)
	})
	return r
}

// limitByIP rejects filtered and over-limit clients before any work is done.
func (s *Server) limitByIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := GetClientIP(r)
		if !s.ipFilter.IsAllowed(ip) {
			logger.Warn("🚫 IP rejected by filter", "ip", ip)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if !s.rateLimiter.Allow(ip) {
			logger.Warn("🚫 too many requests", "ip", ip)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go s.monitorStats(s.ctx)

	logger.Info("🚀 server listening", "addr", "ws://"+addr+"/ws/{playerID}", "cpus", runtime.NumCPU())
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
