package server

import (
	"context"
	"runtime"
	"time"

	"github.com/palemoky/wolfpath/internal/logger"
	"github.com/palemoky/wolfpath/internal/protocol"
)

const statsInterval = 30 * time.Second

// monitorStats logs load figures until ctx ends.
func (s *Server) monitorStats(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			logger.Info("📊 stats",
				"online", s.GetOnlineCount(),
				"attached", s.registry.Total(),
				"rooms", s.registry.Rooms(),
				"goroutines", runtime.NumGoroutine(),
				"active", len(s.semaphore),
				"max", s.maxConnections,
				"mem_mb", float64(m.Alloc)/1024/1024)
		}
	}
}

// EnterMaintenanceMode refuses new websocket connections and warns everyone
// still connected.
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	already := s.maintenanceMode
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()
	if already {
		return
	}

	s.Broadcast(protocol.NewSystemMessage("🚧 Server is shutting down for maintenance"))
	logger.Info("🔧 maintenance mode: new connections refused")
}

func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// Shutdown stops accepting requests, closes every connection and the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.EnterMaintenanceMode()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	// hijacked websocket connections are not tracked by http.Server
	s.clientsMu.RLock()
	for _, c := range s.clients {
		c.Close()
	}
	s.clientsMu.RUnlock()

	s.cancel()
	s.rateLimiter.Stop()

	if cerr := s.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	logger.Info("👋 server stopped")
	return err
}
