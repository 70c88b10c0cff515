package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"slserver/internal/handler"
	"slserver/internal/notify"
	"slserver/internal/processor"
	"slserver/internal/store"
)

// RedisServer accepts TCP connections and dispatches RESP commands to the
// skiplist command handler, the way the teacher's RedisServer wires
// storage/processor/handler together for the full command set.
type RedisServer struct {
	config          *Config
	listener        net.Listener
	store           *store.Store
	bus             *notify.Bus
	processor       *processor.Processor
	handler         *handler.CommandHandler
	connections     sync.Map
	connIDCounter   atomic.Int64
	activeConnCount atomic.Int64
	wg              sync.WaitGroup
	shutdownChan    chan struct{}
	mu              sync.RWMutex
	isShutdown      bool
}

// NewRedisServer creates a new server instance over a fresh store.
func NewRedisServer(cfg *Config) *RedisServer {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	st := store.New()
	bus := notify.NewBus()
	proc := processor.New(st, bus)

	handlerConfig := handler.Config{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		ReadTimeout:     cfg.ReadTimeout,
		CommandTimeout:  cfg.CommandTimeout,
	}
	cmdHandler := handler.New(proc, handlerConfig)

	return &RedisServer{
		config:       cfg,
		store:        st,
		bus:          bus,
		processor:    proc,
		handler:      cmdHandler,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the server's accept loop, blocking until ctx is done.
func (s *RedisServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start listener: %w", err)
	}

	s.listener = listener
	log.Printf("slserver listening on %s", addr)

	go s.acceptConnections(ctx)

	<-ctx.Done()
	return nil
}

func (s *RedisServer) acceptConnections(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdownChan:
			return
		default:
			conn, err := s.listener.Accept()
			if err != nil {
				s.mu.RLock()
				if s.isShutdown {
					s.mu.RUnlock()
					return
				}
				s.mu.RUnlock()
				log.Printf("error accepting connection: %v", err)
				continue
			}

			if s.activeConnCount.Load() >= int64(s.config.MaxConnections) {
				log.Printf("max connections reached, rejecting connection from %s", conn.RemoteAddr())
				conn.Close()
				continue
			}

			s.wg.Add(1)
			go s.handleConnection(ctx, conn)
		}
	}
}

func (s *RedisServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()

	connID := s.connIDCounter.Add(1)
	s.activeConnCount.Add(1)
	defer s.activeConnCount.Add(-1)

	s.connections.Store(connID, conn)
	defer s.connections.Delete(connID)
	defer conn.Close()

	startTime := time.Now()

	client := &handler.Client{
		ID:   connID,
		Conn: conn,
	}

	s.handler.Handle(ctx, client)

	duration := time.Since(startTime)
	if duration > 2*time.Second {
		log.Printf("connection [%d] from %s closed after %v", connID, conn.RemoteAddr(), duration.Round(time.Second))
	}
}

// Shutdown gracefully shuts down the server.
func (s *RedisServer) Shutdown() {
	s.mu.Lock()
	if s.isShutdown {
		s.mu.Unlock()
		return
	}
	s.isShutdown = true
	s.mu.Unlock()

	log.Println("initiating graceful shutdown...")

	close(s.shutdownChan)

	if s.listener != nil {
		s.listener.Close()
	}

	s.connections.Range(func(key, value interface{}) bool {
		if conn, ok := value.(net.Conn); ok {
			conn.Close()
		}
		return true
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("all connections closed gracefully")
	case <-time.After(5 * time.Second):
		log.Println("shutdown timeout reached, forcing exit")
	}

	if s.processor != nil {
		s.processor.Shutdown()
	}

	log.Println("slserver shutdown complete")
}
