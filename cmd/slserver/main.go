package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slserver/internal/server"
)

func main() {
	port := flag.Int("port", 6379, "Port to listen on")
	host := flag.String("host", "127.0.0.1", "Host to bind to")
	maxConnections := flag.Int("max-connections", 10000, "Maximum concurrent connections")
	readTimeout := flag.Duration("read-timeout", 60*time.Second, "Idle read timeout per connection")
	commandTimeout := flag.Duration("command-timeout", 30*time.Second, "Max time for a single command")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := server.DefaultConfig()
	cfg.Host = *host
	cfg.Port = *port
	cfg.MaxConnections = *maxConnections
	cfg.ReadTimeout = *readTimeout
	cfg.CommandTimeout = *commandTimeout

	srv := server.NewRedisServer(cfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("shutting down server...")
		cancel()
		srv.Shutdown()
	}()

	log.Printf("starting slserver on %s:%d", cfg.Host, cfg.Port)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
