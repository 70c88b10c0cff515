package server

import "time"

// Config holds the tunables the trimmed server actually uses. The
// teacher's Config also carried AOF/RDB/replication sections; this one
// keeps only what the skiplist command surface and its TCP front end need
// (spec.md §5, §9 Non-goals).
type Config struct {
	Host            string
	Port            int
	MaxConnections  int
	ReadBufferSize  int
	WriteBufferSize int
	CommandTimeout  time.Duration // Max time for a single command before the client gets a timeout error reply
	ReadTimeout     time.Duration // Timeout for reading client data (idle timeout)
}

func DefaultConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            6379,
		MaxConnections:  10000,
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CommandTimeout:  5 * time.Second,
		ReadTimeout:     5 * time.Second,
	}
}
