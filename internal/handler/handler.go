// Package handler parses wire commands into processor requests and
// formats their replies, the way the teacher's internal/handler package
// binds RESP commands to internal/processor.Command submissions. This
// rewrite keeps only the connection-handling shape and the six SL verbs
// (spec.md §6); the string/list/hash/set/geo/bloom/pub-sub command
// families the teacher also serves are out of scope (see DESIGN.md).
package handler

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"time"

	"slserver/internal/processor"
	"slserver/internal/protocol"
)

// CommandFunc handles one parsed command and returns its encoded reply.
type CommandFunc func(cmd *protocol.Command) []byte

// Client identifies one connected client.
type Client struct {
	ID   int64
	Conn net.Conn
}

// Config holds handler-level tunables.
type Config struct {
	ReadBufferSize  int
	WriteBufferSize int
	ReadTimeout     time.Duration
	CommandTimeout  time.Duration
}

// DefaultConfig returns the handler defaults, mirroring the teacher's
// DefaultHandlerConfig.
func DefaultConfig() Config {
	return Config{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		ReadTimeout:     30 * time.Second,
		CommandTimeout:  5 * time.Second,
	}
}

// CommandHandler dispatches parsed commands to the command table and
// formats replies.
type CommandHandler struct {
	processor       *processor.Processor
	readBufferSize  int
	writeBufferSize int
	readTimeout     time.Duration
	commandTimeout  time.Duration
	commands        map[string]CommandFunc
}

// New creates a command handler wired to proc.
func New(proc *processor.Processor, config Config) *CommandHandler {
	h := &CommandHandler{
		processor:       proc,
		readBufferSize:  config.ReadBufferSize,
		writeBufferSize: config.WriteBufferSize,
		readTimeout:     config.ReadTimeout,
		commandTimeout:  config.CommandTimeout,
	}
	h.registerCommands()
	return h
}

func (h *CommandHandler) registerCommands() {
	h.commands = map[string]CommandFunc{
		"PING":     h.handlePing,
		"SLADD":    h.handleSLAdd,
		"SLREM":    h.handleSLRem,
		"SLALL":    h.handleSLAll,
		"SLRANGE":  h.handleSLRange,
		"SLSEARCH": h.handleSLSearch,
		"SLCARD":   h.handleSLCard,
	}
}

// handlePing answers the liveness probe every RESP client issues on
// connect; unrelated to the skiplist core but needed for the server to be
// usable by a normal client.
func (h *CommandHandler) handlePing(cmd *protocol.Command) []byte {
	if len(cmd.Args) > 1 {
		return protocol.EncodeBulkString(cmd.Args[1])
	}
	return protocol.EncodeSimpleString("PONG")
}

// Handle serves one connection until it closes or ctx is done, the way the
// teacher's CommandHandler.Handle does — one command at a time, no
// pipelining, since this spec names no requirement for it.
func (h *CommandHandler) Handle(ctx context.Context, client *Client) {
	reader := bufio.NewReaderSize(client.Conn, h.readBufferSize)
	writer := bufio.NewWriterSize(client.Conn, h.writeBufferSize)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if h.readTimeout > 0 {
			client.Conn.SetReadDeadline(time.Now().Add(h.readTimeout))
		}

		cmd, err := protocol.ParseCommand(reader)
		if err != nil {
			if err == io.EOF {
				return
			}
			log.Printf("error parsing command from client %d: %v", client.ID, err)
			writer.Write(protocol.EncodeError(fmt.Sprintf("ERR %v", err)))
			writer.Flush()
			continue
		}

		client.Conn.SetReadDeadline(time.Time{})

		writer.Write(h.executeCommand(cmd))
		writer.Flush()
	}
}

func (h *CommandHandler) executeCommand(cmd *protocol.Command) []byte {
	if cmd == nil || len(cmd.Args) == 0 {
		return protocol.EncodeError("ERR empty command")
	}

	name := strings.ToUpper(cmd.Args[0])
	if fn, ok := h.commands[name]; ok {
		return fn(cmd)
	}
	return protocol.EncodeError(fmt.Sprintf("ERR unknown command '%s'", name))
}
