package toolapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/kdlbs/agentsup/internal/common/logger"
)

// DebugServerConfig configures the optional HTTP/SSE debug transport of
// §4.6's expansion note: the same four tools, reachable over a plain
// net/http mux rather than stdio, for interactive inspection while
// developing against the supervisor.
type DebugServerConfig struct {
	Port int
}

// DebugServer exposes an MCP server's tools over SSE (/sse, /message) and
// Streamable HTTP (/mcp), the same dual-transport shape the ecosystem's
// own standalone MCP servers use, without pulling in a web framework for
// four endpoints.
type DebugServer struct {
	cfg                  DebugServerConfig
	sseServer            *server.SSEServer
	streamableHTTPServer *server.StreamableHTTPServer
	httpServer           *http.Server
	logger               *logger.Logger

	mu      sync.Mutex
	running bool
}

// NewDebugServer wraps an already-registered *server.MCPServer with the
// HTTP debug transports.
func NewDebugServer(cfg DebugServerConfig, mcpServer *server.MCPServer, log *logger.Logger) *DebugServer {
	return &DebugServer{
		cfg:                  cfg,
		sseServer:            server.NewSSEServer(mcpServer),
		streamableHTTPServer: server.NewStreamableHTTPServer(mcpServer, server.WithEndpointPath("/mcp")),
		logger:               log.WithFields(zap.String("component", "toolapi-debug")),
	}
}

// Start listens and serves in a goroutine, returning once the listener is
// bound (or ctx is canceled first).
func (d *DebugServer) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("toolapi: debug server already running")
	}
	d.mu.Unlock()

	mux := http.NewServeMux()
	mux.Handle("/sse", d.sseServer.SSEHandler())
	mux.Handle("/message", d.sseServer.MessageHandler())
	mux.Handle("/mcp", d.streamableHTTPServer)

	addr := fmt.Sprintf(":%d", d.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("toolapi: listen on %s: %w", addr, err)
	}
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		d.cfg.Port = tcpAddr.Port
	}

	d.httpServer = &http.Server{Handler: mux}

	ready := make(chan struct{})
	go func() {
		d.mu.Lock()
		d.running = true
		d.mu.Unlock()
		close(ready)

		d.logger.Info("debug MCP transport listening", zap.Int("port", d.cfg.Port))
		if err := d.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			d.logger.Error("debug MCP transport error", zap.Error(err))
		}

		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop gracefully shuts down the debug transport, a no-op if never started.
func (d *DebugServer) Stop(ctx context.Context) error {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()
	if !running {
		return nil
	}

	if d.httpServer != nil {
		if err := d.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("toolapi: shutdown debug http server: %w", err)
		}
	}
	if d.sseServer != nil {
		if err := d.sseServer.Shutdown(ctx); err != nil {
			d.logger.Warn("failed to shutdown SSE debug server", zap.Error(err))
		}
	}
	if d.streamableHTTPServer != nil {
		if err := d.streamableHTTPServer.Shutdown(ctx); err != nil {
			d.logger.Warn("failed to shutdown streamable HTTP debug server", zap.Error(err))
		}
	}
	return nil
}
