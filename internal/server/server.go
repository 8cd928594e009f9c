package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/otsu-segment-mcp/internal/config"
	"github.com/ironsheep/otsu-segment-mcp/internal/imaging"
)

// Version is reported in the initialize handshake. It is set by main.
var Version = "dev"

// Server handles MCP protocol communication
type Server struct {
	cfg *config.Config
	log zerolog.Logger
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance. A nil cfg selects config.Default.
func New(cfg *config.Config, log zerolog.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Server{
		cfg: cfg,
		log: log,
	}
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads newline-delimited JSON-RPC requests from r and writes
// responses to w until r is exhausted.
//
// A request line longer than maxLineBytes is discarded and answered with a
// -32000 error carrying imaging.ErrTooLarge; serving continues with the next
// line.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	reader := bufio.NewReaderSize(r, 64*1024)
	encoder := json.NewEncoder(w)
	limit := s.maxLineBytes()

	for {
		line, tooLong, err := readLine(reader, limit)
		switch {
		case tooLong:
			s.log.Warn().Int("limit", limit).Msg("request line too large, discarded")
			s.send(encoder, s.errorResponse(nil, -32000, "Request too large",
				fmt.Sprintf("%v: request line exceeds %d bytes", imaging.ErrTooLarge, limit)))
		case len(bytes.TrimSpace(line)) > 0:
			s.serveLine(encoder, line)
		}

		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
	}
}

// serveLine handles one complete request line.
func (s *Server) serveLine(encoder *json.Encoder, line []byte) {
	var req MCPRequest
	if err := json.Unmarshal(line, &req); err != nil {
		s.log.Warn().Err(err).Msg("failed to parse request")
		return
	}

	start := time.Now()
	resp := s.handleRequest(&req)
	s.log.Debug().
		Str("method", req.Method).
		Interface("id", req.ID).
		Dur("elapsed", time.Since(start)).
		Msg("request handled")

	if resp != nil {
		s.send(encoder, resp)
	}
}

func (s *Server) send(encoder *json.Encoder, resp *MCPResponse) {
	if err := encoder.Encode(resp); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

// readLine reads one newline-terminated line from r without its terminator.
// When limit is positive and the line is longer, the rest of the line is
// consumed and discarded and tooLong is set. err is io.EOF once r is
// exhausted; a final unterminated line is returned together with io.EOF.
func readLine(r *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		chunk, readErr := r.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			// Allow for a trailing \r\n before deciding.
			if limit > 0 && len(line) > limit+2 {
				tooLong = true
				line = nil
			}
		}

		if readErr == bufio.ErrBufferFull {
			continue
		}

		line = bytes.TrimRight(line, "\r\n")
		if !tooLong && limit > 0 && len(line) > limit {
			tooLong = true
			line = nil
		}
		return line, tooLong, readErr
	}
}

// maxLineBytes sizes the request line limit so that a base64 payload at the
// input limit, plus the JSON envelope, fits on one line. Zero means no limit,
// which is the case when the input bound is disabled.
func (s *Server) maxLineBytes() int {
	if s.cfg.MaxInputBytes <= 0 {
		return 0
	}

	const envelope = 64 * 1024
	limit := 1024 * 1024
	if n := int((s.cfg.MaxInputBytes+2)/3*4) + envelope; n > limit {
		limit = n
	}
	return limit
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "otsu-segment-mcp",
				"version": Version,
			},
		},
	}
}
