package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
	"github.com/ironsheep/omr-sheet-mcp/internal/omr"
	"github.com/ironsheep/omr-sheet-mcp/internal/source"
)

// Version is reported in serverInfo; main overrides it from build flags.
var Version = "0.1.0"

// Server handles MCP protocol communication
type Server struct {
	cache   *imaging.ImageCache
	reader  *omr.Reader
	workers int
	dpi     int
}

// Config holds the server's reading configuration.
type Config struct {
	// Reader runs the pipeline. Nil selects the default form geometry.
	Reader *omr.Reader

	// Workers bounds omr_read_batch concurrency; 0 uses every CPU.
	Workers int

	// DPI is the PDF page render resolution; 0 uses source.DefaultDPI.
	DPI int
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

// New creates a new MCP server instance
func New(cfg Config) *Server {
	dpi := cfg.DPI
	if dpi <= 0 {
		dpi = source.DefaultDPI
	}
	reader := cfg.Reader
	if reader == nil {
		// The default geometry always validates.
		reader, _ = omr.NewReader(omr.DefaultGeometry())
	}
	return &Server{
		cache:   imaging.NewImageCache(),
		reader:  reader,
		workers: cfg.Workers,
		dpi:     dpi,
	}
}

// Run serves MCP on stdin and stdout.
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from in and writes responses to
// out until in is exhausted.
func (s *Server) Serve(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	// Batch results and annotated PNGs make for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
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
				"name":    "omr-sheet-mcp",
				"version": Version,
			},
		},
	}
}
