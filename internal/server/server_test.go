package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ironsheep/omr-sheet-mcp/internal/omr"
	"github.com/ironsheep/omr-sheet-mcp/internal/source"
)

func TestNew(t *testing.T) {
	s := New(Config{})
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cache == nil {
		t.Fatal("New() did not initialize cache")
	}
	if s.reader == nil {
		t.Fatal("New() did not select a default reader")
	}
	if s.dpi != source.DefaultDPI {
		t.Errorf("dpi: got %d, want %d", s.dpi, source.DefaultDPI)
	}
}

func TestNew_WithConfig(t *testing.T) {
	geo := omr.DefaultGeometry()
	geo.FillRatio = 0.6
	reader, err := omr.NewReader(geo)
	if err != nil {
		t.Fatal(err)
	}

	s := New(Config{Reader: reader, Workers: 3, DPI: 300})
	if s.reader.Geometry().FillRatio != 0.6 || s.workers != 3 || s.dpi != 300 {
		t.Errorf("config not applied: fill=%v workers=%d dpi=%d", s.reader.Geometry().FillRatio, s.workers, s.dpi)
	}
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}

			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
		})
	}
}

func TestMCPResponse_WithError(t *testing.T) {
	resp := MCPResponse{
		JSONRPC: "2.0",
		ID:      1,
		Error: &MCPError{
			Code:    -32601,
			Message: "Method not found",
		},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded MCPResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded.Error == nil || decoded.Error.Code != -32601 {
		t.Errorf("Error: got %+v", decoded.Error)
	}
	if strings.Contains(string(data), `"result"`) {
		t.Errorf("error responses should omit result: %s", data)
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := New(Config{})
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: "init-1", Method: "initialize"})

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if resp.ID != "init-1" {
		t.Errorf("ID: got %v, want init-1", resp.ID)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}

	serverInfo, ok := result["serverInfo"].(map[string]interface{})
	if !ok {
		t.Fatal("serverInfo should be a map")
	}
	if serverInfo["name"] != "omr-sheet-mcp" {
		t.Errorf("serverInfo.name: got %v", serverInfo["name"])
	}
	if serverInfo["version"] != Version {
		t.Errorf("serverInfo.version: got %v", serverInfo["version"])
	}
}

func TestHandleRequest_Ping(t *testing.T) {
	s := New(Config{})
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: "ping-1", Method: "ping"})

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	if resp.ID != "ping-1" {
		t.Errorf("ID: got %v, want ping-1", resp.ID)
	}
}

func TestHandleRequest_NotificationsInitialized(t *testing.T) {
	s := New(Config{})
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"})

	// Notifications don't get responses
	if resp != nil {
		t.Error("notifications/initialized should return nil response")
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s := New(Config{})
	resp := s.handleRequest(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "nonexistent/method"})

	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error == nil {
		t.Fatal("Expected error for unknown method")
	}
	if resp.Error.Code != -32601 {
		t.Errorf("Error code: got %d, want -32601", resp.Error.Code)
	}
}

func TestServe(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"omr_form_geometry","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	}, "\n"))
	var out bytes.Buffer

	if err := New(Config{}).Serve(in, &out); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	var ids []float64
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp MCPResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("bad response line %q: %v", scanner.Text(), err)
		}
		if resp.Error != nil {
			t.Errorf("response %v: unexpected error %+v", resp.ID, resp.Error)
		}
		ids = append(ids, resp.ID.(float64))
	}

	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Errorf("response ids: got %v, want [1 2 3]", ids)
	}
}
