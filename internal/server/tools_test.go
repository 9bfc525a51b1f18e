package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"omr_read_sheet",
		"omr_read_batch",
		"omr_detect_anchors",
		"omr_resolve_grid",
		"omr_crop_field",
		"omr_form_geometry",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("Tool count: got %d, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	tools := GetToolDefinitions()

	for _, tool := range tools {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Name == "" {
				t.Error("Tool name is empty")
			}
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema == nil {
				t.Fatal("Tool InputSchema is nil")
			}

			if schemaType := tool.InputSchema["type"]; schemaType != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", schemaType)
			}
			if props, ok := tool.InputSchema["properties"]; !ok || props == nil {
				t.Error("InputSchema missing 'properties' field")
			}
		})
	}
}

func TestToolDefinitions_RequiredPath(t *testing.T) {
	toolsRequiringPath := []string{
		"omr_read_sheet",
		"omr_detect_anchors",
		"omr_resolve_grid",
		"omr_crop_field",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, name := range toolsRequiringPath {
		tool := toolMap[name]
		t.Run(name, func(t *testing.T) {
			requiredList, ok := tool.InputSchema["required"].([]string)
			if !ok {
				t.Fatal("'required' should be a string slice")
			}

			hasPath := false
			for _, r := range requiredList {
				if r == "path" {
					hasPath = true
					break
				}
			}
			if !hasPath {
				t.Error("Tool should require 'path' parameter")
			}

			props := tool.InputSchema["properties"].(map[string]interface{})
			if _, ok := props["page"]; !ok {
				t.Error("sheet tools should accept a PDF page")
			}
		})
	}
}

func TestToolDefinitions_OptionalDefaults(t *testing.T) {
	tests := []struct {
		tool  string
		param string
		want  interface{}
	}{
		{"omr_read_sheet", "annotate", false},
		{"omr_resolve_grid", "overlay", false},
		{"omr_crop_field", "margin", 10},
		{"omr_crop_field", "scale", 1.0},
		{"omr_crop_field", "page", 1},
		{"omr_crop_field", "windows", false},
	}

	toolMap := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		toolMap[tool.Name] = tool
	}

	for _, tt := range tests {
		t.Run(tt.tool+"/"+tt.param, func(t *testing.T) {
			props := toolMap[tt.tool].InputSchema["properties"].(map[string]interface{})
			param, ok := props[tt.param].(map[string]interface{})
			if !ok {
				t.Fatalf("parameter %s not found", tt.param)
			}
			if param["default"] != tt.want {
				t.Errorf("default: got %v, want %v", param["default"], tt.want)
			}
		})
	}
}

func TestHandleToolsList(t *testing.T) {
	s := New(Config{})
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
	}

	resp := s.handleToolsList(req)

	if resp == nil {
		t.Fatal("handleToolsList returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}

	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}

	expected := GetToolDefinitions()
	if len(toolsList) != len(expected) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(expected))
	}
}
