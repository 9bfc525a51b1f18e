package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the sheet image (PNG, JPEG, GIF, BMP, TIFF, WebP) or PDF scan",
	}
}

func pageProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "Page of a PDF scan to read, counted from 1. Ignored for image files. Default 1",
		"default":     1,
		"minimum":     1,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Reading
		{
			Name:        "omr_read_sheet",
			Description: "Read one answer sheet: identity fields (grade, class, seat), the 40 answer mark vectors and their letters. Rejected sheets return a structured rejection (decode, insufficient_anchors, grid_cardinality) instead of a result.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"page": pageProperty(),
					"annotate": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the sheet as base64 PNG with every filled bubble outlined. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "omr_read_batch",
			Description: "Read many answer sheets concurrently. Every page of a PDF is a sheet. Returns one result or rejection per sheet, in input order; a failing sheet never aborts the batch.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to sheet images or PDF scans",
					},
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum sheets read at once. Default: server setting",
						"minimum":     1,
					},
				},
				"required": []string{"paths"},
			},
		},

		// Pipeline stages
		{
			Name:        "omr_detect_anchors",
			Description: "Find the square registration anchors on a sheet. Lists every candidate even when there are too few to resolve the grid.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"page": pageProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "omr_resolve_grid",
			Description: "Resolve the 25 row anchors and 11 column anchors of a sheet, with skew and pitch diagnostics. Optionally returns a numbered overlay of the anchors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"page": pageProperty(),
					"overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the sheet as base64 PNG with the anchors outlined and numbered. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "omr_crop_field",
			Description: "Crop the bubbles of one field for visual audit. Fields are q1..q40, grade.0, class.0, class.1, seat.0, seat.1.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"page": pageProperty(),
					"field": map[string]interface{}{
						"type":        "string",
						"description": "Field name, e.g. q12 or seat.1",
					},
					"margin": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels of context around the field. Default 10",
						"default":     10,
						"minimum":     0,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
					"windows": map[string]interface{}{
						"type":        "boolean",
						"description": "Outline every bubble's sampling window before cropping. Default false",
						"default":     false,
					},
				},
				"required": []string{"path", "field"},
			},
		},

		// Configuration
		{
			Name:        "omr_form_geometry",
			Description: "Return the active form geometry: anchor counts, detection constants, bubble offsets, window size, fill ratio and field layout.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
