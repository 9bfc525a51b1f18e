package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/omr-sheet-mcp/internal/batch"
	"github.com/ironsheep/omr-sheet-mcp/internal/detection"
	"github.com/ironsheep/omr-sheet-mcp/internal/imaging"
	"github.com/ironsheep/omr-sheet-mcp/internal/omr"
	"github.com/ironsheep/omr-sheet-mcp/internal/source"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "omr_read_sheet").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// A sheet the reader rejects is not an execution error: it is reported in the
// result as a structured rejection.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Reading
	case "omr_read_sheet":
		return s.handleReadSheet(args)
	case "omr_read_batch":
		return s.handleReadBatch(args)

	// Pipeline stages
	case "omr_detect_anchors":
		return s.handleDetectAnchors(args)
	case "omr_resolve_grid":
		return s.handleResolveGrid(args)
	case "omr_crop_field":
		return s.handleCropField(args)

	// Configuration
	case "omr_form_geometry":
		return s.reader.Geometry(), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// sheetArgs locates one sheet: an image file, or one page of a PDF.
type sheetArgs struct {
	Path string `json:"path"`
	Page int    `json:"page"`
}

func (a *sheetArgs) validate() error {
	if a.Path == "" {
		return fmt.Errorf("path is required")
	}
	if a.Page == 0 {
		a.Page = 1
	}
	if a.Page < 1 {
		return fmt.Errorf("page must be >= 1, got %d", a.Page)
	}
	return nil
}

// loadSheet returns the sheet image. Image files go through the cache; PDF
// pages are rendered on every call.
func (s *Server) loadSheet(a sheetArgs) (image.Image, error) {
	if !source.IsPDF(a.Path) {
		return s.cache.Load(a.Path)
	}
	pdf, err := source.NewFitzPDFSource(a.Path, s.dpi)
	if err != nil {
		return nil, err
	}
	defer pdf.Close()
	if a.Page > pdf.PageCount() {
		return nil, fmt.Errorf("page %d out of range: %s has %d pages", a.Page, a.Path, pdf.PageCount())
	}
	return pdf.RenderPage(a.Page - 1)
}

// === Reading Handlers ===

type readSheetArgs struct {
	sheetArgs
	Annotate bool `json:"annotate"`
}

// SheetResponse is the omr_read_sheet result.
type SheetResponse struct {
	Path         string           `json:"path"`
	Page         int              `json:"page"`
	Result       *omr.SheetResult `json:"result,omitempty"`
	Rejection    *omr.Rejection   `json:"rejection,omitempty"`
	Anchors      int              `json:"anchors,omitempty"`
	AnnotatedPNG string           `json:"annotated_png,omitempty"`
}

func (s *Server) handleReadSheet(args json.RawMessage) (interface{}, error) {
	var a readSheetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}

	resp := &SheetResponse{Path: a.Path, Page: a.Page}
	img, err := s.loadSheet(a.sheetArgs)
	if err != nil {
		if rej := omr.RejectionOf(err); rej.Kind == "decode" {
			resp.Rejection = rej
			return resp, nil
		}
		return nil, err
	}

	reading, err := s.reader.Read(img)
	if err != nil {
		resp.Rejection = omr.RejectionOf(err)
		return resp, nil
	}
	resp.Result = reading.Result
	resp.Anchors = len(reading.Anchors)

	if a.Annotate {
		encoded, err := imaging.EncodePNGBase64(reading.Annotated)
		if err != nil {
			return nil, err
		}
		resp.AnnotatedPNG = encoded
	}
	return resp, nil
}

type readBatchArgs struct {
	Paths   []string `json:"paths"`
	Workers int      `json:"workers"`
}

func (s *Server) handleReadBatch(args json.RawMessage) (interface{}, error) {
	var a readBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, fmt.Errorf("paths must list at least one file")
	}
	workers := a.Workers
	if workers < 1 {
		workers = s.workers
	}

	set := source.OpenAll(a.Paths, s.dpi)
	defer set.Close()

	results, err := batch.NewRunner(s.reader, workers).Run(context.Background(), batch.FromPages(set.Pages))
	if err != nil {
		return nil, err
	}
	return batch.NewReport(results), nil
}

// === Pipeline Stage Handlers ===

// AnchorsResponse is the omr_detect_anchors result.
type AnchorsResponse struct {
	Backend   string              `json:"backend"`
	Count     int                 `json:"count"`
	Required  int                 `json:"required"`
	Anchors   detection.AnchorSet `json:"anchors"`
	Rejection *omr.Rejection      `json:"rejection,omitempty"`
}

func (s *Server) handleDetectAnchors(args json.RawMessage) (interface{}, error) {
	var a sheetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	img, err := s.loadSheet(a)
	if err != nil {
		return nil, err
	}

	anchors, err := s.reader.Detect(img)
	resp := &AnchorsResponse{
		Backend:  detection.Backend,
		Count:    len(anchors),
		Required: s.reader.Geometry().DetectorParams().MinAnchors,
		Anchors:  anchors,
	}
	if resp.Anchors == nil {
		resp.Anchors = detection.AnchorSet{}
	}
	if err != nil {
		resp.Rejection = omr.RejectionOf(err)
	}
	return resp, nil
}

type resolveGridArgs struct {
	sheetArgs
	Overlay bool `json:"overlay"`
}

// GridResponse is the omr_resolve_grid result.
type GridResponse struct {
	Grid        *detection.Grid            `json:"grid,omitempty"`
	Diagnostics *detection.GridDiagnostics `json:"diagnostics,omitempty"`
	Rejection   *omr.Rejection             `json:"rejection,omitempty"`
	OverlayPNG  string                     `json:"overlay_png,omitempty"`
}

func (s *Server) handleResolveGrid(args json.RawMessage) (interface{}, error) {
	var a resolveGridArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	img, err := s.loadSheet(a.sheetArgs)
	if err != nil {
		return nil, err
	}

	grid, _, err := s.reader.Resolve(img)
	if err != nil {
		return &GridResponse{Rejection: omr.RejectionOf(err)}, nil
	}
	diag := grid.Diagnostics()
	resp := &GridResponse{Grid: grid, Diagnostics: &diag}

	if a.Overlay {
		encoded, err := imaging.EncodePNGBase64(omr.DrawGrid(img, grid))
		if err != nil {
			return nil, err
		}
		resp.OverlayPNG = encoded
	}
	return resp, nil
}

type cropFieldArgs struct {
	sheetArgs
	Field   string  `json:"field"`
	Margin  *int    `json:"margin"`
	Scale   float64 `json:"scale"`
	Windows bool    `json:"windows"`
}

// windowColor outlines sampling windows on audit crops.
var windowColor = color.NRGBA{R: 0, G: 102, B: 255, A: 255}

// CropFieldResponse is the omr_crop_field result.
type CropFieldResponse struct {
	Field  omr.FieldRegion     `json:"field"`
	Bounds image.Rectangle     `json:"bounds"`
	Crop   *imaging.CropResult `json:"crop"`
}

func (s *Server) handleCropField(args json.RawMessage) (interface{}, error) {
	var a cropFieldArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	if a.Field == "" {
		return nil, fmt.Errorf("field is required")
	}
	margin := 10
	if a.Margin != nil {
		margin = *a.Margin
	}
	if margin < 0 {
		return nil, fmt.Errorf("margin must be >= 0, got %d", margin)
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	img, err := s.loadSheet(a.sheetArgs)
	if err != nil {
		return nil, err
	}
	regions, err := s.reader.MapImage(img)
	if err != nil {
		return nil, err
	}
	field, ok := regions.Field(a.Field)
	if !ok {
		return nil, fmt.Errorf("unknown field %q", a.Field)
	}

	geo := s.reader.Geometry()
	b := img.Bounds()
	bounds := field.Bounds(geo.WindowWidth, geo.WindowHeight).
		Inset(-margin).
		Intersect(image.Rect(0, 0, b.Dx(), b.Dy()))
	if a.Windows {
		img = omr.DrawRegions(img, regions, geo, windowColor)
	}
	crop, err := imaging.Crop(img, bounds, a.Scale)
	if err != nil {
		return nil, err
	}
	return &CropFieldResponse{Field: field, Bounds: bounds, Crop: crop}, nil
}
