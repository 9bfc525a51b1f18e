// Package server implements the MCP (Model Context Protocol) server for the
// answer-sheet reader.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Reading:
//   - omr_read_sheet: Full read of one sheet, optionally with the annotated image
//   - omr_read_batch: Concurrent read of many sheets and PDF pages
//
// Pipeline stages, for diagnosing rejected sheets:
//   - omr_detect_anchors: Anchor candidates
//   - omr_resolve_grid: Row/column axes, skew and pitch, numbered overlay
//   - omr_crop_field: Zoomed crop of one question or identity field
//
// Configuration:
//   - omr_form_geometry: The active form geometry
//
// # Rejections
//
// A sheet that cannot be read (not an image, too few anchors, wrong grid
// shape) is a normal tool result carrying a "rejection" object with the kind
// and observed counts. JSON-RPC errors are reserved for bad arguments and
// unreadable files:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Image Caching
//
// Image files are cached by path for the lifetime of the process, so the
// stage tools can be called repeatedly on one sheet without re-decoding it.
// PDF pages are rendered on every call.
package server
