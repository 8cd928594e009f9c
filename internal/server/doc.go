// Package server implements the MCP (Model Context Protocol) server for image
// segmentation.
//
// This package provides a JSON-RPC 2.0 server that exposes Otsu thresholding
// through the MCP protocol, so MCP-compatible clients can turn images into
// black-and-white masks and inspect the statistics behind the threshold.
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
//   - image_info: Decode an image and report its metadata
//   - image_histogram: Grayscale intensity histogram
//   - image_threshold: Otsu threshold and score, optionally every candidate
//   - image_segment: Binary black/white image as base64 PNG
//
// Every tool accepts the image as a file path or as base64 bytes. Inputs
// larger than the configured max_input_bytes (1 MiB by default) are rejected
// before decoding. Segmentation options default to the configuration and can
// be overridden per call.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A single-color image has no valid threshold; image_threshold and
// image_segment fail for it unless fallback_threshold is given.
//
// # Usage
//
//	srv := server.New(cfg, log)
//	if err := srv.Run(); err != nil {
//	    log.Fatal().Err(err).Msg("server error")
//	}
package server
