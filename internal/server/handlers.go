package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ironsheep/otsu-segment-mcp/internal/imaging"
	"github.com/ironsheep/otsu-segment-mcp/internal/segment"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_segment").
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
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Error().Err(err).Str("tool", params.Name).Msg("tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.log.Debug().Str("tool", params.Name).Dur("elapsed", time.Since(start)).Msg("tool executed")

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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Reads the image bytes, enforcing the configured size bound
//  3. Merges per-request options over the configured defaults
//  4. Calls the segment/imaging function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_info":
		return s.handleImageInfo(args)
	case "image_histogram":
		return s.handleImageHistogram(args)
	case "image_threshold":
		return s.handleImageThreshold(args)
	case "image_segment":
		return s.handleImageSegment(args)
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

// === Argument Handling ===

// sourceArgs selects the input image.
type sourceArgs struct {
	Path        string          `json:"path"`
	ImageBase64 string          `json:"image_base64"`
	Region      *imaging.Region `json:"region,omitempty"`
}

// optionArgs overrides the configured segmentation defaults. Nil fields keep
// the default.
type optionArgs struct {
	Grayscale         *string  `json:"grayscale,omitempty"`
	Polarity          *string  `json:"polarity,omitempty"`
	BlurRadius        *float64 `json:"blur_radius,omitempty"`
	FallbackThreshold *int     `json:"fallback_threshold,omitempty"`
}

// readSource returns the encoded image bytes named by a.
func (s *Server) readSource(a sourceArgs) ([]byte, error) {
	switch {
	case a.Path != "" && a.ImageBase64 != "":
		return nil, errors.New("provide either path or image_base64, not both")
	case a.Path != "":
		return imaging.ReadFile(a.Path, s.cfg.MaxInputBytes)
	case a.ImageBase64 != "":
		return imaging.DecodeBase64(a.ImageBase64, s.cfg.MaxInputBytes)
	default:
		return nil, errors.New("path or image_base64 is required")
	}
}

// options merges per-request overrides over the configured defaults.
func (s *Server) options(src sourceArgs, a optionArgs) (segment.Options, error) {
	seg := s.cfg.Segmentation
	if a.Grayscale != nil {
		seg.Grayscale = *a.Grayscale
	}
	if a.Polarity != nil {
		seg.Polarity = *a.Polarity
	}
	if a.BlurRadius != nil {
		seg.BlurRadius = *a.BlurRadius
	}
	if a.FallbackThreshold != nil {
		seg.FallbackThreshold = a.FallbackThreshold
	}

	opts, err := seg.Options()
	if err != nil {
		return opts, err
	}
	opts.Region = src.Region
	opts.MaxPixels = s.cfg.MaxPixels
	return opts, nil
}

// === Tool Handlers ===

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a sourceArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	data, err := s.readSource(a)
	if err != nil {
		return nil, err
	}
	return imaging.Info(data, s.cfg.MaxPixels)
}

// HistogramResult is the image_histogram tool output.
type HistogramResult struct {
	Width   int               `json:"width"`
	Height  int               `json:"height"`
	Total   int               `json:"total"`
	NonZero int               `json:"nonzero_levels"`
	Bins    segment.Histogram `json:"bins"`
}

type imageHistogramArgs struct {
	sourceArgs
	optionArgs
}

func (s *Server) handleImageHistogram(args json.RawMessage) (interface{}, error) {
	var a imageHistogramArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts, err := s.options(a.sourceArgs, a.optionArgs)
	if err != nil {
		return nil, err
	}
	data, err := s.readSource(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	img, err := segment.Decode(data, opts)
	if err != nil {
		return nil, err
	}

	gray, err := segment.Prepare(img, opts)
	if err != nil {
		return nil, err
	}
	hist := segment.BuildHistogram(gray)
	return &HistogramResult{
		Width:   gray.Bounds().Dx(),
		Height:  gray.Bounds().Dy(),
		Total:   hist.Total(),
		NonZero: hist.NonZero(),
		Bins:    hist,
	}, nil
}

// ThresholdResult is the image_threshold tool output.
type ThresholdResult struct {
	*segment.Result
	Scores segment.ScoreTable `json:"scores,omitempty"`
}

type imageThresholdArgs struct {
	sourceArgs
	optionArgs
	IncludeScores bool `json:"include_scores"`
}

func (s *Server) handleImageThreshold(args json.RawMessage) (interface{}, error) {
	var a imageThresholdArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts, err := s.options(a.sourceArgs, a.optionArgs)
	if err != nil {
		return nil, err
	}
	data, err := s.readSource(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	img, err := segment.Decode(data, opts)
	if err != nil {
		return nil, err
	}

	res, err := segment.Apply(img, opts)
	if err != nil {
		return nil, err
	}

	out := &ThresholdResult{Result: res}
	if a.IncludeScores {
		out.Scores = res.Scores
	}
	return out, nil
}

// SegmentResult is the image_segment tool output.
type SegmentResult struct {
	*segment.Result
	Polarity    string `json:"polarity"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	OutputPath  string `json:"output_path,omitempty"`
}

type imageSegmentArgs struct {
	sourceArgs
	optionArgs
	OutputPath string `json:"output_path"`
}

func (s *Server) handleImageSegment(args json.RawMessage) (interface{}, error) {
	var a imageSegmentArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	opts, err := s.options(a.sourceArgs, a.optionArgs)
	if err != nil {
		return nil, err
	}
	data, err := s.readSource(a.sourceArgs)
	if err != nil {
		return nil, err
	}

	res, png, err := segment.SegmentWithResult(data, opts)
	if err != nil {
		return nil, err
	}

	if a.OutputPath != "" {
		if err := os.WriteFile(a.OutputPath, png, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write output: %w", err)
		}
	}

	s.log.Info().
		Int("width", res.Width).
		Int("height", res.Height).
		Uint8("threshold", res.Threshold).
		Bool("fallback", res.Fallback).
		Msg("image segmented")

	return &SegmentResult{
		Result:      res,
		Polarity:    opts.Polarity.String(),
		ImageBase64: base64.StdEncoding.EncodeToString(png),
		MimeType:    "image/png",
		OutputPath:  a.OutputPath,
	}, nil
}
