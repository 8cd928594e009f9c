package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// sourceProperties are the input-selection arguments shared by every tool.
func sourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the image file. Either path or image_base64 is required.",
		},
		"image_base64": map[string]interface{}{
			"type":        "string",
			"description": "Encoded image bytes as base64 (a data: URL prefix is accepted).",
		},
		"region": map[string]interface{}{
			"type":        "object",
			"description": "Optional rectangle to analyze instead of the whole image (x2, y2 exclusive)",
			"properties": map[string]interface{}{
				"x1": map[string]interface{}{"type": "integer"},
				"y1": map[string]interface{}{"type": "integer"},
				"x2": map[string]interface{}{"type": "integer"},
				"y2": map[string]interface{}{"type": "integer"},
			},
			"required": []string{"x1", "y1", "x2", "y2"},
		},
	}
}

// segmentationProperties are the per-request overrides of the configured
// segmentation defaults.
func segmentationProperties() map[string]interface{} {
	return map[string]interface{}{
		"grayscale": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"luminance", "average", "lightness"},
			"description": "How color channels are combined into gray levels. Default luminance (BT.709).",
		},
		"polarity": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"bright-white", "bright-black"},
			"description": "bright-white maps pixels above the threshold to white; bright-black inverts. Default bright-white.",
		},
		"blur_radius": map[string]interface{}{
			"type":        "number",
			"description": "Gaussian blur radius applied before thresholding. Default 0 (off).",
		},
		"fallback_threshold": map[string]interface{}{
			"type":        "integer",
			"description": "Threshold to use for single-color images instead of failing (0-255).",
		},
	}
}

// withProperties merges property maps into one object schema.
func withProperties(required []string, groups ...map[string]interface{}) map[string]interface{} {
	props := make(map[string]interface{})
	for _, g := range groups {
		for k, v := range g {
			props[k] = v
		}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_info",
			Description: "Decode an image and return its dimensions, detected format, color depth, alpha presence and encoded size.",
			InputSchema: withProperties(nil, map[string]interface{}{
				"path":         sourceProperties()["path"],
				"image_base64": sourceProperties()["image_base64"],
			}),
		},
		{
			Name:        "image_histogram",
			Description: "Convert an image to grayscale and return its 256-bin intensity histogram, pixel total and number of occupied gray levels.",
			InputSchema: withProperties(nil, sourceProperties(), map[string]interface{}{
				"grayscale":   segmentationProperties()["grayscale"],
				"blur_radius": segmentationProperties()["blur_radius"],
			}),
		},
		{
			Name:        "image_threshold",
			Description: "Compute the Otsu threshold of an image without producing the binary image. Returns the threshold, its score and the number of valid candidates.",
			InputSchema: withProperties(nil, sourceProperties(), segmentationProperties(), map[string]interface{}{
				"include_scores": map[string]interface{}{
					"type":        "boolean",
					"description": "Also return every candidate threshold with its score",
					"default":     false,
				},
			}),
		},
		{
			Name:        "image_segment",
			Description: "Segment an image into black and white using Otsu thresholding and return the result as base64-encoded PNG with the same dimensions.",
			InputSchema: withProperties(nil, sourceProperties(), segmentationProperties(), map[string]interface{}{
				"output_path": map[string]interface{}{
					"type":        "string",
					"description": "Optional file path to also write the PNG to",
				},
			}),
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
