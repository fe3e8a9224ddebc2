package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
)

const (
	rpcMethodNotFound = "MethodNotFound"
	rpcInvalidRequest = "InvalidRequest"
	rpcInternalError  = "InternalError"
)

type rpcRequest struct {
	ID     any             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return e.Message }

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

// toolResult is the callTool response envelope: a single text content block
// holding a JSON payload, with IsError set on tool-level failures.
type toolResult struct {
	Content []toolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type resourceSpec struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	Description string `json:"description"`
}

type resourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// Server speaks line-delimited JSON-RPC over stdio. One request per line in,
// one response per line out; malformed lines are logged and skipped so a
// broken client cannot wedge the stream.
type Server struct {
	name      string
	version   string
	storage   *Storage
	importer  *PSDImporter
	rigger    *Rigger
	generator *Generator
	exporter  *Exporter
	logger    *log.Logger
}

func newServer(name, version string, storage *Storage, importer *PSDImporter,
	rigger *Rigger, generator *Generator, exporter *Exporter, logger *log.Logger) *Server {
	return &Server{
		name:      name,
		version:   version,
		storage:   storage,
		importer:  importer,
		rigger:    rigger,
		generator: generator,
		exporter:  exporter,
		logger:    logger,
	}
}

func (s *Server) Run(in io.Reader, out io.Writer) error {
	s.logger.Printf("Starting %v v%v", s.name, s.version)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	enc := json.NewEncoder(out)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req rpcRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Printf("Failed to parse request: %s", line)
			continue
		}
		if err := enc.Encode(s.handle(&req)); err != nil {
			return Error("failed to write response: " + err.Error())
		}
	}
	if err := scanner.Err(); err != nil {
		return Error("failed to read request: " + err.Error())
	}
	s.logger.Printf("Server shutdown complete")
	return nil
}

func (s *Server) handle(req *rpcRequest) *rpcResponse {
	var result any
	var err error
	switch req.Method {
	case "listTools":
		result = s.listTools()
	case "callTool":
		result, err = s.callTool(req.Params)
	case "listResources":
		result = s.listResources()
	case "readResource":
		result, err = s.readResource(req.Params)
	default:
		err = &rpcError{Code: rpcMethodNotFound, Message: "Unknown method: " + req.Method}
	}
	if err != nil {
		rerr, ok := err.(*rpcError)
		if !ok {
			s.logger.Printf("Unexpected error: %v", err)
			rerr = &rpcError{Code: rpcInternalError, Message: err.Error()}
		}
		return &rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: rerr}
	}
	return &rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func (s *Server) listTools() any {
	return map[string]any{"tools": []toolSpec{
		{
			Name:        "import_psd",
			Description: "Upload and process a PSD file",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"file_path": {"type": "string", "description": "Path to PSD file"}
				},
				"required": ["file_path"]
			}`),
		},
		{
			Name:        "setup_character",
			Description: "Automatically rig the character",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"character_id": {"type": "string", "description": "Character ID from import_psd"}
				},
				"required": ["character_id"]
			}`),
		},
		{
			Name:        "generate_animation",
			Description: "Create animation from text description",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"character_id": {"type": "string", "description": "Character ID"},
					"description": {"type": "string", "description": "Animation description (e.g., 'wave happily')"}
				},
				"required": ["character_id", "description"]
			}`),
		},
		{
			Name:        "preview_animation",
			Description: "Get a preview of the animation",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"character_id": {"type": "string", "description": "Character ID"},
					"animation_id": {"type": "string", "description": "Animation ID"}
				},
				"required": ["character_id", "animation_id"]
			}`),
		},
		{
			Name:        "export_animation",
			Description: "Export the final animation",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"character_id": {"type": "string", "description": "Character ID"},
					"animation_id": {"type": "string", "description": "Animation ID"},
					"format": {"type": "string", "description": "Export format (json, gltf)", "enum": ["json", "gltf"]}
				},
				"required": ["character_id", "animation_id", "format"]
			}`),
		},
	}}
}

type toolArgs struct {
	FilePath    string `json:"file_path"`
	CharacterID string `json:"character_id"`
	AnimationID string `json:"animation_id"`
	Description string `json:"description"`
	Format      string `json:"format"`
}

func (s *Server) callTool(params json.RawMessage) (any, error) {
	var call struct {
		Name      string   `json:"name"`
		Arguments toolArgs `json:"arguments"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &call); err != nil {
			return nil, &rpcError{Code: rpcInvalidRequest, Message: "Invalid callTool params: " + err.Error()}
		}
	}
	args := call.Arguments
	switch call.Name {
	case "import_psd":
		return s.importPSD(args), nil
	case "setup_character":
		return s.setupCharacter(args), nil
	case "generate_animation":
		return s.generateAnimation(args), nil
	case "preview_animation":
		return s.previewAnimation(args), nil
	case "export_animation":
		return s.exportAnimation(args), nil
	default:
		return nil, &rpcError{Code: rpcMethodNotFound, Message: "Unknown tool: " + call.Name}
	}
}

func (s *Server) importPSD(args toolArgs) *toolResult {
	if args.FilePath == "" {
		return errorResult(s.logger, "Missing file_path parameter")
	}
	result, err := s.importer.Import(args.FilePath)
	if err != nil {
		return failureResult(s.logger, "Error importing PSD", err)
	}
	return successResult(map[string]any{
		"status":       "success",
		"message":      fmt.Sprintf("PSD file '%v' imported successfully", args.FilePath),
		"character_id": result.CharacterID,
		"layers_count": result.LayersCount,
		"dimensions":   result.Dimensions,
	})
}

func (s *Server) setupCharacter(args toolArgs) *toolResult {
	if args.CharacterID == "" {
		return errorResult(s.logger, "Missing character_id parameter")
	}
	result, err := s.rigger.Rig(args.CharacterID)
	if err != nil {
		return failureResult(s.logger, "Error setting up character", err)
	}
	return successResult(map[string]any{
		"status":         "success",
		"message":        fmt.Sprintf("Character '%v' rigged successfully", args.CharacterID),
		"rig_id":         result.RigID,
		"bones_count":    result.BoneCount,
		"ik_constraints": result.IKCount,
	})
}

func (s *Server) generateAnimation(args toolArgs) *toolResult {
	if args.CharacterID == "" || args.Description == "" {
		return errorResult(s.logger, "Missing character_id or description parameter")
	}
	result, err := s.generator.Generate(args.CharacterID, args.Description)
	if err != nil {
		return failureResult(s.logger, "Error generating animation", err)
	}
	return successResult(map[string]any{
		"status":         "success",
		"message":        fmt.Sprintf("Animation '%v' generated successfully", args.Description),
		"animation_id":   result.AnimationID,
		"animation_type": result.AnimationType,
		"emotion":        result.Emotion,
		"duration":       result.Duration,
	})
}

// previewAnimation is a JSON export behind a preview URL. A rendered frame
// strip would need the runtime; the merged skeleton document is what preview
// clients actually load.
func (s *Server) previewAnimation(args toolArgs) *toolResult {
	if args.CharacterID == "" || args.AnimationID == "" {
		return errorResult(s.logger, "Missing character_id or animation_id parameter")
	}
	result, err := s.exporter.Export(args.CharacterID, args.AnimationID, "json")
	if err != nil {
		return failureResult(s.logger, "Error generating preview", err)
	}
	return successResult(map[string]any{
		"status":      "success",
		"message":     fmt.Sprintf("Preview for animation '%v' generated", args.AnimationID),
		"preview_url": fileURL(result.FilePath),
		"export_id":   result.ExportID,
	})
}

func (s *Server) exportAnimation(args toolArgs) *toolResult {
	if args.CharacterID == "" || args.AnimationID == "" {
		return errorResult(s.logger, "Missing character_id or animation_id parameter")
	}
	result, err := s.exporter.Export(args.CharacterID, args.AnimationID, args.Format)
	if err != nil {
		return failureResult(s.logger, "Error exporting animation", err)
	}
	return successResult(map[string]any{
		"status":         "success",
		"message":        fmt.Sprintf("Animation '%v' exported as %v", args.AnimationID, result.Format),
		"export_url":     fileURL(result.FilePath),
		"export_id":      result.ExportID,
		"animation_name": result.AnimationName,
	})
}

func (s *Server) listResources() any {
	return map[string]any{"resources": []resourceSpec{
		{
			URI:         "spine2d://characters",
			Name:        "Available Characters",
			MimeType:    "application/json",
			Description: "List of available characters that have been imported",
		},
		{
			URI:         "spine2d://animations",
			Name:        "Generated Animations",
			MimeType:    "application/json",
			Description: "List of generated animations",
		},
		{
			URI:         "spine2d://exports",
			Name:        "Completed Exports",
			MimeType:    "application/json",
			Description: "List of completed animation exports",
		},
	}}
}

func (s *Server) readResource(params json.RawMessage) (any, error) {
	var p struct {
		URI string `json:"uri"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &rpcError{Code: rpcInvalidRequest, Message: "Invalid readResource params: " + err.Error()}
		}
	}
	var payload any
	switch p.URI {
	case "spine2d://characters":
		payload = s.storage.ListCharacters()
	case "spine2d://animations":
		payload = s.storage.ListAnimations("")
	case "spine2d://exports":
		payload = s.storage.ListExports("")
	default:
		return nil, &rpcError{Code: rpcInvalidRequest, Message: "Invalid URI: " + p.URI}
	}
	text, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, &rpcError{Code: rpcInternalError, Message: err.Error()}
	}
	return map[string]any{"contents": []resourceContent{
		{URI: p.URI, MimeType: "application/json", Text: string(text)},
	}}, nil
}

func successResult(payload map[string]any) *toolResult {
	text, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		text = []byte(`{"status": "error", "message": "failed to encode result"}`)
	}
	return &toolResult{Content: []toolContent{{Type: "text", Text: string(text)}}}
}

func errorResult(logger *log.Logger, message string) *toolResult {
	logger.Printf("Error response: %v", message)
	res := successResult(map[string]any{
		"status":  "error",
		"code":    KindInvalidInput,
		"message": message,
	})
	res.IsError = true
	return res
}

func failureResult(logger *log.Logger, context string, err error) *toolResult {
	message := context + ": " + err.Error()
	logger.Printf("Error response: %v", message)
	res := successResult(map[string]any{
		"status":  "error",
		"code":    errKind(err),
		"message": message,
	})
	res.IsError = true
	return res
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return "file://" + abs
}
