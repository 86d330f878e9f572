package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/suin/go-taml/core/cache"
	"github.com/suin/go-taml/core/errors"
	"github.com/suin/go-taml/core/render"
	"github.com/suin/go-taml/core/sgr"
	"github.com/suin/go-taml/core/taml"
	"github.com/suin/go-taml/internal/logging"
	"github.com/suin/go-taml/internal/server"
	"github.com/suin/go-taml/internal/validation"
)

// Version is reported by the root and health endpoints.
const Version = "1.0.0"

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error. Detail carries the structured form of
// a parse or conversion failure (kind, position, expected/found) when one
// is available.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Detail  interface{} `json:"detail,omitempty"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ParseRequest is the request body for /parse.
type ParseRequest struct {
	Source string `json:"source"`
}

// RenderRequest is the request body for /render.
type RenderRequest struct {
	Source   string `json:"source"`
	Renderer string `json:"renderer,omitempty"` // default "ansi"
}

// RenderResult is the result of a render.
type RenderResult struct {
	Renderer string `json:"renderer"`
	Output   string `json:"output"`
	Cached   bool   `json:"cached"`
	Duration string `json:"duration"`
}

// ConvertRequest is the request body for /convert. Source is legacy
// SGR-styled terminal text.
type ConvertRequest struct {
	Source string `json:"source"`
}

// ConvertResult is the result of a conversion to markup.
type ConvertResult struct {
	Output string `json:"output"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Renderers int    `json:"renderers"`
	Tags      int    `json:"tags"`
}

var startTime = time.Now()

// Parse trees and rendered outputs are cached across requests. Start
// resizes both from the active configuration.
var (
	documents  = cache.NewDefaultDocumentCache()
	renderings = cache.NewRenderCache(DefaultCacheEntries)
)

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"name":    "TAML API",
		"version": Version,
		"endpoints": []string{
			"GET /health",
			"GET /tags",
			"GET /renderers",
			"POST /parse",
			"POST /render",
			"POST /convert",
			"WS /ws",
		},
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	respond(w, http.StatusOK, HealthInfo{
		Status:    "healthy",
		Version:   Version,
		Uptime:    time.Since(startTime).String(),
		Renderers: len(render.Names()),
		Tags:      taml.TagCount,
	})
}

func handleTags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	names := taml.TagNames()
	tags := make([]sgr.Info, 0, len(names))
	for _, name := range names {
		if info, ok := sgr.InfoFor(name); ok {
			tags = append(tags, info)
		}
	}

	respondList(w, http.StatusOK, tags, len(tags))
}

func handleRenderers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	names := render.Names()
	respondList(w, http.StatusOK, names, len(names))
}

func handleParse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	var req ParseRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !checkSourceSize(w, req.Source) {
		return
	}

	doc, err := parseSource(req.Source)
	if err != nil {
		logging.ParseError("api", err)
		respondParseFailure(w, err)
		return
	}

	respond(w, http.StatusOK, doc)
}

func handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	var req RenderRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !checkSourceSize(w, req.Source) {
		return
	}

	name := req.Renderer
	if name == "" {
		name = "ansi"
	}
	if !server.ValidateIdentifier(name) {
		respondError(w, http.StatusBadRequest, "INVALID_RENDERER", "Renderer name contains invalid characters")
		return
	}

	start := time.Now()
	output, cached, err := renderSource(req.Source, name)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			respondError(w, http.StatusNotFound, "UNKNOWN_RENDERER", err.Error())
			return
		}
		logging.ParseError("api", err)
		respondParseFailure(w, err)
		return
	}

	respond(w, http.StatusOK, RenderResult{
		Renderer: name,
		Output:   string(output),
		Cached:   cached,
		Duration: time.Since(start).String(),
	})
}

func handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	var req ConvertRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !checkSourceSize(w, req.Source) {
		return
	}

	output, err := sgr.Convert(req.Source)
	if err != nil {
		logging.ParseError("api", err)
		var convErr *sgr.ConvertError
		if errors.As(err, &convErr) {
			respondErrorDetail(w, http.StatusUnprocessableEntity, "CONVERT_ERROR", convErr.Error(), convErr)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	respond(w, http.StatusOK, ConvertResult{Output: output})
}

// Helper functions

// parseSource parses markup through the document cache.
func parseSource(source string) (*taml.Document, error) {
	if doc, ok := documents.Get(source); ok {
		return doc, nil
	}

	doc, err := taml.Parse(source)
	if err != nil {
		return nil, err
	}

	documents.Put(source, doc)
	return doc, nil
}

// renderSource renders markup with the named renderer through both
// caches. The bool reports whether the output came from the render cache.
func renderSource(source, name string) ([]byte, bool, error) {
	r, err := render.Get(name)
	if err != nil {
		return nil, false, err
	}

	key := renderings.Key([]byte(source), name)
	if output, ok := renderings.Get(key); ok {
		return output, true, nil
	}

	doc, err := parseSource(source)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	output, err := r.Render(doc)
	if err != nil {
		return nil, false, err
	}

	renderings.Put(key, output)
	logging.RenderEvent(name, len(source), len(output), time.Since(start))

	return output, false, nil
}

// decodeRequest decodes a JSON request body, enforcing the configured
// content types and body size limit. On failure the error response has
// already been written and the return is false.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if !server.ValidateContentType(ct, server.AllowedRequestContentTypes) {
			respondError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE",
				"Content-Type must be application/json or text/plain")
			return false
		}
	}

	limit := ServerConfig.RequestSizeLimit
	if limit <= 0 {
		limit = DefaultConfig().RequestSizeLimit
	}

	body := http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE",
				fmt.Sprintf("Request body exceeds %d bytes", limit))
			return false
		}
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return false
	}

	return true
}

// checkSourceSize rejects markup inputs beyond the size limit. The body
// limit alone does not cover this: JSON escaping means a small body can
// decode to a source near the body limit, and the configured body limit
// may exceed the markup limit.
func checkSourceSize(w http.ResponseWriter, source string) bool {
	if len(source) > validation.MaxInputSize {
		respondError(w, http.StatusRequestEntityTooLarge, "INPUT_TOO_LARGE",
			fmt.Sprintf("Source exceeds %d bytes", validation.MaxInputSize))
		return false
	}
	return true
}

// respondParseFailure writes a parse error with its structured detail, or
// a generic 500 for anything that is not a *taml.ParseError.
func respondParseFailure(w http.ResponseWriter, err error) {
	var parseErr *taml.ParseError
	if errors.As(err, &parseErr) {
		respondErrorDetail(w, http.StatusUnprocessableEntity, "PARSE_ERROR", parseErr.Error(), parseErr)
		return
	}
	respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondList(w http.ResponseWriter, status int, data interface{}, total int) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Total:     total,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondErrorDetail(w, status, code, message, nil)
}

func respondErrorDetail(w http.ResponseWriter, status int, code, message string, detail interface{}) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Detail:  detail,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
