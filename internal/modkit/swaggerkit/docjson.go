package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/swaggo/swag/v2"

	"galactly/internal/platform/config"
)

// InstanceName is the swag registry name the api docs package registers under
const InstanceName = "api"

const skeleton = `{"openapi":"3.0.3","info":{"title":"API","version":"0.0.0"},"paths":{}}`

// SpecMutator adjusts the parsed spec before it is served
type SpecMutator func(map[string]any)

var (
	mu       sync.Mutex
	mutators []SpecMutator
)

// docReader is a seam for tests; an unregistered instance serves the skeleton
var docReader = func() string {
	doc, err := swag.ReadDoc(InstanceName)
	if err != nil {
		return skeleton
	}
	return doc
}

// Register adds a spec mutator, usually from a package init
func Register(m SpecMutator) {
	if m == nil {
		return
	}
	mu.Lock()
	mutators = append(mutators, m)
	mu.Unlock()
}

// defaultResponses are attached to operations that do not declare the status themselves
// reasons mirror what the error mapper writes
var defaultResponses = []struct {
	status int
	code   string
	reason string
	errMsg string
}{
	{http.StatusBadRequest, "400", "validation", "lead_id is a required field"},
	{http.StatusTooManyRequests, "429", "rate_limited", "too many requests"},
	{http.StatusInternalServerError, "500", "", "panic recovered"},
}

func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}

		ensureOAS3(spec, "/api/v1")
		if v := config.New().Prefix("CORE_API_").MayString("DOCS_TITLE_SUFFIX", ""); v != "" {
			if info, ok := spec["info"].(map[string]any); ok {
				if title, ok := info["title"].(string); ok {
					info["title"] = title + " " + v
				}
			}
		}
		ensureErrorSchema(spec)
		for _, d := range defaultResponses {
			addDefaultResponse(spec, d.code, errorResponse(d.status, d.reason, d.errMsg))
		}

		mu.Lock()
		ms := append([]SpecMutator(nil), mutators...)
		mu.Unlock()
		for _, m := range ms {
			m(spec)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// ensureOAS3 lifts swagger 2 and downgrades 3.1 to 3.0.3, which the UI renders, and sets servers
func ensureOAS3(spec map[string]any, url string) {
	if _, ok := spec["swagger"]; ok {
		delete(spec, "swagger")
		spec["openapi"] = "3.0.3"
	}
	if v, ok := spec["openapi"].(string); !ok || strings.HasPrefix(v, "3.1") {
		spec["openapi"] = "3.0.3"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": url}}
	}
}

// child returns m[key] as a map, creating it when missing
func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}

// ensureErrorSchema adds the error envelope model unless the document declares one
func ensureErrorSchema(spec map[string]any) {
	schemas := child(child(spec, "components"), "schemas")
	if _, ok := schemas["ErrorResponse"]; ok {
		return
	}
	schemas["ErrorResponse"] = map[string]any{
		"type":        "object",
		"description": "Error envelope",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer", "format": "int32"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "integer", "format": "int32"},
			"reason":      map[string]any{"type": "string"},
			"error":       map[string]any{"type": "string"},
			"details":     map[string]any{"type": "object", "additionalProperties": true},
			"request_id":  map[string]any{"type": "string"},
		},
		"required": []any{"status_code", "status"},
	}
}

func errorResponse(status int, reason, msg string) map[string]any {
	example := map[string]any{
		"status_code": status,
		"status":      http.StatusText(status),
		"error":       msg,
		"request_id":  "api-7f3c/000042",
	}
	if reason != "" {
		example["reason"] = reason
	}
	return map[string]any{
		"description": http.StatusText(status),
		"content": map[string]any{
			"application/json": map[string]any{
				"schema":  map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
				"example": example,
			},
		},
	}
}

// addDefaultResponse sets responses[code] on every operation that lacks it
func addDefaultResponse(spec map[string]any, code string, resp map[string]any) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		return
	}
	for _, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			resps := child(op, "responses")
			if _, exists := resps[code]; !exists {
				resps[code] = resp
			}
		}
	}
}
