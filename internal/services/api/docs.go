package api

import (
	"galactly/internal/modkit/httpkit"
	"galactly/internal/modkit/swaggerkit"
)

func init() { swaggerkit.Register(documentCaller) }

// documentCaller describes the caller headers every /api/v1 route reads
func documentCaller(spec map[string]any) {
	comps, ok := spec["components"].(map[string]any)
	if !ok {
		comps = map[string]any{}
		spec["components"] = comps
	}
	schemes, ok := comps["securitySchemes"].(map[string]any)
	if !ok {
		schemes = map[string]any{}
		comps["securitySchemes"] = schemes
	}
	schemes["AdminKey"] = map[string]any{"type": "apiKey", "in": "header", "name": httpkit.HeaderAdminKey}

	params, ok := comps["parameters"].(map[string]any)
	if !ok {
		params = map[string]any{}
		comps["parameters"] = params
	}
	params["Identity"] = header(httpkit.HeaderIdentity, "caller identity; claims and quota are per identity")
	params["Plan"] = header(httpkit.HeaderPlan, "plan tier: free, pro or vip")
}

func header(name, desc string) map[string]any {
	return map[string]any{
		"name":        name,
		"in":          "header",
		"required":    false,
		"description": desc,
		"schema":      map[string]any{"type": "string"},
	}
}
