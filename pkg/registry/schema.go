// pkg/registry/schema.go
package registry

type ToolRegistry struct {
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated"`
	Tools       []Tool `json:"tools"`
}

type Tool struct {
	ID          string                 `json:"id"`
	DisplayName string                 `json:"displayName"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	Destructive bool                   `json:"destructive"`
	ReadOnly    bool                   `json:"readOnly"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	Tags        []string               `json:"tags"`
}
