package policy

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed policies/bulk_operations.json
var policiesFS embed.FS

const policyFile = "policies/bulk_operations.json"

// Loader loads policy configuration from embedded JSON files
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

func (l *Loader) Load() (*Document, error) {
	data, err := policiesFS.ReadFile(policyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", policyFile, err)
	}
	return Parse(data)
}

// Parse decodes and checks a policy document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	for _, route := range doc.Routes {
		if _, ok := doc.Actions[route.Action]; !ok {
			return nil, fmt.Errorf("route %s references unknown action %q", route.Key(), route.Action)
		}
		for _, action := range route.AlsoRequires {
			if _, ok := doc.Actions[action]; !ok {
				return nil, fmt.Errorf("route %s references unknown action %q", route.Key(), action)
			}
		}
	}
	return &doc, nil
}
