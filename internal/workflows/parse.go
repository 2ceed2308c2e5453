package workflows

import (
	"encoding/json"
	"fmt"
)

// UnmarshalWorkflows decodes a top-level JSON array of workflows.
func UnmarshalWorkflows(data []byte) ([]*Workflow, error) {
	var wfs []*Workflow
	if err := json.Unmarshal(data, &wfs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflows: %w", err)
	}
	return wfs, nil
}

// MarshalWorkflows encodes workflows as an indented JSON array.
func MarshalWorkflows(wfs []*Workflow) ([]byte, error) {
	if wfs == nil {
		wfs = []*Workflow{}
	}
	data, err := json.MarshalIndent(wfs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workflows: %w", err)
	}
	return data, nil
}
