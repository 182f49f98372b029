package poly

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadPolygon reads and parses a floor-plan JSON file.
func LoadPolygon(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return ParseDocument(data)
}

// ParseDocument parses floor-plan JSON data.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveJSON writes a refined document next to its pass-through keys. The
// four-space indent keeps output byte-compatible with the upstream dataset.
func SaveJSON(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling polygon JSON: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing polygon file: %w", err)
	}
	return nil
}

// SavePol writes serialized .pol text to disk.
func SavePol(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing .pol file: %w", err)
	}
	return nil
}
