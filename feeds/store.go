package feeds

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes items as indented JSON, creating parent directories as needed.
func Save(items []Item, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create news dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal news items: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads items previously written by Save.
func Load(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read news file: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse news file: %w", err)
	}
	return items, nil
}
