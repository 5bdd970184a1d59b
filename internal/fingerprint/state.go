package fingerprint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadEntries reads the subject -> fingerprint map. Returns an empty map if the file doesn't exist.
func LoadEntries(filePath string) (map[string]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	entries := map[string]string{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	return entries, nil
}

// SaveEntries writes the map as indented JSON through a temp file so a crash never leaves it half written.
func SaveEntries(filePath string, entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
