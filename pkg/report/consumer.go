package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ReadReport loads report.json from reportDir.
func ReadReport(reportDir string) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(reportDir, "report.json"))
	if err != nil {
		return nil, err
	}
	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("parse report.json: %w", err)
	}
	return &index, nil
}

// atomicWriteJSON writes v to path through a temp file and rename, so pollers
// never see a partial file.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
