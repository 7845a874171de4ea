package request

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/clexlab/cdsfetch/internal/config"
	"github.com/clexlab/cdsfetch/internal/models"
)

// Dump serializes a selection to the queued-request directory for later
// replay by `scan`, and returns the file path. Urgent requests land in
// the Urgent subdirectory, which a wrapper picks up first.
func Dump(cfg config.Config, sel *models.SelectionRequest, urgent bool) (string, error) {
	dir := cfg.RequestDir
	if urgent {
		dir = filepath.Join(dir, "Urgent")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating request dir: %w", err)
	}
	data, err := json.MarshalIndent(sel, "", "  ")
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("cds_request_%s_%s.json",
		time.Now().Format("20060102150405"), uuid.NewString()[:8])
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing queued request: %w", err)
	}
	return path, nil
}

// LoadRequest reads a queued selection back and re-validates it, so a
// stale or hand-edited file fails before any work starts.
func LoadRequest(path string) (*models.SelectionRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading queued request: %w", err)
	}
	var sel models.SelectionRequest
	if err := json.Unmarshal(data, &sel); err != nil {
		return nil, fmt.Errorf("parsing queued request %s: %w", path, err)
	}
	return models.NewSelectionRequest(sel.Index, sel.Timestep, sel.Format,
		sel.Products, sel.Experiments, sel.Models, sel.Variables)
}
