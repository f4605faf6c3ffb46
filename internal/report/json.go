package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/l5x-extractor/backend/internal/models"
)

// JSONExporter writes the full bundle as an indented JSON document next to
// the workbook, for downstream tooling that does not read xlsx.
type JSONExporter struct{}

func NewJSONExporter() *JSONExporter { return &JSONExporter{} }

func (e *JSONExporter) Export(bundle *models.FixtureBundle, outputDir string) (string, error) {
	path := filepath.Join(outputDir,
		fmt.Sprintf("%s_%s.json", bundle.FixtureName, bundle.RoutineName))

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing JSON export: %w", err)
	}
	return path, nil
}
