package report

import (
	"github.com/l5x-extractor/backend/internal/models"
)

// CompositeRenderer always writes the workbook and optionally the JSON and
// CSV side exports. The returned path is the workbook's; side-export
// failures surface as errors since the caller asked for them explicitly.
type CompositeRenderer struct {
	excel *ExcelRenderer
	json  *JSONExporter
	csv   *CSVExporter
}

// Options selects the side exports written next to each workbook.
type Options struct {
	WriteJSON bool
	WriteCSV  bool
}

func NewRenderer(opts Options) *CompositeRenderer {
	r := &CompositeRenderer{excel: NewExcelRenderer()}
	if opts.WriteJSON {
		r.json = NewJSONExporter()
	}
	if opts.WriteCSV {
		r.csv = NewCSVExporter()
	}
	return r
}

func (r *CompositeRenderer) Render(bundle *models.FixtureBundle, outputDir string) (string, error) {
	workbook, err := r.excel.Render(bundle, outputDir)
	if err != nil {
		return "", err
	}
	if r.json != nil {
		if _, err := r.json.Export(bundle, outputDir); err != nil {
			return workbook, err
		}
	}
	if r.csv != nil {
		if _, err := r.csv.Export(bundle, outputDir); err != nil {
			return workbook, err
		}
	}
	return workbook, nil
}
