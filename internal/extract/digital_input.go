package extract

import (
	"strings"

	"github.com/l5x-extractor/backend/internal/models"
)

// DigitalInputExtractor scans the scope for tags of the digital-input UDT
// and emits one row per declaration. Duplicates across programs are kept -
// they are genuinely distinct wiring points. Part assignments are filled in
// afterwards by the part-sensor extractor.
type DigitalInputExtractor struct{}

// NewDigitalInputExtractor creates a digital input extractor.
func NewDigitalInputExtractor() *DigitalInputExtractor { return &DigitalInputExtractor{} }

func (e *DigitalInputExtractor) Name() string { return "digital_inputs" }

// Extract fills bundle.DigitalInputs with every digital-input tag in scope.
func (e *DigitalInputExtractor) Extract(scope *Scope, bundle *models.FixtureBundle) []models.Warning {
	bundle.DigitalInputs = make([]models.DigitalInput, 0)

	for _, p := range scope.Programs() {
		for _, tag := range p.TagsOfType(scope.Conv.DigitalInputType) {
			bundle.DigitalInputs = append(bundle.DigitalInputs, models.DigitalInput{
				Program:     p.Name,
				TagName:     tag.Name,
				Description: strings.TrimSpace(tag.Description),
				ParentName:  tag.ParentName(),
			})
		}
	}

	scope.Log.Debug("digital inputs extracted", "count", len(bundle.DigitalInputs))
	return nil
}
