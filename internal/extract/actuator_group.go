package extract

import (
	"strings"

	"github.com/l5x-extractor/backend/internal/models"
)

// ActuatorGroupExtractor collects actuator-group tags (AOI_Actuator) from
// the fixture's program scope. No cross-referencing with sequence data -
// the rows are enrichment for the report.
type ActuatorGroupExtractor struct{}

// NewActuatorGroupExtractor creates an actuator group extractor.
func NewActuatorGroupExtractor() *ActuatorGroupExtractor { return &ActuatorGroupExtractor{} }

func (e *ActuatorGroupExtractor) Name() string { return "actuator_groups" }

// Extract fills bundle.ActuatorGroups with (program, tag, description)
// rows for every group tag in scope.
func (e *ActuatorGroupExtractor) Extract(scope *Scope, bundle *models.FixtureBundle) []models.Warning {
	bundle.ActuatorGroups = make([]models.ActuatorGroup, 0)

	for _, p := range scope.Programs() {
		for _, tag := range p.TagsOfType(scope.Conv.ActuatorGroupType) {
			bundle.ActuatorGroups = append(bundle.ActuatorGroups, models.ActuatorGroup{
				Program:     p.Name,
				TagName:     tag.Name,
				Description: strings.TrimSpace(tag.Description),
			})
		}
	}

	scope.Log.Debug("actuator groups extracted", "count", len(bundle.ActuatorGroups))
	return nil
}
