package extract

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/l5x-extractor/backend/internal/models"
)

// Part routine and sensor grammar. The sensor pattern is a narrow
// positional grammar: an XIC feeding an OTE with nothing but whitespace
// between them. Rungs with extra conditional terms between the two tokens
// are not matched - a known, accepted limitation, not a defect to fix here.
var (
	partRoutinePattern    = regexp.MustCompile(`Cm\d+_Part(\d+)`)
	sensorAssignmentPattern = regexp.MustCompile(`XIC\(([A-Za-z0-9_]+)\.Out\.Value\)\s+OTE\(Part(\d+)\.inpSensors\.(\d+)\)`)
)

// PartSensorExtractor locates Cm{digits}_Part{X} routines, maps sensor tags
// to (part, slot) pairs, and back-fills part assignments onto the digital
// input rows extracted earlier.
type PartSensorExtractor struct {
	routine *regexp.Regexp
	sensor  *regexp.Regexp
}

// NewPartSensorExtractor creates a part sensor extractor.
func NewPartSensorExtractor() *PartSensorExtractor {
	return &PartSensorExtractor{routine: partRoutinePattern, sensor: sensorAssignmentPattern}
}

func (e *PartSensorExtractor) Name() string { return "part_sensors" }

// Extract fills bundle.Parts and annotates bundle.DigitalInputs with their
// part assignments. Emits a validation warning when the number of Part
// routines disagrees with the number of part-type tag declarations.
func (e *PartSensorExtractor) Extract(scope *Scope, bundle *models.FixtureBundle) []models.Warning {
	var warnings []models.Warning

	sensorToParts := make(map[string][]string)
	bundle.Parts = make([]models.Part, 0)

	for _, p := range scope.Programs() {
		for i := range p.Routines {
			routine := &p.Routines[i]
			rm := e.routine.FindStringSubmatch(routine.Name)
			if rm == nil {
				continue
			}

			partIdx, _ := strconv.Atoi(rm[1])
			partLabel := "Part" + rm[1]
			part := models.Part{Index: partIdx, Routine: routine.Name}

			for _, m := range e.sensor.FindAllStringSubmatch(routine.Text(), -1) {
				sensorName := m[1]
				if m[2] != rm[1] {
					// Assignment addresses another part's sensor array.
					continue
				}
				slot, _ := strconv.Atoi(m[3])
				part.Sensors = append(part.Sensors, models.PartSensor{Sensor: sensorName, Slot: slot})

				if !containsString(sensorToParts[sensorName], partLabel) {
					sensorToParts[sensorName] = append(sensorToParts[sensorName], partLabel)
				}
			}

			bundle.Parts = append(bundle.Parts, part)
			scope.Log.Debug("part routine parsed",
				"routine", routine.Name, "part", partLabel, "sensors", len(part.Sensors))
		}
	}

	for i := range bundle.DigitalInputs {
		if parts, ok := sensorToParts[bundle.DigitalInputs[i].TagName]; ok {
			bundle.DigitalInputs[i].Parts = parts
		}
	}

	// The part-count invariant: one Part routine per part-type tag in scope.
	tagCount := 0
	for _, p := range scope.Programs() {
		tagCount += len(p.TagsOfType(scope.Conv.PartTagType))
	}
	if len(bundle.Parts) != tagCount {
		warnings = append(warnings, models.Warning{
			Kind: models.WarningValidation,
			Unit: scope.FixtureName,
			Message: fmt.Sprintf("part count mismatch: %d Part routines vs %d %s tags",
				len(bundle.Parts), tagCount, scope.Conv.PartTagType),
		})
	}

	return warnings
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
