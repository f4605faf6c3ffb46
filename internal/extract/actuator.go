package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/l5x-extractor/backend/internal/l5x"
	"github.com/l5x-extractor/backend/internal/models"
)

// ActuatorExtractor resolves the actuator descriptions behind each action's
// MM group: it locates the Cm{digits}_MM{N} routine and parses its
// MOVE('DESCRIPTION', MM{N}Cyls[INDEX].Stg.Name) statements. A group whose
// routine is missing keeps an empty actuator list and records an extraction
// gap - downstream validation flags it, nothing is dropped.
type ActuatorExtractor struct{}

// NewActuatorExtractor creates an actuator extractor.
func NewActuatorExtractor() *ActuatorExtractor { return &ActuatorExtractor{} }

func (e *ActuatorExtractor) Name() string { return "actuators" }

// Extract resolves actuators for every MM group referenced by the bundle's
// actions. Each group is resolved once and shared across its actions.
func (e *ActuatorExtractor) Extract(scope *Scope, bundle *models.FixtureBundle) []models.Warning {
	var warnings []models.Warning
	cache := make(map[string][]models.Actuator)

	for si := range bundle.Sequences {
		for sti := range bundle.Sequences[si].Steps {
			step := &bundle.Sequences[si].Steps[sti]
			for ai := range step.Actions {
				action := &step.Actions[ai]
				if action.MMNumber == "" {
					continue
				}

				acts, ok := cache[action.MMNumber]
				if !ok {
					var w *models.Warning
					acts, w = e.FindForMM(scope, action.MMNumber)
					if w != nil {
						warnings = append(warnings, *w)
					}
					cache[action.MMNumber] = acts
				}

				action.Actuators = append([]models.Actuator(nil), acts...)
			}
		}
	}

	return warnings
}

// FindForMM locates the MM routine for one group and parses its MOVE
// statements into one actuator per distinct array index (last assignment
// wins on duplicates, matching the source logic).
func (e *ActuatorExtractor) FindForMM(scope *Scope, mmNumber string) ([]models.Actuator, *models.Warning) {
	routine := findMMRoutine(scope, mmNumber)
	if routine == nil {
		return nil, &models.Warning{
			Kind:    models.WarningExtractionGap,
			Unit:    scope.FixtureName,
			Message: fmt.Sprintf("no MM routine found for %s", mmNumber),
		}
	}

	movePattern := regexp.MustCompile(
		fmt.Sprintf(`MOVE\('([^']+)',\s*%sCyls\[(\d+)\]\.Stg\.Name\)`, regexp.QuoteMeta(mmNumber)))

	byIndex := make(map[int]string)
	for _, m := range movePattern.FindAllStringSubmatch(routine.Text(), -1) {
		idx, _ := strconv.Atoi(m[2])
		byIndex[idx] = m[1]
	}

	if len(byIndex) == 0 {
		return nil, &models.Warning{
			Kind:    models.WarningExtractionGap,
			Unit:    routine.Name,
			Message: fmt.Sprintf("no MOVE statements matched for %s", mmNumber),
		}
	}

	indices := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	actuators := make([]models.Actuator, 0, len(indices))
	for _, idx := range indices {
		actuators = append(actuators, models.Actuator{
			Index:       idx,
			Description: byIndex[idx],
			MMNumber:    mmNumber,
		})
	}

	scope.Log.Debug("actuators resolved",
		"mm", mmNumber, "routine", routine.Name, "count", len(actuators))

	return actuators, nil
}

// findMMRoutine finds the routine owning an MM group; names end in _MM{N}
// or embed _MM{N}_ (e.g. Cm010507_MM4).
func findMMRoutine(scope *Scope, mmNumber string) *l5x.Routine {
	suffix := "_" + mmNumber
	infix := "_" + mmNumber + "_"
	for _, p := range scope.Programs() {
		for i := range p.Routines {
			name := p.Routines[i].Name
			if strings.HasSuffix(name, suffix) || strings.Contains(name, infix) {
				return &p.Routines[i]
			}
		}
	}
	return nil
}
