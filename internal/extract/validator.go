package extract

import (
	"fmt"

	"github.com/l5x-extractor/backend/internal/models"
)

// ArrayValidator checks actuator index continuity for the MM groups a
// bundle references. Gaps are reported as warnings and annotated onto the
// affected actions for the renderer to highlight; the pipeline never aborts
// on a validation finding.
type ArrayValidator struct{}

// NewArrayValidator creates an array validator.
func NewArrayValidator() *ArrayValidator { return &ArrayValidator{} }

// Validate checks each distinct MM group once and attaches the result to
// every action referencing that group.
func (v *ArrayValidator) Validate(scope *Scope, bundle *models.FixtureBundle) []models.Warning {
	var warnings []models.Warning
	checks := make(map[string]models.ArrayCheck)

	for si := range bundle.Sequences {
		for sti := range bundle.Sequences[si].Steps {
			step := &bundle.Sequences[si].Steps[sti]
			for ai := range step.Actions {
				action := &step.Actions[ai]
				if action.MMNumber == "" {
					continue
				}

				check, ok := checks[action.MMNumber]
				if !ok {
					check = v.Check(scope, action.MMNumber, action.Actuators)
					checks[action.MMNumber] = check
					if !check.Valid {
						warnings = append(warnings, models.Warning{
							Kind: models.WarningValidation,
							Unit: check.ArrayName,
							Message: fmt.Sprintf("missing actuator descriptions for indices %v",
								check.MissingIndices),
						})
					}
				}

				c := check
				action.Validation = &c
			}
		}
	}

	return warnings
}

// Check reports the indices missing from one MM group's actuator set. The
// expected range comes from the MM{N}Cyls tag dimension when the tag
// exists (0..dim-1), otherwise from the observed min..max index range.
func (v *ArrayValidator) Check(scope *Scope, mmNumber string, actuators []models.Actuator) models.ArrayCheck {
	arrayName := mmNumber + "Cyls"
	check := models.ArrayCheck{
		ArrayName: arrayName,
		Found:     len(actuators),
		Valid:     true,
	}

	found := make(map[int]bool, len(actuators))
	lo, hi := 0, -1
	for i, a := range actuators {
		found[a.Index] = true
		if i == 0 || a.Index < lo {
			lo = a.Index
		}
		if a.Index > hi {
			hi = a.Index
		}
	}

	if dim, ok := v.arrayDimension(scope, arrayName); ok {
		check.Dimension = dim
		lo, hi = 0, dim-1
	} else if len(actuators) == 0 {
		// No tag and no observations: nothing to validate against.
		return check
	}

	var missing []int
	for idx := lo; idx <= hi; idx++ {
		if !found[idx] {
			missing = append(missing, idx)
		}
	}
	if len(missing) > 0 {
		check.Valid = false
		check.MissingIndices = missing
	}

	return check
}

func (v *ArrayValidator) arrayDimension(scope *Scope, arrayName string) (int, bool) {
	for _, p := range scope.Programs() {
		if tag := p.TagByName(arrayName); tag != nil {
			return tag.Dimension()
		}
	}
	for i := range scope.Doc.Controller.Tags {
		if scope.Doc.Controller.Tags[i].Name == arrayName {
			return scope.Doc.Controller.Tags[i].Dimension()
		}
	}
	return 0, false
}
