package extract

import (
	"testing"

	"github.com/l5x-extractor/backend/internal/l5x"
	"github.com/l5x-extractor/backend/internal/models"
)

func TestActuatorExtractor(t *testing.T) {
	ex := NewActuatorExtractor()

	mmRoutine := func(name string, rungs ...string) l5x.Routine {
		r := l5x.Routine{Name: name, Type: "RLL"}
		for i, text := range rungs {
			r.Rungs = append(r.Rungs, l5x.Rung{Number: i, Text: text})
		}
		return r
	}

	t.Run("resolves MOVE statements into indexed actuators", func(t *testing.T) {
		doc, prog := stDoc("EmStatesAndSequences01")
		prog.Routines = append(prog.Routines, mmRoutine("Cm12_MM4",
			"MOVE('Clamp Forward', MM4Cyls[0].Stg.Name)",
			"MOVE('Clamp Return', MM4Cyls[1].Stg.Name)",
		))
		scope := newTestScope(doc, prog, "EmStatesAndSequences01")

		actuators, warning := ex.FindForMM(scope, "MM4")
		if warning != nil {
			t.Fatalf("unexpected warning: %v", warning)
		}
		if len(actuators) != 2 {
			t.Fatalf("actuator count = %d, want 2", len(actuators))
		}
		if actuators[0].Index != 0 || actuators[0].Description != "Clamp Forward" {
			t.Errorf("actuator[0] = %+v", actuators[0])
		}
		if actuators[1].Index != 1 || actuators[1].MMNumber != "MM4" {
			t.Errorf("actuator[1] = %+v", actuators[1])
		}
	})

	t.Run("duplicate index keeps the later description", func(t *testing.T) {
		doc, prog := stDoc("EmStatesAndSequences01")
		prog.Routines = append(prog.Routines, mmRoutine("Cm12_MM4",
			"MOVE('Old Name', MM4Cyls[0].Stg.Name)",
			"MOVE('New Name', MM4Cyls[0].Stg.Name)",
		))
		scope := newTestScope(doc, prog, "EmStatesAndSequences01")

		actuators, _ := ex.FindForMM(scope, "MM4")
		if len(actuators) != 1 || actuators[0].Description != "New Name" {
			t.Errorf("actuators = %v", actuators)
		}
	})

	t.Run("group number must match exactly", func(t *testing.T) {
		doc, prog := stDoc("EmStatesAndSequences01")
		prog.Routines = append(prog.Routines, mmRoutine("Cm12_MM14",
			"MOVE('Other Group', MM14Cyls[0].Stg.Name)",
		))
		scope := newTestScope(doc, prog, "EmStatesAndSequences01")

		// MM1 must not bind to the MM14 routine's MOVE statements.
		_, warning := ex.FindForMM(scope, "MM1")
		if warning == nil {
			t.Fatal("expected a warning for MM1")
		}
	})

	t.Run("missing MM routine records an extraction gap", func(t *testing.T) {
		doc, prog := stDoc("EmStatesAndSequences01")
		scope := newTestScope(doc, prog, "EmStatesAndSequences01")

		actuators, warning := ex.FindForMM(scope, "MM9")
		if actuators != nil {
			t.Errorf("actuators = %v, want nil", actuators)
		}
		if warning == nil || warning.Kind != models.WarningExtractionGap {
			t.Fatalf("warning = %v", warning)
		}
	})

	t.Run("routine with no MOVE matches records an extraction gap", func(t *testing.T) {
		doc, prog := stDoc("EmStatesAndSequences01")
		prog.Routines = append(prog.Routines, mmRoutine("Cm12_MM4", "XIC(a) OTE(b)"))
		scope := newTestScope(doc, prog, "EmStatesAndSequences01")

		_, warning := ex.FindForMM(scope, "MM4")
		if warning == nil || warning.Kind != models.WarningExtractionGap {
			t.Fatalf("warning = %v", warning)
		}
	})

	t.Run("Extract shares one resolution across actions of a group", func(t *testing.T) {
		doc, prog := stDoc("EmStatesAndSequences01")
		prog.Routines = append(prog.Routines, mmRoutine("Cm12_MM4",
			"MOVE('Clamp Forward', MM4Cyls[0].Stg.Name)",
		))
		scope := newTestScope(doc, prog, "EmStatesAndSequences01")

		bundle := &models.FixtureBundle{Sequences: []models.Sequence{{
			Index: 1,
			Steps: []models.Step{{Index: 0, Actions: []models.Action{
				{Slot: 0, Name: "ActionMM4Work", MMNumber: "MM4"},
				{Slot: 1, Name: "ActionMM4Home", MMNumber: "MM4"},
				{Slot: 2, Name: "ActionWait"},
			}}},
		}}}

		warnings := ex.Extract(scope, bundle)
		if len(warnings) != 0 {
			t.Fatalf("unexpected warnings: %v", warnings)
		}

		actions := bundle.Sequences[0].Steps[0].Actions
		if len(actions[0].Actuators) != 1 || len(actions[1].Actuators) != 1 {
			t.Errorf("group actions missing actuators: %v", actions)
		}
		if len(actions[2].Actuators) != 0 {
			t.Errorf("MM-less action gained actuators: %v", actions[2].Actuators)
		}
	})
}
