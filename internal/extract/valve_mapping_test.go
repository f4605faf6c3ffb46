package extract

import (
	"testing"

	"github.com/l5x-extractor/backend/internal/l5x"
	"github.com/l5x-extractor/backend/internal/models"
)

// valveDoc builds a two-program document: a fixture with one MM group and
// the shared routing program carrying the manifold block call.
func valveDoc(manifoldCall string) (*l5x.Document, *l5x.Program) {
	doc := &l5x.Document{
		SourceFile: "_010UA1_Export.L5X",
		Controller: l5x.Controller{Programs: []l5x.Program{
			{
				Name: "_010UA1_Fix",
				Routines: []l5x.Routine{{
					Name: "Cm010507_MM4",
					Rungs: []l5x.Rung{
						{Text: "XIC(Auto),XIC(MM4.outWork) OTE(Cmd4Work);"},
						{Text: "XIC(Auto),XIC(MM4.outHome) OTE(Cmd4Home);"},
					},
				}},
			},
			{
				Name: "MapIo",
				Routines: []l5x.Routine{{
					Name: "Valves",
					Rungs: []l5x.Rung{
						{Text: "XIC(_010UA1_Fix.Ready) " + manifoldCall},
					},
				}},
			},
		}},
	}
	return doc, &doc.Controller.Programs[0]
}

func multiScope(doc *l5x.Document, prog *l5x.Program) *Scope {
	scope := newTestScope(doc, prog, "EmStatesAndSequences01")
	scope.MultiFixture = true
	return scope
}

func TestValveMappingExtractor(t *testing.T) {
	ex := NewValveMappingExtractor()

	t.Run("binds command pair to first valve position", func(t *testing.T) {
		doc, prog := valveDoc("AOI_ValveManifold_V8(VM1,IO,_010UA1KJ1_KEB1_Hw,Per,Sts,Cmd4Work,Cmd4Home)")
		bundle := &models.FixtureBundle{}
		warnings := ex.Extract(multiScope(doc, prog), bundle)

		if len(warnings) != 0 {
			t.Fatalf("unexpected warnings: %v", warnings)
		}
		if len(bundle.ValveMappings) != 1 {
			t.Fatalf("mapping count = %d, want 1", len(bundle.ValveMappings))
		}

		vm := bundle.ValveMappings[0]
		if vm.MMNumber != "MM4" {
			t.Errorf("MMNumber = %q, want MM4", vm.MMNumber)
		}
		if vm.Manifold != "_010UA1KJ1_KEB1_Hw" {
			t.Errorf("Manifold = %q", vm.Manifold)
		}
		if vm.ValveWork != "1A" || vm.ValveHome != "1B" {
			t.Errorf("valves = %q/%q, want 1A/1B", vm.ValveWork, vm.ValveHome)
		}
	})

	t.Run("spare pairs are skipped and positions count past them", func(t *testing.T) {
		doc, prog := valveDoc(
			"AOI_ValveManifold_V8(VM1,IO,Mani,Per,Sts,IO:3:O.Spare.DO.0,IO:3:O.Spare.DO.1,Cmd4Work,Cmd4Home)")
		bundle := &models.FixtureBundle{}
		ex.Extract(multiScope(doc, prog), bundle)

		if len(bundle.ValveMappings) != 1 {
			t.Fatalf("mapping count = %d, want 1", len(bundle.ValveMappings))
		}
		vm := bundle.ValveMappings[0]
		if vm.ValveWork != "2A" || vm.ValveHome != "2B" {
			t.Errorf("valves = %q/%q, want 2A/2B", vm.ValveWork, vm.ValveHome)
		}
	})

	t.Run("monostable side reports no position", func(t *testing.T) {
		doc, prog := valveDoc(
			"AOI_ValveManifold_V8(VM1,IO,Mani,Per,Sts,Cmd4Work,IO:3:O.Spare.DO.1)")
		bundle := &models.FixtureBundle{}
		ex.Extract(multiScope(doc, prog), bundle)

		if len(bundle.ValveMappings) != 1 {
			t.Fatalf("mapping count = %d, want 1", len(bundle.ValveMappings))
		}
		vm := bundle.ValveMappings[0]
		if vm.ValveWork != "1A" || vm.ValveHome != "N/A" {
			t.Errorf("valves = %q/%q, want 1A and N/A", vm.ValveWork, vm.ValveHome)
		}
	})

	t.Run("rungs not referencing the fixture are ignored", func(t *testing.T) {
		doc, prog := valveDoc("AOI_ValveManifold_V8(VM1,IO,Mani,Per,Sts,Cmd4Work,Cmd4Home)")
		// Rewrite the routing rung to mention a different fixture.
		routing := doc.ProgramByName("MapIo")
		routing.Routines[0].Rungs[0].Text =
			"XIC(_020UB2_Fix.Ready) AOI_ValveManifold_V8(VM1,IO,Mani,Per,Sts,Cmd4Work,Cmd4Home)"

		bundle := &models.FixtureBundle{}
		ex.Extract(multiScope(doc, prog), bundle)

		if len(bundle.ValveMappings) != 0 {
			t.Errorf("mappings = %v, want none", bundle.ValveMappings)
		}
	})

	t.Run("missing routing program records an extraction gap", func(t *testing.T) {
		doc, prog := valveDoc("AOI_ValveManifold_V8(VM1,IO,Mani,Per,Sts,Cmd4Work,Cmd4Home)")
		doc.Controller.Programs = doc.Controller.Programs[:1]

		bundle := &models.FixtureBundle{}
		warnings := ex.Extract(multiScope(doc, prog), bundle)

		if len(warnings) != 1 || warnings[0].Kind != models.WarningExtractionGap {
			t.Fatalf("warnings = %v", warnings)
		}
	})

	t.Run("single-fixture mode always yields an empty set", func(t *testing.T) {
		doc, prog := valveDoc("AOI_ValveManifold_V8(VM1,IO,Mani,Per,Sts,Cmd4Work,Cmd4Home)")
		scope := newTestScope(doc, prog, "EmStatesAndSequences01")
		scope.MultiFixture = false

		bundle := &models.FixtureBundle{}
		warnings := ex.Extract(scope, bundle)

		if len(warnings) != 0 {
			t.Fatalf("unexpected warnings: %v", warnings)
		}
		if bundle.ValveMappings == nil || len(bundle.ValveMappings) != 0 {
			t.Errorf("mappings = %v, want empty non-nil", bundle.ValveMappings)
		}
	})
}
