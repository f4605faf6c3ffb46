package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/l5x-extractor/backend/internal/models"
)

// fakeRenderer records every bundle it is handed and fabricates workbook
// paths without touching disk.
type fakeRenderer struct {
	bundles []*models.FixtureBundle
	dirs    []string
	fail    bool
}

func (r *fakeRenderer) Render(bundle *models.FixtureBundle, outputDir string) (string, error) {
	if r.fail {
		return "", errors.New("render failed")
	}
	r.bundles = append(r.bundles, bundle)
	r.dirs = append(r.dirs, outputDir)
	return filepath.Join(outputDir,
		fmt.Sprintf("%s_%s.xlsx", bundle.FixtureName, bundle.RoutineName)), nil
}

const singleFixtureL5X = `<?xml version="1.0" encoding="UTF-8"?>
<RSLogix5000Content TargetName="Line1">
  <Controller Name="Line1">
    <Programs>
      <Program Name="_010UA1_Fix">
        <Tags>
          <Tag Name="MM4Cyls" DataType="UDT_Cyl" Dimensions="2"/>
          <Tag Name="MM4" DataType="AOI_Actuator">
            <Description>Clamp group</Description>
          </Tag>
          <Tag Name="Part1" DataType="AOI_Part"/>
          <Tag Name="SensorA" DataType="UDT_DigitalInputHal">
            <Description>Part sensor A</Description>
            <Data Format="Decorated">
              <Structure DataType="UDT_DigitalInputHal">
                <StructureMember Name="Cfg" DataType="UDT_DigitalInputCfg">
                  <StructureMember Name="ParentName" DataType="STRING">
                    <DataValueMember Name="DATA" DataType="ASCII">'Frame1'</DataValueMember>
                  </StructureMember>
                </StructureMember>
              </Structure>
            </Data>
          </Tag>
        </Tags>
        <Routines>
          <Routine Name="EmStatesAndSequences01" Type="ST">
            <STContent>
              <Line Number="0"><![CDATA[#region Sequence 1 - Clamp]]></Line>
              <Line Number="1"><![CDATA[EmSeqList[1][0][0] := ActionMM4Work.outActionNum;]]></Line>
              <Line Number="2"><![CDATA[EmSeqList[1][1][0] := ActionMM4Home.outActionNum;]]></Line>
              <Line Number="3"><![CDATA[#region Transition State 1 - Ready]]></Line>
              <Line Number="4"><![CDATA[EmTransitionStates[1].AutoStartPerms.0 := Part1.Present; //part loaded]]></Line>
            </STContent>
          </Routine>
          <Routine Name="Cm010507_MM4" Type="RLL">
            <RLLContent>
              <Rung Number="0"><Text><![CDATA[MOVE('Clamp Forward', MM4Cyls[0].Stg.Name)]]></Text></Rung>
              <Rung Number="1"><Text><![CDATA[MOVE('Clamp Return', MM4Cyls[1].Stg.Name)]]></Text></Rung>
            </RLLContent>
          </Routine>
          <Routine Name="Cm010507_Part1" Type="RLL">
            <RLLContent>
              <Rung Number="0"><Text><![CDATA[XIC(SensorA.Out.Value) OTE(Part1.inpSensors.0)]]></Text></Rung>
            </RLLContent>
          </Routine>
        </Routines>
      </Program>
    </Programs>
  </Controller>
</RSLogix5000Content>`

const multiFixtureL5X = `<?xml version="1.0" encoding="UTF-8"?>
<RSLogix5000Content TargetName="Line2">
  <Controller Name="Line2">
    <Programs>
      <Program Name="_010UA1_Fix">
        <Routines>
          <Routine Name="EmStatesAndSequences01" Type="ST">
            <STContent>
              <Line Number="0"><![CDATA[EmSeqList[1][0][0] := ActionMM4Work.outActionNum;]]></Line>
            </STContent>
          </Routine>
          <Routine Name="Cm010507_MM4" Type="RLL">
            <RLLContent>
              <Rung Number="0"><Text><![CDATA[MOVE('Clamp Forward', MM4Cyls[0].Stg.Name)]]></Text></Rung>
              <Rung Number="1"><Text><![CDATA[XIC(Auto),XIC(MM4.outWork) OTE(Cmd4Work)]]></Text></Rung>
              <Rung Number="2"><Text><![CDATA[XIC(Auto),XIC(MM4.outHome) OTE(Cmd4Home)]]></Text></Rung>
            </RLLContent>
          </Routine>
        </Routines>
      </Program>
      <Program Name="_020UB2_Fix">
        <Routines>
          <Routine Name="EmStatesAndSequences01" Type="ST">
            <STContent>
              <Line Number="0"><![CDATA[EmSeqList[1][0][0] := ActionMM7Work.outActionNum;]]></Line>
            </STContent>
          </Routine>
          <Routine Name="Cm020301_MM7" Type="RLL">
            <RLLContent>
              <Rung Number="0"><Text><![CDATA[MOVE('Lift Up', MM7Cyls[0].Stg.Name)]]></Text></Rung>
              <Rung Number="1"><Text><![CDATA[XIC(Auto),XIC(MM7.outWork) OTE(Cmd7Work)]]></Text></Rung>
              <Rung Number="2"><Text><![CDATA[XIC(Auto),XIC(MM7.outHome) OTE(Cmd7Home)]]></Text></Rung>
            </RLLContent>
          </Routine>
        </Routines>
      </Program>
      <Program Name="MapIo">
        <Routines>
          <Routine Name="Valves" Type="RLL">
            <RLLContent>
              <Rung Number="0"><Text><![CDATA[XIC(_010UA1_Fix.Ready) AOI_ValveManifold_V8(VM1,IO,_010UA1KJ1_KEB1_Hw,Per,Sts,Cmd4Work,Cmd4Home)]]></Text></Rung>
              <Rung Number="1"><Text><![CDATA[XIC(_020UB2_Fix.Ready) AOI_ValveManifold_V8(VM2,IO,_020UB2KJ1_KEB1_Hw,Per,Sts,Cmd7Work,Cmd7Home)]]></Text></Rung>
            </RLLContent>
          </Routine>
        </Routines>
      </Program>
    </Programs>
  </Controller>
</RSLogix5000Content>`

const noFixtureL5X = `<?xml version="1.0" encoding="UTF-8"?>
<RSLogix5000Content TargetName="Line3">
  <Controller Name="Line3">
    <Programs>
      <Program Name="MainProgram">
        <Routines>
          <Routine Name="EmStatesAndSequences01" Type="ST">
            <STContent>
              <Line Number="0"><![CDATA[EmSeqList[1][0][0] := ActionMM4Work.outActionNum;]]></Line>
            </STContent>
          </Routine>
        </Routines>
      </Program>
    </Programs>
  </Controller>
</RSLogix5000Content>`

func writeL5X(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPipelineRun(t *testing.T) {
	t.Run("single fixture renders flat into the output folder", func(t *testing.T) {
		path := writeL5X(t, "_010UA1_Export.L5X", singleFixtureL5X)
		out := t.TempDir()
		renderer := &fakeRenderer{}

		result, err := New(nil, renderer, nil).Run(path, out)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if result.MultiFixture {
			t.Error("single fixture flagged as multi")
		}
		if len(result.Bundles) != 1 {
			t.Fatalf("bundle count = %d, want 1", len(result.Bundles))
		}
		if len(renderer.dirs) != 1 || renderer.dirs[0] != out {
			t.Errorf("render dirs = %v, want flat %q", renderer.dirs, out)
		}

		bundle := result.Bundles[0]
		if bundle.FixtureName != "010UA1_Fix" {
			t.Errorf("fixture name = %q", bundle.FixtureName)
		}
		if len(bundle.Sequences) != 1 || len(bundle.Sequences[0].Steps) != 2 {
			t.Errorf("sequences = %v", bundle.Sequences)
		}
		if len(bundle.Transitions) != 1 || bundle.Transitions[0].Name != "Ready" {
			t.Errorf("transitions = %v", bundle.Transitions)
		}
		if len(bundle.DigitalInputs) != 1 || bundle.DigitalInputs[0].ParentName != "Frame1" {
			t.Errorf("inputs = %v", bundle.DigitalInputs)
		}
		if got := bundle.DigitalInputs[0].Parts; len(got) != 1 || got[0] != "Part1" {
			t.Errorf("input parts = %v", got)
		}
		if len(bundle.ActuatorGroups) != 1 {
			t.Errorf("groups = %v", bundle.ActuatorGroups)
		}

		action := bundle.Sequences[0].Steps[0].Actions[0]
		if len(action.Actuators) != 2 {
			t.Fatalf("actuators = %v", action.Actuators)
		}
		if action.Validation == nil || !action.Validation.Valid {
			t.Errorf("validation = %+v", action.Validation)
		}

		if len(result.Outputs) != 1 {
			t.Fatalf("outputs = %v", result.Outputs)
		}
		if got := filepath.Base(result.Outputs[0].WorkbookPath); got != "010UA1_Fix_EmStatesAndSequences01.xlsx" {
			t.Errorf("workbook = %q", got)
		}
	})

	t.Run("multi fixture gets one subfolder per program", func(t *testing.T) {
		path := writeL5X(t, "Line2_Export.L5X", multiFixtureL5X)
		out := t.TempDir()
		renderer := &fakeRenderer{}

		result, err := New(nil, renderer, nil).Run(path, out)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if !result.MultiFixture {
			t.Fatal("expected multi-fixture mode")
		}
		if len(result.Bundles) != 2 {
			t.Fatalf("bundle count = %d, want 2", len(result.Bundles))
		}

		for _, program := range []string{"_010UA1_Fix", "_020UB2_Fix"} {
			dir := filepath.Join(out, program)
			if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
				t.Errorf("fixture subfolder %q missing", dir)
			}
		}

		// Valve mappings only bind commands belonging to the fixture.
		first := result.Bundles[0]
		if len(first.ValveMappings) != 1 {
			t.Fatalf("first fixture mappings = %v", first.ValveMappings)
		}
		vm := first.ValveMappings[0]
		if vm.MMNumber != "MM4" || vm.Manifold != "_010UA1KJ1_KEB1_Hw" {
			t.Errorf("mapping = %+v", vm)
		}
		if vm.ValveWork != "1A" || vm.ValveHome != "1B" {
			t.Errorf("valves = %q/%q", vm.ValveWork, vm.ValveHome)
		}

		second := result.Bundles[1]
		if len(second.ValveMappings) != 1 || second.ValveMappings[0].MMNumber != "MM7" {
			t.Errorf("second fixture mappings = %v", second.ValveMappings)
		}
	})

	t.Run("no fixture program falls back to the whole file", func(t *testing.T) {
		path := writeL5X(t, "Line3_Export.L5X", noFixtureL5X)
		renderer := &fakeRenderer{}

		result, err := New(nil, renderer, nil).Run(path, t.TempDir())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if result.MultiFixture {
			t.Error("fallback mode flagged as multi")
		}
		if len(result.Bundles) != 1 {
			t.Fatalf("bundle count = %d, want 1", len(result.Bundles))
		}
		if got := result.Bundles[0].FixtureName; got != "complete" {
			t.Errorf("fixture name = %q, want complete", got)
		}

		// One warning for the fallback itself, one for the tokenless name.
		resolution := 0
		for _, w := range result.Warnings {
			if w.Kind == models.WarningResolution {
				resolution++
			}
		}
		if resolution != 2 {
			t.Errorf("resolution warnings = %d, want 2\n%v", resolution, result.Warnings)
		}
	})

	t.Run("fixture token in the filename names the fallback fixture", func(t *testing.T) {
		path := writeL5X(t, "_010UA1_Export.L5X", noFixtureL5X)
		renderer := &fakeRenderer{}

		result, err := New(nil, renderer, nil).Run(path, t.TempDir())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if got := result.Bundles[0].FixtureName; got != "010UA1" {
			t.Errorf("fixture name = %q, want 010UA1", got)
		}

		resolution := 0
		for _, w := range result.Warnings {
			if w.Kind == models.WarningResolution {
				resolution++
			}
		}
		if resolution != 1 {
			t.Errorf("resolution warnings = %d, want 1\n%v", resolution, result.Warnings)
		}
	})

	t.Run("RunNamed overrides the opaque on-disk name", func(t *testing.T) {
		path := writeL5X(t, "3fe2a7d1", noFixtureL5X)
		renderer := &fakeRenderer{}

		result, err := New(nil, renderer, nil).RunNamed(path, "_010UA1_Export.L5X", t.TempDir())
		if err != nil {
			t.Fatalf("RunNamed failed: %v", err)
		}

		if result.SourceFile != "_010UA1_Export.L5X" {
			t.Errorf("source = %q", result.SourceFile)
		}
		if got := result.Bundles[0].FixtureName; got != "010UA1" {
			t.Errorf("fixture name = %q, want 010UA1", got)
		}
	})

	t.Run("render failure becomes a warning, not an error", func(t *testing.T) {
		path := writeL5X(t, "_010UA1_Export.L5X", singleFixtureL5X)
		renderer := &fakeRenderer{fail: true}

		result, err := New(nil, renderer, nil).Run(path, t.TempDir())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(result.Outputs) != 0 {
			t.Errorf("outputs = %v, want none", result.Outputs)
		}

		found := false
		for _, w := range result.Warnings {
			if w.Kind == models.WarningExtractionGap {
				found = true
			}
		}
		if !found {
			t.Errorf("no rendering warning in %v", result.Warnings)
		}
	})

	t.Run("malformed document is an error", func(t *testing.T) {
		path := writeL5X(t, "bad.l5x", "<RSLogix5000Content>")
		if _, err := New(nil, &fakeRenderer{}, nil).Run(path, t.TempDir()); err == nil {
			t.Fatal("expected error for malformed document")
		}
	})

	t.Run("progress reaches the routine total", func(t *testing.T) {
		path := writeL5X(t, "Line2_Export.L5X", multiFixtureL5X)

		p := New(nil, &fakeRenderer{}, nil)
		var calls [][2]int
		p.OnProgress = func(done, total int) { calls = append(calls, [2]int{done, total}) }

		if _, err := p.Run(path, t.TempDir()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if len(calls) != 2 {
			t.Fatalf("progress calls = %v, want 2", calls)
		}
		if last := calls[len(calls)-1]; last[0] != 2 || last[1] != 2 {
			t.Errorf("final progress = %v, want [2 2]", last)
		}
	})

	t.Run("repeated runs over one input are identical", func(t *testing.T) {
		path := writeL5X(t, "_010UA1_Export.L5X", singleFixtureL5X)
		p := New(nil, &fakeRenderer{}, nil)

		first, err := p.Run(path, t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		second, err := p.Run(path, t.TempDir())
		if err != nil {
			t.Fatal(err)
		}

		if !reflect.DeepEqual(first.Bundles, second.Bundles) {
			t.Error("bundles differ between runs over the same input")
		}
		if !reflect.DeepEqual(first.Warnings, second.Warnings) {
			t.Error("warnings differ between runs over the same input")
		}
	})
}
