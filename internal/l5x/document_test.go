package l5x

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleL5X = `<?xml version="1.0" encoding="UTF-8"?>
<RSLogix5000Content SchemaRevision="1.0" TargetName="Line1">
  <Controller Name="Line1">
    <Tags>
      <Tag Name="MM4Cyls" DataType="UDT_Cyl" Dimensions="4"/>
    </Tags>
    <Programs>
      <Program Name="_010UA1_Fix">
        <Tags>
          <Tag Name="SensorA" DataType="UDT_DigitalInputHal">
            <Description>Part sensor A</Description>
            <Data Format="Decorated">
              <Structure DataType="UDT_DigitalInputHal">
                <StructureMember Name="Cfg" DataType="UDT_DigitalInputCfg">
                  <StructureMember Name="ParentName" DataType="STRING">
                    <DataValueMember Name="DATA" DataType="ASCII">'Part1Frame'</DataValueMember>
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
            </STContent>
          </Routine>
          <Routine Name="Cm12_MM4" Type="RLL">
            <RLLContent>
              <Rung Number="0">
                <Text><![CDATA[MOVE('Clamp Forward', MM4Cyls[0].Stg.Name);]]></Text>
              </Rung>
            </RLLContent>
          </Routine>
        </Routines>
      </Program>
      <Program Name="MapIo">
        <Routines>
          <Routine Name="Valves" Type="RLL"/>
        </Routines>
      </Program>
    </Programs>
  </Controller>
</RSLogix5000Content>`

func TestParse(t *testing.T) {
	t.Run("parses controller tree", func(t *testing.T) {
		doc, err := Parse([]byte(sampleL5X))
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}

		if doc.Controller.Name != "Line1" {
			t.Errorf("controller name = %q, want Line1", doc.Controller.Name)
		}
		if len(doc.Controller.Programs) != 2 {
			t.Fatalf("program count = %d, want 2", len(doc.Controller.Programs))
		}
		if len(doc.Controller.Tags) != 1 {
			t.Errorf("controller tag count = %d, want 1", len(doc.Controller.Tags))
		}

		p := doc.Controller.Programs[0]
		if p.Name != "_010UA1_Fix" {
			t.Errorf("program name = %q", p.Name)
		}
		if len(p.Routines) != 2 {
			t.Errorf("routine count = %d, want 2", len(p.Routines))
		}
	})

	t.Run("rejects malformed XML", func(t *testing.T) {
		_, err := Parse([]byte("<RSLogix5000Content><Controller"))
		if err == nil {
			t.Fatal("expected error for truncated XML")
		}
		if !errors.Is(err, ErrMalformedDocument) {
			t.Errorf("error = %v, want ErrMalformedDocument", err)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads from disk and records the filename", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "_010UA1_Export.L5X")
		if err := os.WriteFile(path, []byte(sampleL5X), 0644); err != nil {
			t.Fatal(err)
		}

		doc, err := Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if doc.SourceFile != "_010UA1_Export.L5X" {
			t.Errorf("SourceFile = %q", doc.SourceFile)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.l5x")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("malformed file keeps the sentinel", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.l5x")
		if err := os.WriteFile(path, []byte("not xml at all <"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := Load(path)
		if !errors.Is(err, ErrMalformedDocument) {
			t.Errorf("error = %v, want ErrMalformedDocument", err)
		}
	})
}
