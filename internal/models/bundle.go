package models

// FixtureBundle is the merged extraction result for one sequence routine of
// one fixture. Entities are read-only once the pipeline hands the bundle to
// a renderer; a fresh bundle is built on every run.
type FixtureBundle struct {
	FixtureName    string          `json:"fixtureName"`
	ProgramName    string          `json:"programName"`
	RoutineName    string          `json:"routineName"`
	MultiFixture   bool            `json:"multiFixture"`
	Sequences      []Sequence      `json:"sequences"`
	Transitions    []Transition    `json:"transitions"`
	DigitalInputs  []DigitalInput  `json:"digitalInputs"`
	ActuatorGroups []ActuatorGroup `json:"actuatorGroups"`
	Parts          []Part          `json:"parts"`
	ValveMappings  []ValveMapping  `json:"valveMappings"`
	Warnings       []Warning       `json:"warnings,omitempty"`
}

// ValveMappingFor looks up the mapping for an MM group name, if any.
func (b *FixtureBundle) ValveMappingFor(mmNumber string) (ValveMapping, bool) {
	for _, vm := range b.ValveMappings {
		if vm.MMNumber == mmNumber {
			return vm, true
		}
	}
	return ValveMapping{}, false
}

// GroupDescription returns the description of the actuator group tag whose
// name matches the MM number, or "" when no such tag exists.
func (b *FixtureBundle) GroupDescription(mmNumber string) string {
	for _, g := range b.ActuatorGroups {
		if g.TagName == mmNumber {
			return g.Description
		}
	}
	return ""
}

// RoutineOutput records where one bundle was rendered.
type RoutineOutput struct {
	FixtureName    string `json:"fixtureName"`
	ProgramName    string `json:"programName"`
	RoutineName    string `json:"routineName"`
	WorkbookPath   string `json:"workbookPath"`
	SequenceCount  int    `json:"sequenceCount"`
	TransitionCount int   `json:"transitionCount"`
	InputCount     int    `json:"inputCount"`
	GroupCount     int    `json:"groupCount"`
}

// RunResult is the outcome of one pipeline run over one document.
type RunResult struct {
	SourceFile   string           `json:"sourceFile"`
	MultiFixture bool             `json:"multiFixture"`
	Bundles      []*FixtureBundle `json:"bundles"`
	Outputs      []RoutineOutput  `json:"outputs"`
	Warnings     []Warning        `json:"warnings,omitempty"`
}
