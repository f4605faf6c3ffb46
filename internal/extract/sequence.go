package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/l5x-extractor/backend/internal/models"
)

// Grammar for the sequence routine's structured text. Both array spellings
// occur in the field: the flat EmSeqList[s][p][a] form and the older
// .Step[].ActionNumber[] form.
var (
	actionFlatPattern     = regexp.MustCompile(`EmSeqList\[(\d+)\]\[(\d+)\]\[(\d+)\]\s*:=\s*(\w+)\.outActionNum`)
	actionLongPattern     = regexp.MustCompile(`EmSeqList\[(\d+)\]\.Step\[(\d+)\]\.ActionNumber\[(\d+)\]\s*:=\s*(\w+)\.outActionNum`)
	sequenceRegionPattern = regexp.MustCompile(`#region\s+Sequence\s+(\d+)\s+-\s+(.+)`)
	sequenceNamePattern   = regexp.MustCompile(`EmSeqList\[(\d+)\]\.Name\s*:=\s*'([^']+)'`)
	actionNamePattern     = regexp.MustCompile(`^Action(MM\d+)(\w+)`)
)

// SequenceExtractor parses action assignments and sequence names out of the
// fixture's sequence routine. Sequences, steps and action slots keep their
// first-seen order - it reflects program authoring order, not a sort key.
// A reassigned (seq, step, slot) tuple overwrites the earlier value in
// place, matching assignment semantics in the source logic.
type SequenceExtractor struct {
	actionFlat *regexp.Regexp
	actionLong *regexp.Regexp
	region     *regexp.Regexp
	nameAssign *regexp.Regexp
}

// NewSequenceExtractor creates a sequence/action extractor.
func NewSequenceExtractor() *SequenceExtractor {
	return &SequenceExtractor{
		actionFlat: actionFlatPattern,
		actionLong: actionLongPattern,
		region:     sequenceRegionPattern,
		nameAssign: sequenceNamePattern,
	}
}

func (e *SequenceExtractor) Name() string { return "sequences" }

type stepAccum struct {
	index   int
	actions []models.Action
	slotPos map[int]int
}

type seqAccum struct {
	index   int
	steps   []*stepAccum
	stepPos map[int]int
}

// Extract fills bundle.Sequences from the scope's sequence routine.
func (e *SequenceExtractor) Extract(scope *Scope, bundle *models.FixtureBundle) []models.Warning {
	routine := scope.FindRoutine(scope.RoutineName)
	if routine == nil {
		return []models.Warning{{
			Kind:    models.WarningExtractionGap,
			Unit:    scope.RoutineName,
			Message: "sequence routine not found",
		}}
	}

	names := make(map[int]string)
	var order []*seqAccum
	seqPos := make(map[int]int)

	record := func(m []string) {
		seqIdx, _ := strconv.Atoi(m[1])
		stepIdx, _ := strconv.Atoi(m[2])
		slot, _ := strconv.Atoi(m[3])
		actionName := m[4]

		var mmNumber, state string
		if am := actionNamePattern.FindStringSubmatch(actionName); am != nil {
			mmNumber, state = am[1], am[2]
		} else {
			scope.Log.Debug("action without MM token", "action", actionName)
		}

		action := models.Action{
			Slot:      slot,
			Name:      actionName,
			MMNumber:  mmNumber,
			State:     state,
			Actuators: []models.Actuator{},
		}

		pos, ok := seqPos[seqIdx]
		if !ok {
			pos = len(order)
			seqPos[seqIdx] = pos
			order = append(order, &seqAccum{index: seqIdx, stepPos: make(map[int]int)})
		}
		sa := order[pos]

		spos, ok := sa.stepPos[stepIdx]
		if !ok {
			spos = len(sa.steps)
			sa.stepPos[stepIdx] = spos
			sa.steps = append(sa.steps, &stepAccum{index: stepIdx, slotPos: make(map[int]int)})
		}
		st := sa.steps[spos]

		if apos, ok := st.slotPos[slot]; ok {
			st.actions[apos] = action // last write wins
		} else {
			st.slotPos[slot] = len(st.actions)
			st.actions = append(st.actions, action)
		}
	}

	for _, line := range strings.Split(routine.Text(), "\n") {
		if rm := e.region.FindStringSubmatch(line); rm != nil {
			idx, _ := strconv.Atoi(rm[1])
			names[idx] = strings.TrimSpace(rm[2])
		} else if nm := e.nameAssign.FindStringSubmatch(line); nm != nil {
			idx, _ := strconv.Atoi(nm[1])
			if _, seen := names[idx]; !seen {
				names[idx] = strings.TrimSpace(nm[2])
			}
		}

		for _, m := range e.actionFlat.FindAllStringSubmatch(line, -1) {
			record(m)
		}
		for _, m := range e.actionLong.FindAllStringSubmatch(line, -1) {
			record(m)
		}
	}

	var warnings []models.Warning
	if len(order) == 0 {
		warnings = append(warnings, models.Warning{
			Kind:    models.WarningExtractionGap,
			Unit:    scope.RoutineName,
			Message: "no action assignments matched in sequence routine",
		})
	}

	bundle.Sequences = make([]models.Sequence, 0, len(order))
	for _, sa := range order {
		seq := models.Sequence{Index: sa.index, Name: names[sa.index]}
		for _, st := range sa.steps {
			seq.Steps = append(seq.Steps, models.Step{Index: st.index, Actions: st.actions})
		}
		bundle.Sequences = append(bundle.Sequences, seq)
	}

	scope.Log.Debug("sequences extracted",
		"routine", scope.RoutineName, "count", len(bundle.Sequences))

	return warnings
}
