// Package report renders fixture bundles into spreadsheet, JSON and CSV
// output files.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/l5x-extractor/backend/internal/models"
)

// Dark theme palette. Hex without the leading '#'.
const (
	colorHeaderFill     = "1A1A1A"
	colorHeaderFont     = "00D9FF"
	colorTransitionFill = "1E3A5F"
	colorTransitionFont = "66B3FF"
	colorSequenceFill   = "1F4E2D"
	colorSequenceFont   = "90EE90"
	colorStepFill       = "4A3B00"
	colorStepFont       = "FFD966"
	colorActionFill     = "3A3A3A"
	colorActionFont     = "D0D0D0"
	colorDataFill       = "2D2D2D"
	colorDataFont       = "E0E0E0"
	colorWarningFill    = "5A1A1A"
	colorWarningFont    = "FF6B6B"
)

const (
	maxColumnWidth = 50
	columnPadding  = 2
)

const (
	sheetCompleteFlow = "Complete_Flow"
	sheetSequences    = "Sequences_Actuators"
	sheetTransitions  = "Transitions"
	sheetInputs       = "Digital_Inputs"
	sheetGroups       = "Actuator_Groups"
)

// ExcelRenderer writes one multi-sheet workbook per bundle, named
// {fixture}_{routine}.xlsx.
type ExcelRenderer struct{}

func NewExcelRenderer() *ExcelRenderer { return &ExcelRenderer{} }

// Render writes the workbook into outputDir and returns its path.
func (r *ExcelRenderer) Render(bundle *models.FixtureBundle, outputDir string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyleSet(f)
	if err != nil {
		return "", fmt.Errorf("creating workbook styles: %w", err)
	}

	w := &workbook{f: f, styles: st}

	if err := w.writeCompleteFlow(bundle); err != nil {
		return "", err
	}
	if err := w.writeSequences(bundle); err != nil {
		return "", err
	}
	if err := w.writeTransitions(bundle); err != nil {
		return "", err
	}
	if err := w.writeDigitalInputs(bundle); err != nil {
		return "", err
	}
	if err := w.writeActuatorGroups(bundle); err != nil {
		return "", err
	}

	path := filepath.Join(outputDir, WorkbookName(bundle))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("saving workbook: %w", err)
	}
	return path, nil
}

// WorkbookName returns the output filename for a bundle.
func WorkbookName(bundle *models.FixtureBundle) string {
	return fmt.Sprintf("%s_%s.xlsx", bundle.FixtureName, bundle.RoutineName)
}

type styleSet struct {
	header     int
	transition int
	sequence   int
	step       int
	action     int
	data       int
	warning    int
}

func newStyleSet(f *excelize.File) (*styleSet, error) {
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
	}

	header, err := f.NewStyle(&excelize.Style{
		Fill: fill(colorHeaderFill),
		Font: &excelize.Font{Bold: true, Color: colorHeaderFont, Size: 11},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, err
	}
	transition, err := f.NewStyle(&excelize.Style{
		Fill: fill(colorTransitionFill),
		Font: &excelize.Font{Bold: true, Color: colorTransitionFont, Size: 12},
	})
	if err != nil {
		return nil, err
	}
	sequence, err := f.NewStyle(&excelize.Style{
		Fill: fill(colorSequenceFill),
		Font: &excelize.Font{Bold: true, Color: colorSequenceFont, Size: 11},
	})
	if err != nil {
		return nil, err
	}
	step, err := f.NewStyle(&excelize.Style{
		Fill: fill(colorStepFill),
		Font: &excelize.Font{Bold: true, Color: colorStepFont, Size: 10},
	})
	if err != nil {
		return nil, err
	}
	action, err := f.NewStyle(&excelize.Style{
		Fill: fill(colorActionFill),
		Font: &excelize.Font{Bold: true, Color: colorActionFont, Size: 10},
	})
	if err != nil {
		return nil, err
	}
	data, err := f.NewStyle(&excelize.Style{
		Fill: fill(colorDataFill),
		Font: &excelize.Font{Color: colorDataFont, Size: 10},
	})
	if err != nil {
		return nil, err
	}
	warning, err := f.NewStyle(&excelize.Style{
		Fill: fill(colorWarningFill),
		Font: &excelize.Font{Bold: true, Color: colorWarningFont, Size: 10},
	})
	if err != nil {
		return nil, err
	}

	return &styleSet{
		header:     header,
		transition: transition,
		sequence:   sequence,
		step:       step,
		action:     action,
		data:       data,
		warning:    warning,
	}, nil
}

type workbook struct {
	f      *excelize.File
	styles *styleSet
}

// sheetWriter appends styled rows to one sheet and tracks column widths.
type sheetWriter struct {
	f      *excelize.File
	name   string
	row    int
	widths []float64
}

func (w *workbook) newSheet(name string, headers []string) (*sheetWriter, error) {
	// The default Sheet1 becomes the first sheet we create.
	sheets := w.f.GetSheetList()
	if len(sheets) == 1 && sheets[0] == "Sheet1" {
		if err := w.f.SetSheetName("Sheet1", name); err != nil {
			return nil, err
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return nil, err
	}

	sw := &sheetWriter{f: w.f, name: name, widths: make([]float64, len(headers))}
	if err := sw.writeRow(w.styles.header, toAny(headers)...); err != nil {
		return nil, err
	}
	return sw, nil
}

func (s *sheetWriter) writeRow(style int, values ...any) error {
	s.row++
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, s.row)
		if err != nil {
			return err
		}
		if err := s.f.SetCellValue(s.name, cell, v); err != nil {
			return fmt.Errorf("writing %s!%s: %w", s.name, cell, err)
		}
		if w := float64(len(fmt.Sprint(v)) + columnPadding); col < len(s.widths) && w > s.widths[col] {
			s.widths[col] = w
		}
	}
	// Style the full row width so section bars span every column.
	first, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(s.widths), s.row)
	if err != nil {
		return err
	}
	return s.f.SetCellStyle(s.name, first, last, style)
}

func (s *sheetWriter) skipRow() { s.row++ }

func (s *sheetWriter) finish() error {
	for col, width := range s.widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		if width < float64(columnPadding) {
			width = columnPadding
		}
		if err := s.f.SetColWidth(s.name, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// writeCompleteFlow builds the hierarchical main view. Each transition is
// placed before the sequence sharing its index, then sequences cascade
// into steps, actions and actuators.
func (w *workbook) writeCompleteFlow(bundle *models.FixtureBundle) error {
	sw, err := w.newSheet(sheetCompleteFlow, []string{
		"Type", "Index", "Description", "Details", "State/Comment",
	})
	if err != nil {
		return err
	}

	transitions := make(map[int]models.Transition, len(bundle.Transitions))
	for _, t := range bundle.Transitions {
		transitions[t.Index] = t
	}

	for _, seq := range bundle.Sequences {
		if t, ok := transitions[seq.Index]; ok {
			if err := w.writeTransitionSection(sw, t); err != nil {
				return err
			}
		}
		if err := w.writeSequenceSection(sw, bundle, seq); err != nil {
			return err
		}
	}

	return sw.finish()
}

func (w *workbook) writeTransitionSection(sw *sheetWriter, t models.Transition) error {
	err := sw.writeRow(w.styles.transition,
		"TRANSITION", t.Index, t.DisplayName(),
		fmt.Sprintf("%d permissions", len(t.Permissions)), "")
	if err != nil {
		return err
	}
	for _, p := range t.Permissions {
		err := sw.writeRow(w.styles.data,
			"  Permission", p.Index, p.Value, "", p.Comment)
		if err != nil {
			return err
		}
	}
	sw.skipRow()
	return nil
}

func (w *workbook) writeSequenceSection(sw *sheetWriter, bundle *models.FixtureBundle, seq models.Sequence) error {
	err := sw.writeRow(w.styles.sequence,
		"SEQUENCE", seq.Index, seq.DisplayName(),
		fmt.Sprintf("%d steps", len(seq.Steps)), "")
	if err != nil {
		return err
	}
	for _, step := range seq.Steps {
		err := sw.writeRow(w.styles.step,
			"  STEP", step.Index, fmt.Sprintf("Step %d", step.Index),
			fmt.Sprintf("%d actions", len(step.Actions)), "")
		if err != nil {
			return err
		}
		for _, action := range step.Actions {
			if err := w.writeActionSection(sw, action); err != nil {
				return err
			}
		}
	}
	sw.skipRow()
	return nil
}

func (w *workbook) writeActionSection(sw *sheetWriter, action models.Action) error {
	mm := action.MMNumber
	if mm == "" {
		mm = "N/A"
	}
	details := fmt.Sprintf("%s - %d actuators", mm, len(action.Actuators))
	style := w.styles.action
	if v := action.Validation; v != nil {
		if v.Valid {
			details += fmt.Sprintf(" [OK: %d/%d]", v.Found, v.Dimension)
		} else {
			details += fmt.Sprintf(" [WARNING: %d/%d - Missing: %s]",
				v.Found, v.Dimension, joinInts(v.MissingIndices))
			style = w.styles.warning
		}
	}

	err := sw.writeRow(style,
		"    ACTION", action.Slot, action.Name, details, formatState(action.State))
	if err != nil {
		return err
	}
	for _, act := range action.Actuators {
		err := sw.writeRow(w.styles.data,
			"      Actuator", act.Index, act.Description, mm, "")
		if err != nil {
			return err
		}
	}
	return nil
}

// writeSequences builds the flat one-row-per-actuator view. Multi-fixture
// runs grow three extra valve columns so a fixture's rows can be matched
// against the routing program's manifold wiring.
func (w *workbook) writeSequences(bundle *models.FixtureBundle) error {
	headers := []string{
		"Sequence Name", "Step", "Action Type", "Actuator Index",
		"Actuator Description", "MM Group Description",
	}
	if bundle.MultiFixture {
		headers = append(headers, "Manifold", "Valve_Work", "Valve_Home")
	}

	sw, err := w.newSheet(sheetSequences, headers)
	if err != nil {
		return err
	}

	for _, seq := range bundle.Sequences {
		for _, step := range seq.Steps {
			for _, action := range step.Actions {
				actionType := formatState(action.State)
				if actionType == "" {
					actionType = action.Name
				}
				groupDesc := bundle.GroupDescription(action.MMNumber)

				var manifold, valveWork, valveHome string
				if bundle.MultiFixture {
					if vm, ok := bundle.ValveMappingFor(action.MMNumber); ok {
						manifold, valveWork, valveHome = vm.Manifold, vm.ValveWork, vm.ValveHome
					}
				}

				style := w.styles.data
				if action.Validation != nil && !action.Validation.Valid {
					style = w.styles.warning
				}

				rows := action.Actuators
				if len(rows) == 0 {
					// Keep the action visible even when no MM routine
					// yielded actuators for it.
					rows = []models.Actuator{{Index: -1}}
				}
				for _, act := range rows {
					var index any
					var desc string
					if act.Index >= 0 {
						index, desc = act.Index, act.Description
					} else {
						index = ""
					}
					values := []any{
						seq.DisplayName(), step.Index, actionType, index, desc, groupDesc,
					}
					if bundle.MultiFixture {
						values = append(values, manifold, valveWork, valveHome)
					}
					if err := sw.writeRow(style, values...); err != nil {
						return err
					}
				}
			}
		}
	}

	return sw.finish()
}

func (w *workbook) writeTransitions(bundle *models.FixtureBundle) error {
	sw, err := w.newSheet(sheetTransitions, []string{
		"Transition Index", "Transition Name", "Permission Index",
		"Permission Value", "Comment",
	})
	if err != nil {
		return err
	}

	for _, t := range bundle.Transitions {
		for _, p := range t.Permissions {
			err := sw.writeRow(w.styles.data,
				t.Index, t.DisplayName(), p.Index, p.Value, p.Comment)
			if err != nil {
				return err
			}
		}
	}

	return sw.finish()
}

func (w *workbook) writeDigitalInputs(bundle *models.FixtureBundle) error {
	sw, err := w.newSheet(sheetInputs, []string{
		"Program", "Tag Name", "Parent Name", "Part Assignment",
	})
	if err != nil {
		return err
	}

	for _, di := range bundle.DigitalInputs {
		err := sw.writeRow(w.styles.data,
			di.Program, di.TagName, di.ParentName, partAssignment(di.Parts))
		if err != nil {
			return err
		}
	}

	return sw.finish()
}

func (w *workbook) writeActuatorGroups(bundle *models.FixtureBundle) error {
	sw, err := w.newSheet(sheetGroups, []string{
		"Program", "Tag Name", "Description",
	})
	if err != nil {
		return err
	}

	for _, g := range bundle.ActuatorGroups {
		if err := sw.writeRow(w.styles.data, g.Program, g.TagName, g.Description); err != nil {
			return err
		}
	}

	return sw.finish()
}

func formatState(state string) string {
	if state == "" {
		return ""
	}
	return "TO " + strings.ToUpper(state)
}

func partAssignment(parts []string) string {
	if len(parts) == 0 {
		return "N/A"
	}
	return strings.Join(parts, ", ")
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ",")
}
