package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/l5x-extractor/backend/internal/models"
)

// CSVExporter writes flat per-entity CSV files alongside the workbook:
// one for sequence actions and one for transition permissions.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter { return &CSVExporter{} }

func (e *CSVExporter) Export(bundle *models.FixtureBundle, outputDir string) ([]string, error) {
	var written []string

	seqPath := filepath.Join(outputDir,
		fmt.Sprintf("%s_%s_sequences.csv", bundle.FixtureName, bundle.RoutineName))
	if err := writeCSV(seqPath, sequenceRows(bundle)); err != nil {
		return written, err
	}
	written = append(written, seqPath)

	if len(bundle.Transitions) > 0 {
		transPath := filepath.Join(outputDir,
			fmt.Sprintf("%s_%s_transitions.csv", bundle.FixtureName, bundle.RoutineName))
		if err := writeCSV(transPath, transitionRows(bundle)); err != nil {
			return written, err
		}
		written = append(written, transPath)
	}

	return written, nil
}

func sequenceRows(bundle *models.FixtureBundle) [][]string {
	rows := [][]string{{
		"Routine", "Sequence", "Sequence_Name", "Step", "Action_Slot",
		"Action_Name", "MM_Number", "State", "Actuator_Index", "Actuator_Description",
	}}
	for _, seq := range bundle.Sequences {
		for _, step := range seq.Steps {
			for _, action := range step.Actions {
				base := []string{
					bundle.RoutineName,
					strconv.Itoa(seq.Index),
					seq.Name,
					strconv.Itoa(step.Index),
					strconv.Itoa(action.Slot),
					action.Name,
					action.MMNumber,
					action.State,
				}
				if len(action.Actuators) == 0 {
					rows = append(rows, append(base, "", ""))
					continue
				}
				for _, act := range action.Actuators {
					rows = append(rows, append(append([]string{}, base...),
						strconv.Itoa(act.Index), act.Description))
				}
			}
		}
	}
	return rows
}

func transitionRows(bundle *models.FixtureBundle) [][]string {
	rows := [][]string{{
		"Routine", "Transition_Index", "Transition_Name",
		"Permission_Index", "Permission_Value", "Comment",
	}}
	for _, t := range bundle.Transitions {
		for _, p := range t.Permissions {
			rows = append(rows, []string{
				bundle.RoutineName,
				strconv.Itoa(t.Index),
				t.Name,
				strconv.Itoa(p.Index),
				p.Value,
				p.Comment,
			})
		}
	}
	return rows
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSV export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("writing CSV export: %w", err)
	}
	return nil
}
